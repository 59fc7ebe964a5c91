package session

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/utils"
)

// Params carries everything the resolver needs from the current navigation.
type Params struct {
	// TenantCode implied by the route or the ?code query parameter.
	TenantCode string
	// TableID from the ?table parameter; TableParamSeen distinguishes
	// "table absent" from "table empty".
	TableID        string
	TableParamSeen bool
	// SessionID from the ?session parameter, if any.
	SessionID string
	// EntryScan marks navigations arriving through the QR entry path
	// (?code=...). Only those trigger the unscanned-table guard.
	EntryScan bool
	// SelfServiceSurface marks routes belonging to the self-service flow.
	SelfServiceSurface bool
	ClientIP           string
	UserAgent          string
}

// Validator is the remote session check for self-service bindings.
type Validator interface {
	ValidateSession(sessionID string) (bool, error)
	MarkSessionUsed(sessionID, endUserID, ip, userAgent string) error
}

// Reason explains why a resolution came up empty.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonExpired          Reason = "expired"
	ReasonTenantMismatch   Reason = "tenant_mismatch"
	ReasonUnscannedTable   Reason = "unscanned_table"
	ReasonValidationFailed Reason = "validation_failed"
)

type Result struct {
	Identity models.Identity
	Reason   Reason
}

// Resolver derives the active binding from URL parameters and cookies. It is
// the only component that creates, restores or clears bindings, and it is
// constructed once per server and passed to the controllers explicitly.
type Resolver struct {
	Validator Validator
}

func NewResolver(v Validator) *Resolver {
	return &Resolver{Validator: v}
}

// Resolve produces the current Identity for this navigation.
//
// Precedence: explicit ?session parameter (validated remotely), then a
// persisted self-service cookie on the self-service surface, then the table
// cookie, then nothing. Guards run before any cookie is trusted: a binding
// stored for another tenant is purged outright, and a QR entry scan without
// a table parameter drops any previous table binding rather than inheriting
// it.
func (r *Resolver) Resolve(p Params, jar CookieJar, now time.Time) Result {
	// Tenant-mismatch guard: cookies from restaurant A must never leak
	// into a session for restaurant B.
	if stored, ok := jar.Get(CookieTableTenant); ok && p.TenantCode != "" && stored != p.TenantCode {
		r.Clear(jar)
		if p.SessionID == "" {
			return Result{Identity: models.NoIdentity(), Reason: ReasonTenantMismatch}
		}
		// An explicit session parameter may still establish a fresh
		// binding for the new tenant below.
	}

	if p.SessionID != "" {
		if id, ok := r.establishSelfService(p, jar, now); ok {
			return Result{Identity: id}
		}
		// Fail-closed: the parameter is dropped by the caller and no
		// binding is written. Cookie restore still gets its chance.
		if res := r.restore(p, jar, now); res.Identity.IsBound() {
			return res
		}
		return Result{Identity: models.NoIdentity(), Reason: ReasonValidationFailed}
	}

	return r.restore(p, jar, now)
}

func (r *Resolver) restore(p Params, jar CookieJar, now time.Time) Result {
	if p.SelfServiceSurface {
		if flag, ok := jar.Get(CookieIsSelfService); ok && flag == "true" {
			if sessionID, ok := jar.Get(CookieSelfServiceToken); ok {
				return r.restoreBinding(models.BindingSelfService, sessionID, p, jar, now)
			}
		}
	}

	if tableID, ok := jar.Get(CookieTableCode); ok {
		// Unscanned-table guard: rescanning a tenant's generic QR code
		// (no table encoded) must not inherit the previous table.
		if p.EntryScan && !p.TableParamSeen {
			r.clearTableCookies(jar)
			jar.Delete(CookieTableCreatedAt)
			return Result{Identity: models.NoIdentity(), Reason: ReasonUnscannedTable}
		}
		return r.restoreBinding(models.BindingTable, tableID, p, jar, now)
	}

	return Result{Identity: models.NoIdentity()}
}

func (r *Resolver) restoreBinding(kind models.BindingKind, code string, p Params, jar CookieJar, now time.Time) Result {
	tenant, ok := jar.Get(CookieTableTenant)
	if !ok {
		tenant = p.TenantCode
		jar.Set(CookieTableTenant, tenant)
	}

	createdAt := now
	if raw, ok := jar.Get(CookieTableCreatedAt); ok {
		if millis, err := strconv.ParseInt(raw, 10, 64); err == nil {
			createdAt = time.UnixMilli(millis)
		}
	} else {
		// Legacy bindings predate the creation-timestamp cookie. Backfill
		// it so they get one full TTL from first sighting.
		jar.Set(CookieTableCreatedAt, strconv.FormatInt(now.UnixMilli(), 10))
	}

	id := models.Identity{
		Kind:       kind,
		TenantCode: tenant,
		CreatedAt:  createdAt,
		TTL:        models.BindingTTL,
	}
	if kind == models.BindingTable {
		id.TableID = code
	} else {
		id.SessionID = code
	}

	if !id.ValidAt(now) {
		r.Clear(jar)
		return Result{Identity: models.NoIdentity(), Reason: ReasonExpired}
	}
	return Result{Identity: id}
}

// EstablishTable binds this browser to a physical table. Any self-service
// binding is cleared first so the two can never coexist.
func (r *Resolver) EstablishTable(tenantCode, tableID string, jar CookieJar, now time.Time) models.Identity {
	jar.Delete(CookieIsSelfService)
	jar.Delete(CookieSelfServiceToken)

	jar.Set(CookieTableCode, tableID)
	jar.Set(CookieTableTenant, tenantCode)
	jar.Set(CookieTableCreatedAt, strconv.FormatInt(now.UnixMilli(), 10))

	utils.InfoLogger.Printf("Table binding established: tenant=%s table=%s", tenantCode, tableID)

	return models.Identity{
		Kind:       models.BindingTable,
		TableID:    tableID,
		TenantCode: tenantCode,
		CreatedAt:  now,
		TTL:        models.BindingTTL,
	}
}

func (r *Resolver) establishSelfService(p Params, jar CookieJar, now time.Time) (models.Identity, bool) {
	ok, err := r.Validator.ValidateSession(p.SessionID)
	if err != nil || !ok {
		if err != nil {
			utils.ErrorLogger.Printf("Self-service session validation failed: %v", err)
		}
		return models.NoIdentity(), false
	}

	jar.Delete(CookieTableCode)

	jar.Set(CookieIsSelfService, "true")
	jar.Set(CookieSelfServiceToken, p.SessionID)
	jar.Set(CookieTableTenant, p.TenantCode)
	jar.Set(CookieTableCreatedAt, strconv.FormatInt(now.UnixMilli(), 10))

	// Best-effort usage mark; the binding stands even if this call fails.
	endUserID := uuid.NewString()
	go func(sessionID, ip, userAgent string) {
		if err := r.Validator.MarkSessionUsed(sessionID, endUserID, ip, userAgent); err != nil {
			utils.ErrorLogger.Printf("Mark session used failed (ignored): %v", err)
		}
	}(p.SessionID, p.ClientIP, p.UserAgent)

	utils.InfoLogger.Printf("Self-service binding established: tenant=%s session=%s", p.TenantCode, p.SessionID)

	return models.Identity{
		Kind:       models.BindingSelfService,
		SessionID:  p.SessionID,
		TenantCode: p.TenantCode,
		CreatedAt:  now,
		TTL:        models.BindingTTL,
	}, true
}

// Clear removes every binding cookie. Used on expiry, tenant mismatch and
// the explicit re-scan reset.
func (r *Resolver) Clear(jar CookieJar) {
	r.clearTableCookies(jar)
	jar.Delete(CookieTableCreatedAt)
	jar.Delete(CookieIsSelfService)
	jar.Delete(CookieSelfServiceToken)
}

func (r *Resolver) clearTableCookies(jar CookieJar) {
	jar.Delete(CookieTableCode)
	jar.Delete(CookieTableTenant)
}
