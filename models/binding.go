package models

import "time"

// BindingTTL is the fixed validity window for any table or self-service
// binding. After this the customer has to scan the QR code again.
const BindingTTL = 900 * time.Second

type BindingKind string

const (
	BindingNone        BindingKind = "none"
	BindingTable       BindingKind = "table"
	BindingSelfService BindingKind = "self_service"
)

// Identity is the resolved binding of an anonymous browser session: either a
// physical table, a self-service kiosk session, or nothing. At most one
// binding is active at a time and it always carries the tenant it was issued
// for.
type Identity struct {
	Kind       BindingKind   `json:"kind"`
	TableID    string        `json:"table_id,omitempty"`
	SessionID  string        `json:"session_id,omitempty"`
	TenantCode string        `json:"tenant_code,omitempty"`
	CreatedAt  time.Time     `json:"created_at,omitempty"`
	TTL        time.Duration `json:"-"`
}

// NoIdentity -> the empty binding
func NoIdentity() Identity {
	return Identity{Kind: BindingNone}
}

func (id Identity) IsBound() bool {
	return id.Kind == BindingTable || id.Kind == BindingSelfService
}

// ValidAt reports whether the binding is still inside its TTL. A binding is
// valid strictly while age < TTL, so at exactly TTL it is already expired.
func (id Identity) ValidAt(now time.Time) bool {
	if !id.IsBound() {
		return false
	}
	return now.Sub(id.CreatedAt) < id.TTL
}

func (id Identity) ExpiresAt() time.Time {
	return id.CreatedAt.Add(id.TTL)
}

// Key returns the storage key carts are namespaced under. Two distinct
// tables or kiosk sessions never share a key.
func (id Identity) Key() string {
	switch id.Kind {
	case BindingTable:
		return "table:" + id.TableID
	case BindingSelfService:
		return "ss:" + id.SessionID
	default:
		return ""
	}
}
