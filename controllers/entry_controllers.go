package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/services"
	"github.com/yeremiapane/qrdine/session"
	"github.com/yeremiapane/qrdine/utils"
)

type EntryController struct {
	Resolver   *session.Resolver
	Catalog    *services.CatalogService
	Gate       *services.FeatureGate
	HappyHours *services.HappyHourService
	Monitor    *session.Monitor
}

func NewEntryController(resolver *session.Resolver, catalog *services.CatalogService, monitor *session.Monitor) *EntryController {
	return &EntryController{
		Resolver:   resolver,
		Catalog:    catalog,
		Gate:       services.NewFeatureGate(),
		HappyHours: services.NewHappyHourService(),
		Monitor:    monitor,
	}
}

// HandleEntry -> the canonical QR entry path. /?code=ABC&table=5 relocates
// the table into the binding cookies and redirects to the tenant page /ABC,
// so neither identifier stays visible in the address bar or the browser
// history. A scan without a table parameter proactively drops any previous
// table binding instead of inheriting it.
func (ec *EntryController) HandleEntry(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		utils.RespondJSON(c, http.StatusOK, "Scan a restaurant QR code to begin", nil)
		return
	}

	table, tableSeen := c.GetQuery("table")
	jar := session.GinJar{C: c}
	now := time.Now()

	if tableSeen && table != "" {
		id := ec.Resolver.EstablishTable(code, table, jar, now)
		ec.Monitor.Track(id)
	} else {
		// Runs the tenant-mismatch and unscanned-table guards against
		// whatever cookies are already present.
		ec.Resolver.Resolve(session.Params{
			TenantCode: code,
			EntryScan:  true,
		}, jar, now)
	}

	c.Redirect(http.StatusFound, "/"+code)
}

// ShowTenant -> the tenant page payload: resolved identity, capability flags
// and today's happy-hour status. A ?session parameter is validated remotely
// and then stripped by redirecting back to the bare path, whether or not the
// validation succeeded.
func (ec *EntryController) ShowTenant(c *gin.Context) {
	code := c.Param("code")
	jar := session.GinJar{C: c}
	now := time.Now()

	if sessionID := c.Query("session"); sessionID != "" {
		res := ec.Resolver.Resolve(session.Params{
			TenantCode:         code,
			SessionID:          sessionID,
			SelfServiceSurface: true,
			ClientIP:           c.ClientIP(),
			UserAgent:          c.Request.UserAgent(),
		}, jar, now)
		if res.Identity.IsBound() {
			ec.Monitor.Track(res.Identity)
		}
		c.Redirect(http.StatusFound, "/"+code)
		return
	}

	res := ec.Resolver.Resolve(resolveParams(c, code), jar, now)
	if res.Identity.IsBound() {
		ec.Monitor.Track(res.Identity)
	}

	cfg, err := ec.Catalog.GetConfig(code)
	if err != nil {
		// Zero config evaluates as everything disabled; the page still
		// renders rather than failing to load.
		utils.ErrorLogger.Printf("Tenant %s config unavailable: %v", code, err)
	}
	caps := ec.Gate.Evaluate(cfg)

	schedule := models.ParseHappyHourSchedule(cfg.HappyHours)
	ec.Monitor.TrackTenant(code, schedule)

	payload := gin.H{
		"identity":     res.Identity,
		"capabilities": caps,
		"happy_hour": gin.H{
			"active": ec.HappyHours.IsActive(schedule, now),
			"window": ec.HappyHours.TodayWindowLabel(schedule, now),
		},
	}
	if res.Reason != session.ReasonNone {
		payload["reason"] = res.Reason
		payload["message"] = ScanInstruction
	}

	utils.RespondJSON(c, http.StatusOK, "Tenant page", payload)
}
