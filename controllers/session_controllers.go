package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qrdine/session"
	"github.com/yeremiapane/qrdine/utils"
)

// ScanInstruction is the one user-visible failure phrasing: always an
// actionable instruction, never a technical error.
const ScanInstruction = "Please scan the QR code on your table to start"

var ErrScanRequired = &CustomError{ScanInstruction}

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

type SessionController struct {
	Resolver *session.Resolver
	Monitor  *session.Monitor
}

func NewSessionController(resolver *session.Resolver, monitor *session.Monitor) *SessionController {
	return &SessionController{Resolver: resolver, Monitor: monitor}
}

// resolveParams builds resolver input for API calls under /:code. The kiosk
// page marks its requests with the X-Client-Surface header so its persisted
// binding is only restored on the self-service surface.
func resolveParams(c *gin.Context, tenantCode string) session.Params {
	return session.Params{
		TenantCode: tenantCode,
		SelfServiceSurface: c.GetHeader("X-Client-Surface") == "self-service" ||
			strings.HasSuffix(c.FullPath(), "/self-service"),
		ClientIP:  c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// GetSession -> resolves the caller's current binding, running every guard
func (sc *SessionController) GetSession(c *gin.Context) {
	code := c.Param("code")
	jar := session.GinJar{C: c}

	res := sc.Resolver.Resolve(resolveParams(c, code), jar, time.Now())
	if res.Identity.IsBound() {
		sc.Monitor.Track(res.Identity)
		utils.RespondJSON(c, http.StatusOK, "Active session", gin.H{
			"identity":   res.Identity,
			"expires_at": res.Identity.ExpiresAt(),
		})
		return
	}

	utils.RespondJSON(c, http.StatusOK, "No active session", gin.H{
		"identity": res.Identity,
		"reason":   res.Reason,
		"message":  ScanInstruction,
	})
}

// ResetSession -> the explicit re-scan flow: drop the binding and every
// cookie that carried it
func (sc *SessionController) ResetSession(c *gin.Context) {
	code := c.Param("code")
	jar := session.GinJar{C: c}

	res := sc.Resolver.Resolve(resolveParams(c, code), jar, time.Now())
	if res.Identity.IsBound() {
		sc.Monitor.Untrack(res.Identity.Key())
	}
	sc.Resolver.Clear(jar)

	utils.InfoLogger.Printf("Session reset for tenant %s", code)
	utils.RespondJSON(c, http.StatusOK, "Session reset", gin.H{
		"message": ScanInstruction,
	})
}
