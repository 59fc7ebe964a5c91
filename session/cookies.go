package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cookie names shared with the front end. All of them live 15 minutes, on
// path=/ and stay JS-readable so the page can mirror the countdown.
const (
	CookieTableCode        = "tableCode"
	CookieTableTenant      = "tableCustomerCode"
	CookieTableCreatedAt   = "tableCreatedAt"
	CookieIsSelfService    = "isSelfService"
	CookieSelfServiceToken = "selfServiceSessionId"
)

// CookieMaxAge matches models.BindingTTL, in seconds.
const CookieMaxAge = 900

// CookieJar abstracts cookie access so the resolver can be exercised in
// tests without an HTTP round trip.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string)
	Delete(name string)
}

// GinJar adapts a gin context to the CookieJar used by the resolver.
type GinJar struct {
	C *gin.Context
}

func (g GinJar) Get(name string) (string, bool) {
	value, err := g.C.Cookie(name)
	if err != nil || value == "" {
		return "", false
	}
	return value, true
}

func (g GinJar) Set(name, value string) {
	g.C.SetSameSite(http.SameSiteLaxMode)
	g.C.SetCookie(name, value, CookieMaxAge, "/", "", false, false)
}

func (g GinJar) Delete(name string) {
	g.C.SetSameSite(http.SameSiteLaxMode)
	g.C.SetCookie(name, "", -1, "/", "", false, false)
}
