package Controllers_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/qrdine/events"
	"github.com/yeremiapane/qrdine/models"
	"github.com/yeremiapane/qrdine/router"
	"github.com/yeremiapane/qrdine/session"
	"github.com/yeremiapane/qrdine/utils"
)

func setupTestDB(t *testing.T) *gorm.DB {
	utils.InitLogger()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Cart{}, &models.CartLine{}, &models.TenantConfigCache{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func setupAppRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	monitor := session.NewMonitor(events.Broadcaster{})
	return router.SetupRouter(db, monitor)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Scanning a table QR relocates code and table into cookies and redirects to
// the clean tenant path.
func TestEntryScanWithTable(t *testing.T) {
	r := setupAppRouter(t)

	req, _ := http.NewRequest("GET", "/?code=ABC&table=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	assert.Equal(t, "/ABC", location)
	assert.NotContains(t, location, "table")
	assert.NotContains(t, location, "code=")

	resp := w.Result()
	tableCode := findCookie(resp, session.CookieTableCode)
	if assert.NotNil(t, tableCode) {
		assert.Equal(t, "5", tableCode.Value)
		assert.Equal(t, 900, tableCode.MaxAge)
		assert.Equal(t, "/", tableCode.Path)
	}

	tenant := findCookie(resp, session.CookieTableTenant)
	if assert.NotNil(t, tenant) {
		assert.Equal(t, "ABC", tenant.Value)
		assert.Equal(t, 900, tenant.MaxAge)
	}

	createdAt := findCookie(resp, session.CookieTableCreatedAt)
	if assert.NotNil(t, createdAt) {
		millis, err := strconv.ParseInt(createdAt.Value, 10, 64)
		assert.NoError(t, err)
		assert.WithinDuration(t, time.Now(), time.UnixMilli(millis), 5*time.Second)
	}
}

// A scan of the tenant's generic code (no table encoded) must clear a
// previous table cookie instead of inheriting it.
func TestEntryScanWithoutTableClearsCookie(t *testing.T) {
	r := setupAppRouter(t)

	req, _ := http.NewRequest("GET", "/?code=ABC", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieTableCode, Value: "5"})
	req.AddCookie(&http.Cookie{Name: session.CookieTableTenant, Value: "ABC"})
	req.AddCookie(&http.Cookie{Name: session.CookieTableCreatedAt, Value: strconv.FormatInt(time.Now().UnixMilli(), 10)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)

	cleared := findCookie(w.Result(), session.CookieTableCode)
	if assert.NotNil(t, cleared, "the stale table cookie must be rewritten") {
		assert.Empty(t, cleared.Value)
		assert.Less(t, cleared.MaxAge, 0)
	}
}

// Switching tenants in the same browser purges every binding cookie.
func TestEntryTenantSwitchPurgesBinding(t *testing.T) {
	r := setupAppRouter(t)

	req, _ := http.NewRequest("GET", "/?code=OTHER", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieTableCode, Value: "5"})
	req.AddCookie(&http.Cookie{Name: session.CookieTableTenant, Value: "ABC"})
	req.AddCookie(&http.Cookie{Name: session.CookieTableCreatedAt, Value: strconv.FormatInt(time.Now().UnixMilli(), 10)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	resp := w.Result()
	for _, name := range []string{session.CookieTableCode, session.CookieTableTenant} {
		c := findCookie(resp, name)
		if assert.NotNil(t, c, "cookie %s must be rewritten on tenant switch", name) {
			assert.Empty(t, c.Value)
			assert.Less(t, c.MaxAge, 0)
		}
	}
}

// Failed remote validation leaves no self-service cookies behind and strips
// the session parameter via the redirect.
func TestSelfServiceValidationFailure(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/validate") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": false}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()
	t.Setenv("SELF_SERVICE_BASE_URL", backend.URL)

	r := setupAppRouter(t)

	req, _ := http.NewRequest("GET", "/ABC?session=XYZ", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/ABC", w.Header().Get("Location"))

	resp := w.Result()
	for _, name := range []string{session.CookieIsSelfService, session.CookieSelfServiceToken} {
		c := findCookie(resp, name)
		if c != nil {
			assert.Empty(t, c.Value, "no self-service cookie may be set on failed validation")
		}
	}
}

// Successful validation establishes the kiosk binding and still strips the
// parameter from the address.
func TestSelfServiceValidationSuccess(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/validate") {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"success": true}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()
	t.Setenv("SELF_SERVICE_BASE_URL", backend.URL)

	r := setupAppRouter(t)

	req, _ := http.NewRequest("GET", "/ABC?session=XYZ", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/ABC", w.Header().Get("Location"))

	resp := w.Result()
	flag := findCookie(resp, session.CookieIsSelfService)
	if assert.NotNil(t, flag) {
		assert.Equal(t, "true", flag.Value)
	}
	token := findCookie(resp, session.CookieSelfServiceToken)
	if assert.NotNil(t, token) {
		assert.Equal(t, "XYZ", token.Value)
		assert.Equal(t, 900, token.MaxAge)
	}
}
