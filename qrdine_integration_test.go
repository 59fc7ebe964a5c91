package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
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

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// browserJar mimics a browser applying Set-Cookie headers across requests.
type browserJar struct {
	cookies map[string]string
}

func newBrowserJar() *browserJar {
	return &browserJar{cookies: make(map[string]string)}
}

func (b *browserJar) apply(resp *http.Response) {
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
}

func (b *browserJar) attach(req *http.Request) {
	for name, value := range b.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}

func setupIntegrationDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Cart{}, &models.CartLine{}, &models.TenantConfigCache{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	db.Exec("PRAGMA foreign_keys = ON")
	return db
}

// TestScanToCartFlow walks the main customer journey:
// 1. Scan /?code=ABC&table=5 -> redirect to /ABC, table relocated to cookies
// 2. Tenant page shows an active table binding and basket capability
// 3. Two adds of the same (product, portion) merge into one cart line
// 4. Scanning tenant OTHER purges every cookie of tenant ABC
func TestScanToCartFlow(t *testing.T) {
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.Contains(r.URL.Path, "/tenants/ABC/"):
			// Upstream still sends both spellings of some flags
			w.Write([]byte(`{
				"customerCode": "ABC",
				"subscriptionValid": true,
				"hasBasketAccess": true,
				"HasBasketAccess": false,
				"basketSystemEnabled": true,
				"happyHours": "{\"monday\":{\"enabled\":true,\"startTime\":1320,\"endTime\":120}}"
			}`))
		default:
			w.Write([]byte(`{"subscriptionValid": false}`))
		}
	}))
	defer catalog.Close()
	t.Setenv("CATALOG_BASE_URL", catalog.URL)

	gin.SetMode(gin.TestMode)
	db := setupIntegrationDB(t)
	monitor := session.NewMonitor(events.Broadcaster{})
	r := router.SetupRouter(db, monitor)

	jar := newBrowserJar()

	// 1. Scan
	req, _ := http.NewRequest("GET", "/?code=ABC&table=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/ABC", w.Header().Get("Location"))
	jar.apply(w.Result())
	assert.Equal(t, "5", jar.cookies[session.CookieTableCode])
	assert.Equal(t, "ABC", jar.cookies[session.CookieTableTenant])

	// 2. Tenant page
	req, _ = http.NewRequest("GET", "/ABC", nil)
	jar.attach(req)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var page map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	data := page["data"].(map[string]interface{})
	identity := data["identity"].(map[string]interface{})
	assert.Equal(t, "table", identity["kind"])
	assert.Equal(t, "5", identity["table_id"])
	caps := data["capabilities"].(map[string]interface{})
	assert.Equal(t, true, caps["can_use_basket"])

	// 3. Cart merge
	for _, qty := range []int{1, 2} {
		payload, _ := json.Marshal(map[string]interface{}{
			"product_id": 7, "portion_label": "Large", "quantity": qty, "unit_price": 9.5,
		})
		req, _ = http.NewRequest("POST", "/ABC/cart/items", bytes.NewBuffer(payload))
		req.Header.Set("Content-Type", "application/json")
		jar.attach(req)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
		jar.apply(w.Result())
	}

	req, _ = http.NewRequest("GET", "/ABC/cart", nil)
	jar.attach(req)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var cartResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	cartData := cartResp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), cartData["quantity"])
	lines := cartData["cart"].(map[string]interface{})["lines"].([]interface{})
	assert.Len(t, lines, 1)

	// 4. Tenant switch
	req, _ = http.NewRequest("GET", "/?code=OTHER", nil)
	jar.attach(req)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	jar.apply(w.Result())

	for name, value := range jar.cookies {
		if name == session.CookieTableCode || name == session.CookieTableTenant {
			t.Errorf("cookie %s=%s of tenant ABC still readable after switching to OTHER", name, value)
		}
	}
}

// TestExpiredBindingRequiresRescan ages the creation cookie past the TTL and
// expects the session endpoint to clear it with a re-scan instruction.
func TestExpiredBindingRequiresRescan(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db, session.NewMonitor(events.Broadcaster{}))

	created := time.Now().Add(-901 * time.Second)
	req, _ := http.NewRequest("GET", "/ABC/session", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieTableCode, Value: "5"})
	req.AddCookie(&http.Cookie{Name: session.CookieTableTenant, Value: "ABC"})
	req.AddCookie(&http.Cookie{Name: session.CookieTableCreatedAt, Value: strconv.FormatInt(created.UnixMilli(), 10)})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "No active session", response["message"])
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "expired", data["reason"])

	// The stale cookies were deleted in the same response
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieTableCode {
			assert.Empty(t, c.Value)
			assert.Less(t, c.MaxAge, 0)
		}
	}
}

// TestHappyHourEndpoint exercises the evaluator through HTTP with a window
// that is guaranteed active or inactive depending on the current weekday
// being present in the schedule.
func TestHappyHourEndpoint(t *testing.T) {
	day := strings.ToLower(time.Now().Weekday().String())
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"customerCode": "ABC",
			"subscriptionValid": true,
			"happyHours": "{\"` + day + `\":{\"enabled\":true,\"startTime\":0,\"endTime\":1440}}",
			"products": [{"id": 7, "name": "Mojito", "price": 9.5, "happyHourParentId": 3}]
		}`))
	}))
	defer catalog.Close()
	t.Setenv("CATALOG_BASE_URL", catalog.URL)

	gin.SetMode(gin.TestMode)
	db := setupIntegrationDB(t)
	r := router.SetupRouter(db, session.NewMonitor(events.Broadcaster{}))

	req, _ := http.NewRequest("GET", "/ABC/happy-hour", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["active"], "an all-day window for today must be active")
	assert.Equal(t, "00:00 - 24:00", data["window"])

	linked := data["linked_products"].([]interface{})
	if assert.Len(t, linked, 1) {
		product := linked[0].(map[string]interface{})
		assert.Equal(t, true, product["can_order"])
	}
}
