package adminController

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"github.com/junaidrashid-git/yar-marketplace/auth"
	"github.com/junaidrashid-git/yar-marketplace/cache"
	"github.com/junaidrashid-git/yar-marketplace/config"
	"github.com/junaidrashid-git/yar-marketplace/ledger"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/notify"
	"github.com/junaidrashid-git/yar-marketplace/oversight"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
	"github.com/junaidrashid-git/yar-marketplace/testutil"
)

const apiKey = "admin-key"

type fixture struct {
	router *gin.Engine
	store  *ledger.Store
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clock := testutil.NewClock(time.Date(2026, 4, 30, 12, 0, 0, 0, time.UTC))
	store := testutil.NewStore(t, clock.Now)
	gen := cache.NewGeneration(cache.NewMemory("yar-test"), "aggregates")
	engine := reconcile.New(store, notify.Discard{}, reconcile.WithCache(gen), reconcile.WithOrderNumbers(testutil.SequentialNumbers))
	svc := oversight.NewService(store, engine, notify.Discard{}, gen,
		config.AggregatesConfig{WindowDays: 30, CacheTTL: time.Minute},
		config.TicketsConfig{HighValueThreshold: 100000},
	)
	iss := auth.NewIssuer("secret", time.Hour, clock.Now)
	token, _, err := iss.Issue("admin-1", models.RoleAdmin, "")
	require.NoError(t, err)

	r := gin.New()
	g := r.Group("/admin", middleware.ValidateAPIKey(apiKey), middleware.ValidateToken(iss), middleware.RequireRole(models.RoleAdmin))
	g.GET("/dashboard", GetDashboard(svc))
	g.GET("/tickets", GetTickets(svc))
	g.GET("/vendors/pending", ListPendingVendors(svc))
	g.PUT("/vendors/:vendorID/verify", VerifyVendor(svc))
	g.POST("/orders/:orderID/verify-payment", VerifyPayment(svc))
	g.POST("/orders/:orderID/resolve", ResolveDispute(svc))
	g.GET("/orders/:orderID/history", GetHistory(svc))
	g.GET("/orders/export-excel", ExportOrdersToExcel(svc))
	return &fixture{router: r, store: store, token: token}
}

func (f *fixture) call(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestDashboardHandler(t *testing.T) {
	f := newFixture(t)
	testutil.CreateOrder(t, f.store, "buyer-1", testutil.Item("v-1", "p-1", 1, 1000))

	w := f.call(http.MethodGet, "/admin/dashboard?window_days=7", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"window_days":7`)
	assert.Contains(t, w.Body.String(), `"order_count":1`)

	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodGet, "/admin/dashboard?window_days=999", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodGet, "/admin/dashboard?window_days=abc", "").Code)
}

func TestAdminRoutesNeedKeyAndRole(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/admin/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusOK, f.call(http.MethodGet, "/admin/tickets", "").Code)
}

func TestOrderActions(t *testing.T) {
	f := newFixture(t)
	o := testutil.CreateOrder(t, f.store, "buyer-1", testutil.Item("v-1", "p-1", 2, 1500))

	w := f.call(http.MethodPost, "/admin/orders/"+o.ID+"/verify-payment", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"payment_status":"paid"`)

	w = f.call(http.MethodPost, "/admin/orders/"+o.ID+"/verify-payment", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.call(http.MethodPost, "/admin/orders/"+o.ID+"/resolve", `{"outcome":"shipped"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.call(http.MethodPost, "/admin/orders/"+o.ID+"/resolve", `{"outcome":"returned"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.call(http.MethodPost, "/admin/orders/"+o.ID+"/resolve",
		`{"outcome":"cancelled","note":"buyer unreachable","penalty":{"vendor_id":"v-1","amount":"500","reason":"late"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"cancelled"`)

	w = f.call(http.MethodGet, "/admin/orders/"+o.ID+"/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"resolve_dispute"`)
}

func TestVendorVerification(t *testing.T) {
	f := newFixture(t)
	v := testutil.SeedVendor(t, f.store, "user-1", "Mama Shea", false)

	w := f.call(http.MethodGet, "/admin/vendors/pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), v.ID)

	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodPut, "/admin/vendors/"+v.ID+"/verify", `{}`).Code)

	w = f.call(http.MethodPut, "/admin/vendors/"+v.ID+"/verify", `{"verified":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.call(http.MethodGet, "/admin/vendors/pending", "")
	assert.NotContains(t, w.Body.String(), v.ID)

	assert.Equal(t, http.StatusNotFound, f.call(http.MethodPut, "/admin/vendors/missing/verify", `{"verified":true}`).Code)
}

func TestExportOrdersToExcel(t *testing.T) {
	f := newFixture(t)
	o := testutil.CreateOrder(t, f.store, "buyer-1", testutil.Item("v-1", "p-1", 1, 1000))

	w := f.call(http.MethodGet, "/admin/orders/export-excel?since=2026-01-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-Row-Count"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "orders.xlsx")

	file, err := xlsx.OpenBinary(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, o.OrderNumber, file.Sheets[0].Rows[1].Cells[1].Value)

	assert.Equal(t, http.StatusBadRequest, f.call(http.MethodGet, "/admin/orders/export-excel?since=yesterday", "").Code)
}
