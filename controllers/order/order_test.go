package orderControllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junaidrashid-git/yar-marketplace/auth"
	"github.com/junaidrashid-git/yar-marketplace/checkout"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/models"
	"github.com/junaidrashid-git/yar-marketplace/notify"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
	"github.com/junaidrashid-git/yar-marketplace/testutil"
)

type fixture struct {
	router *gin.Engine
	iss    *auth.Issuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	clock := testutil.NewClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	store := testutil.NewStore(t, clock.Now)
	engine := reconcile.New(store, notify.Discard{}, reconcile.WithOrderNumbers(testutil.SequentialNumbers))
	svc := checkout.NewService(store, nil, notify.Discard{}, &testutil.Invalidations{}, "XAF").
		WithOrderNumbers(testutil.SequentialNumbers)
	iss := auth.NewIssuer("secret", time.Hour, clock.Now)

	r := gin.New()
	r.POST("/orders/checkout", middleware.OptionalToken(iss), CheckoutHandler(svc))
	r.GET("/orders/:orderID/confirmation", ConfirmationHandler(svc))
	buyer := r.Group("/orders", middleware.ValidateToken(iss))
	buyer.GET("/mine", middleware.RequireRole(models.RoleBuyer), MyOrdersHandler(store))
	buyer.POST("/:orderID/reference", middleware.RequireRole(models.RoleBuyer), SubmitReferenceHandler(engine))
	buyer.GET("/:orderID/history", HistoryHandler(engine))
	return &fixture{router: r, iss: iss}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) token(t *testing.T, userID string) string {
	t.Helper()
	tok, _, err := f.iss.Issue(userID, models.RoleBuyer, "")
	require.NoError(t, err)
	return tok
}

func checkoutBody(method, reference string) gin.H {
	return gin.H{
		"lines": []gin.H{
			{"product_id": "p-1", "name": "Shea butter", "unit_price": "1500", "quantity": 2, "vendor_id": "v-1"},
		},
		"contact":        gin.H{"name": "Awa Ngono", "phone": "+237600000000", "address": "Rue 1.234", "city": "Yaounde"},
		"payment_method": method,
		"reference":      reference,
	}
}

func TestCheckout_SignedInBuyer(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "buyer-1")

	w := f.do(t, http.MethodPost, "/orders/checkout", tok, checkoutBody("orange_money", "OM-77"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res checkout.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.OrderNumber)

	w = f.do(t, http.MethodGet, "/orders/"+res.OrderID+"/confirmation", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"item_count":2`)
	assert.Contains(t, w.Body.String(), `"city":"Yaounde"`)

	w = f.do(t, http.MethodGet, "/orders/mine", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), res.OrderID)

	w = f.do(t, http.MethodGet, "/orders/"+res.OrderID+"/history", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"checkout"`)

	w = f.do(t, http.MethodGet, "/orders/"+res.OrderID+"/history", f.token(t, "buyer-2"), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckout_Errors(t *testing.T) {
	f := newFixture(t)

	empty := checkoutBody("cash", "")
	empty["lines"] = []gin.H{}
	w := f.do(t, http.MethodPost, "/orders/checkout", "", empty)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = f.do(t, http.MethodPost, "/orders/checkout", "", checkoutBody("orange_money", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"reference"`)

	w = f.do(t, http.MethodPost, "/orders/checkout", "", checkoutBody("bitcoin", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"payment_method"`)

	w = f.do(t, http.MethodGet, "/orders/missing/confirmation", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitReference(t *testing.T) {
	f := newFixture(t)
	tok := f.token(t, "buyer-1")
	w := f.do(t, http.MethodPost, "/orders/checkout", tok, checkoutBody("mtn_momo", "MM-1"))
	require.Equal(t, http.StatusCreated, w.Code)
	var res checkout.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))

	w = f.do(t, http.MethodPost, "/orders/"+res.OrderID+"/reference", tok, gin.H{"reference": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/orders/"+res.OrderID+"/reference", f.token(t, "buyer-2"), gin.H{"reference": "MM-2"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = f.do(t, http.MethodPost, "/orders/"+res.OrderID+"/reference", "", gin.H{"reference": "MM-2"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
