package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/config"
	apphttp "github.com/geocoder89/shopsphere/internal/http"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/offers"
	"github.com/geocoder89/shopsphere/internal/orders"
	"github.com/geocoder89/shopsphere/internal/repo/memory"
	"github.com/geocoder89/shopsphere/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		CORSOrigins:        []string{"http://localhost:5173"},
		RateLimitPerMinute: 10000,
		MaxBodyBytes:       10 << 10,
	}
}

func setupRouter(t *testing.T, st auth.SessionType) (*gin.Engine, *memory.UsersRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	users := memory.NewUsersRepo()
	products := memory.NewProductsRepo()

	strategy, err := auth.NewStrategy(auth.Options{
		Type:          st,
		Tokens:        auth.NewTokenManager("test-jwt-secret", time.Hour),
		CookieSigner:  auth.NewCookieSigner("test-cookie-secret"),
		SessionSigner: auth.NewCookieSigner("test-session-secret"),
		Sessions:      memory.NewSessionStore(time.Hour),
		Users:         users,
		MaxAge:        time.Hour,
	})
	require.NoError(t, err)

	router := apphttp.NewRouter(logger, testConfig(), apphttp.Deps{
		Strategy: strategy,
		Users:    users,
		Products: products,
		Orders:   orders.NewService(products, memory.NewOrdersRepo(products), nil, nil, logger),
		Offers:   offers.NewService(memory.NewOffersRepo(), nil),
	})

	return router, users
}

func seedAdmin(t *testing.T, users *memory.UsersRepo) {
	t.Helper()
	hash, err := security.HashPassword("admin-pass")
	require.NoError(t, err)
	_, err = users.Create(context.Background(), "admin@example.com", hash, "Admin", user.RoleAdmin)
	require.NoError(t, err)
}

// client keeps the credential a browser or API consumer would carry between
// requests: a bearer token or whatever cookies the server has set.
type client struct {
	t       *testing.T
	router  http.Handler
	token   string
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, router http.Handler) *client {
	return &client{t: t, router: router, cookies: map[string]*http.Cookie{}}
}

func (c *client) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var rdr io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}

	return w
}

func (c *client) login(st auth.SessionType, email, password string) {
	c.t.Helper()
	w := c.do(http.MethodPost, "/api/users/login", gin.H{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token       string `json:"token"`
		SessionType string `json:"sessionType"`
	}
	mustReadJSON(c.t, w, &resp)
	assert.Equal(c.t, string(st), resp.SessionType)

	if st == auth.SessionBearer {
		require.NotEmpty(c.t, resp.Token)
		c.token = resp.Token
	}
}

func mustReadJSON[T any](t *testing.T, w *httptest.ResponseRecorder, out *T) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to unmarshal json: %v, body=%s", err, w.Body.String())
	}
}

var strategies = []auth.SessionType{auth.SessionBearer, auth.SessionCookie, auth.SessionServer}

// The same shopping flow must behave identically whichever strategy is active.
func TestShoppingFlow_AllStrategies(t *testing.T) {
	for _, st := range strategies {
		t.Run(string(st), func(t *testing.T) {
			router, users := setupRouter(t, st)
			seedAdmin(t, users)

			admin := newClient(t, router)
			admin.login(st, "admin@example.com", "admin-pass")

			w := admin.do(http.MethodPost, "/api/products", gin.H{
				"name": "Desk", "price": 600, "countInStock": 2, "category": "office",
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			var desk struct {
				ID string `json:"id"`
			}
			mustReadJSON(t, w, &desk)

			buyer := newClient(t, router)
			w = buyer.do(http.MethodPost, "/api/users/register", gin.H{
				"name": "Ada", "email": "Ada@Example.com", "password": "secret123",
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			buyer = newClient(t, router)
			buyer.login(st, "ada@example.com", "secret123")

			w = buyer.do(http.MethodGet, "/api/users/profile", nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"role":"customer"`)

			address := gin.H{"address": "1 Main St", "city": "Lagos", "postalCode": "100001", "country": "NG"}

			w = buyer.do(http.MethodPost, "/api/orders", gin.H{
				"orderItems":      []gin.H{{"product": desk.ID, "price": 600, "qty": 2}},
				"shippingAddress": address,
			})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

			var placed struct {
				ID            string  `json:"id"`
				ItemsPrice    float64 `json:"itemsPrice"`
				TaxPrice      float64 `json:"taxPrice"`
				ShippingPrice float64 `json:"shippingPrice"`
				TotalPrice    float64 `json:"totalPrice"`
				Status        string  `json:"status"`
			}
			mustReadJSON(t, w, &placed)
			assert.Equal(t, 1200.0, placed.ItemsPrice)
			assert.Equal(t, 60.0, placed.TaxPrice)
			assert.Equal(t, 0.0, placed.ShippingPrice)
			assert.Equal(t, 1260.0, placed.TotalPrice)
			assert.Equal(t, "pending", placed.Status)

			w = buyer.do(http.MethodPost, "/api/orders", gin.H{
				"orderItems":      []gin.H{{"product": desk.ID, "price": 600, "qty": 1}},
				"shippingAddress": address,
			})
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"insufficient_stock"`)

			w = buyer.do(http.MethodGet, "/api/products/"+desk.ID, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"countInStock":0`)

			w = buyer.do(http.MethodGet, "/api/orders", nil)
			assert.Equal(t, http.StatusForbidden, w.Code)

			w = buyer.do(http.MethodGet, "/api/orders/"+placed.ID, nil)
			assert.Equal(t, http.StatusOK, w.Code)

			w = admin.do(http.MethodPut, "/api/orders/"+placed.ID+"/status", gin.H{"status": "shipped"})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"status":"shipped"`)

			w = buyer.do(http.MethodGet, "/api/session/info", nil)
			require.Equal(t, http.StatusOK, w.Code)
			var info struct {
				SessionType     string `json:"sessionType"`
				IsAuthenticated bool   `json:"isAuthenticated"`
			}
			mustReadJSON(t, w, &info)
			assert.Equal(t, string(st), info.SessionType)
			assert.True(t, info.IsAuthenticated)
		})
	}
}

func TestUnauthenticated_AllStrategies(t *testing.T) {
	for _, st := range strategies {
		t.Run(string(st), func(t *testing.T) {
			router, _ := setupRouter(t, st)
			anon := newClient(t, router)

			w := anon.do(http.MethodGet, "/api/users/profile", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)

			w = anon.do(http.MethodGet, "/api/session/info", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), `"isAuthenticated":false`)

			w = anon.do(http.MethodGet, "/api/products", nil)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestLogout_RevokesStatefulCredentials(t *testing.T) {
	for _, st := range []auth.SessionType{auth.SessionCookie, auth.SessionServer} {
		t.Run(string(st), func(t *testing.T) {
			router, users := setupRouter(t, st)
			seedAdmin(t, users)

			c := newClient(t, router)
			c.login(st, "admin@example.com", "admin-pass")

			require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/users/profile", nil).Code)

			w := c.do(http.MethodPost, "/api/session/logout", nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/users/profile", nil).Code)
		})
	}
}

func TestServerSession_ReplayAfterLogoutRejected(t *testing.T) {
	router, users := setupRouter(t, auth.SessionServer)
	seedAdmin(t, users)

	c := newClient(t, router)
	c.login(auth.SessionServer, "admin@example.com", "admin-pass")

	stolen := map[string]*http.Cookie{}
	for k, v := range c.cookies {
		stolen[k] = v
	}

	require.Equal(t, http.StatusOK, c.do(http.MethodPost, "/api/session/logout", nil).Code)

	replay := newClient(t, router)
	replay.cookies = stolen
	assert.Equal(t, http.StatusUnauthorized, replay.do(http.MethodGet, "/api/users/profile", nil).Code)
}

func TestCoupons(t *testing.T) {
	router, users := setupRouter(t, auth.SessionBearer)
	seedAdmin(t, users)

	admin := newClient(t, router)
	admin.login(auth.SessionBearer, "admin@example.com", "admin-pass")

	w := admin.do(http.MethodPost, "/api/offers", gin.H{"title": "Ten off", "code": "save10", "discountPercent": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = admin.do(http.MethodPost, "/api/offers", gin.H{"title": "Dup", "code": "SAVE10", "discountPercent": 5})
	assert.Equal(t, http.StatusConflict, w.Code)

	anon := newClient(t, router)
	w = anon.do(http.MethodPost, "/api/offers/apply", gin.H{"code": "Save10", "itemsPrice": 199.99})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var applied struct {
		Discount float64 `json:"discount"`
		NewTotal float64 `json:"newTotal"`
	}
	mustReadJSON(t, w, &applied)
	assert.Equal(t, 20.0, applied.Discount)
	assert.Equal(t, 179.99, applied.NewTotal)

	w = anon.do(http.MethodPost, "/api/offers/apply", gin.H{"code": "NOPE", "itemsPrice": 10})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = anon.do(http.MethodPost, "/api/offers", gin.H{"title": "x", "code": "X", "discountPercent": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	router, _ := setupRouter(t, auth.SessionBearer)
	c := newClient(t, router)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/readyz", nil).Code)

	w := c.do(http.MethodGet, "/api/products/vendor/my", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
