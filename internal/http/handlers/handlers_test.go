package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/domain/user"
	"github.com/geocoder89/shopsphere/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// as stands in for the auth middleware in handler tests.
func as(u user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := auth.Identity{
			Principal: auth.Principal{UserID: u.ID, Role: u.Role, SessionType: auth.SessionBearer},
			User:      u,
		}
		c.Set(middlewares.CtxPrincipal, id.Principal)
		c.Set(middlewares.CtxIdentity, id)
		c.Next()
	}
}

var (
	customer = user.User{ID: "cust-1", Name: "Ada", Email: "ada@example.com", Role: user.RoleCustomer}
	vendor   = user.User{ID: "vend-1", Name: "Vic", Email: "vic@example.com", Role: user.RoleVendor}
	admin    = user.User{ID: "admin-1", Name: "Root", Email: "root@example.com", Role: user.RoleAdmin}
)

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body: %v, body=%s", err, w.Body.String())
	}
	return env
}

// fakeStrategy issues a fixed token and never authenticates anything.
type fakeStrategy struct {
	token   string
	revoked bool
}

func (f *fakeStrategy) Type() auth.SessionType { return auth.SessionBearer }

func (f *fakeStrategy) Authenticate(context.Context, *http.Request) (auth.Identity, error) {
	return auth.Identity{}, &auth.Failure{Reason: auth.ReasonNoToken}
}

func (f *fakeStrategy) Establish(context.Context, http.ResponseWriter, user.User) (string, error) {
	return f.token, nil
}

func (f *fakeStrategy) Revoke(context.Context, http.ResponseWriter, *http.Request) (string, error) {
	f.revoked = true
	return "Logged out", nil
}

func (f *fakeStrategy) Describe(*http.Request) map[string]any {
	return map[string]any{"method": "fake"}
}

func hasFieldError(env errorEnvelope, field string) bool {
	fields, _ := env.Error.Details["fields"].([]any)
	for _, f := range fields {
		if m, ok := f.(map[string]any); ok && m["field"] == field {
			return true
		}
	}
	return false
}
