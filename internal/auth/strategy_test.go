package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/shopsphere/internal/domain/user"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]user.User
	reads int
	err   error
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reads++
	if f.err != nil {
		return user.User{}, f.err
	}

	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

type fakeSessions struct {
	mu        sync.Mutex
	data      map[string]string
	destroyed []string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: map[string]string{}}
}

func (f *fakeSessions) Create(_ context.Context, userID string) (string, error) {
	sid, err := NewSessionID()
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[sid] = userID
	return sid, nil
}

func (f *fakeSessions) Lookup(_ context.Context, sid string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.data[sid]
	return id, ok, nil
}

func (f *fakeSessions) Destroy(_ context.Context, sid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, sid)
	f.destroyed = append(f.destroyed, sid)
	return nil
}

var alice = user.User{ID: "u-alice", Name: "Alice", Email: "alice@example.com", Role: user.RoleVendor}

func newOptions(t SessionType, users *fakeUsers, sessions *fakeSessions) Options {
	return Options{
		Type:          t,
		Tokens:        NewTokenManager("jwt-secret", time.Hour),
		CookieSigner:  NewCookieSigner("cookie-secret"),
		SessionSigner: NewCookieSigner("session-secret"),
		Sessions:      sessions,
		Users:         users,
	}
}

func newUsers() *fakeUsers {
	return &fakeUsers{users: map[string]user.User{alice.ID: alice}}
}

// login runs Establish and returns a request that carries the resulting credential.
func login(t *testing.T, s Strategy, u user.User) *http.Request {
	t.Helper()

	rec := httptest.NewRecorder()
	token, err := s.Establish(context.Background(), rec, u)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	if s.Type() == SessionBearer {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()

	var f *Failure
	if !errors.As(err, &f) {
		t.Fatalf("expected *Failure, got %T %v", err, err)
	}
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("failure should unwrap to ErrUnauthenticated")
	}
	return f.Reason
}

func TestNewStrategy_SelectsImplementation(t *testing.T) {
	cases := map[SessionType]any{
		SessionBearer: &BearerStrategy{},
		SessionCookie: &CookieStrategy{},
		SessionServer: &SessionStrategy{},
	}

	for typ, want := range cases {
		s, err := NewStrategy(newOptions(typ, newUsers(), newFakeSessions()))
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if s.Type() != typ {
			t.Fatalf("expected %s, got %s", typ, s.Type())
		}
		switch want.(type) {
		case *BearerStrategy:
			if _, ok := s.(*BearerStrategy); !ok {
				t.Fatalf("expected bearer strategy, got %T", s)
			}
		case *CookieStrategy:
			if _, ok := s.(*CookieStrategy); !ok {
				t.Fatalf("expected cookie strategy, got %T", s)
			}
		case *SessionStrategy:
			if _, ok := s.(*SessionStrategy); !ok {
				t.Fatalf("expected session strategy, got %T", s)
			}
		}
	}

	if _, err := NewStrategy(newOptions("oauth", newUsers(), nil)); !errors.Is(err, ErrInvalidSessionType) {
		t.Fatalf("expected ErrInvalidSessionType, got %v", err)
	}
}

func TestStrategies_EquivalentPrincipals(t *testing.T) {
	var got []Principal

	for _, typ := range []SessionType{SessionBearer, SessionCookie, SessionServer} {
		s, err := NewStrategy(newOptions(typ, newUsers(), newFakeSessions()))
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}

		id, err := s.Authenticate(context.Background(), login(t, s, alice))
		if err != nil {
			t.Fatalf("%s: authenticate: %v", typ, err)
		}
		if id.Principal.SessionType != typ {
			t.Fatalf("expected tag %s, got %s", typ, id.Principal.SessionType)
		}
		if id.User.ID != alice.ID {
			t.Fatalf("unexpected user %q", id.User.ID)
		}
		got = append(got, id.Principal)
	}

	for _, p := range got[1:] {
		p.SessionType = got[0].SessionType
		if p != got[0] {
			t.Fatalf("principals differ beyond session type: %+v vs %+v", p, got[0])
		}
	}
}

func TestBearer_AuthenticateIsIdempotent(t *testing.T) {
	users := newUsers()
	s, _ := NewStrategy(newOptions(SessionBearer, users, nil))
	req := login(t, s, alice)

	first, err := s.Authenticate(context.Background(), req)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := s.Authenticate(context.Background(), req)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if first.Principal != second.Principal {
		t.Fatalf("principals differ: %+v vs %+v", first.Principal, second.Principal)
	}
	if users.reads != 2 {
		t.Fatalf("expected exactly one read per call, got %d", users.reads)
	}
}

func TestBearer_Failures(t *testing.T) {
	users := newUsers()
	s, _ := NewStrategy(newOptions(SessionBearer, users, nil))
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := s.Authenticate(ctx, req)
	if reasonOf(t, err) != ReasonNoToken {
		t.Fatalf("unexpected reason for missing header: %v", err)
	}

	req.Header.Set("Authorization", "Basic abc")
	_, err = s.Authenticate(ctx, req)
	if reasonOf(t, err) != ReasonNoToken {
		t.Fatalf("unexpected reason for non-bearer header: %v", err)
	}

	req.Header.Set("Authorization", "Bearer nope")
	_, err = s.Authenticate(ctx, req)
	if reasonOf(t, err) != ReasonTokenFailed {
		t.Fatalf("unexpected reason for bad token: %v", err)
	}

	valid := login(t, s, alice)
	users.delete(alice.ID)
	_, err = s.Authenticate(ctx, valid)
	if reasonOf(t, err) != ReasonUserNotFound {
		t.Fatalf("unexpected reason for deleted user: %v", err)
	}
}

func TestBearer_InfrastructureErrorIsNotFailure(t *testing.T) {
	users := newUsers()
	s, _ := NewStrategy(newOptions(SessionBearer, users, nil))
	req := login(t, s, alice)

	users.err = errors.New("db down")

	_, err := s.Authenticate(context.Background(), req)
	if err == nil || errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected infrastructure error, got %v", err)
	}
}

func TestCookie_EstablishSetsSignedCookie(t *testing.T) {
	s, _ := NewStrategy(newOptions(SessionCookie, newUsers(), nil))

	rec := httptest.NewRecorder()
	token, err := s.Establish(context.Background(), rec, alice)
	if err != nil {
		t.Fatalf("establish: %v", err)
	}
	if token == "" {
		t.Fatalf("cookie strategy should still return the token")
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != TokenCookieName {
		t.Fatalf("expected one %s cookie, got %+v", TokenCookieName, cookies)
	}
	c := cookies[0]
	if !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie flags not set: %+v", c)
	}
	if c.Value == token {
		t.Fatalf("cookie value must be signed")
	}
}

func TestCookie_RejectsTamperedCookie(t *testing.T) {
	s, _ := NewStrategy(newOptions(SessionCookie, newUsers(), nil))
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := s.Authenticate(ctx, req)
	if reasonOf(t, err) != ReasonNoCookieToken {
		t.Fatalf("unexpected reason: %v", err)
	}

	token, _ := NewTokenManager("jwt-secret", time.Hour).Issue(alice.ID)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})
	_, err = s.Authenticate(ctx, req)
	if reasonOf(t, err) != ReasonNoCookieToken {
		t.Fatalf("unsigned cookie must be rejected: %v", err)
	}

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: TokenCookieName, Value: NewCookieSigner("cookie-secret").Sign("garbage")})
	_, err = s.Authenticate(ctx, forged)
	if reasonOf(t, err) != ReasonTokenFailed {
		t.Fatalf("signed garbage must fail verification: %v", err)
	}
}

func TestCookie_RevokeClearsCookie(t *testing.T) {
	s, _ := NewStrategy(newOptions(SessionCookie, newUsers(), nil))

	rec := httptest.NewRecorder()
	msg, err := s.Revoke(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if msg != "Logged out. Cookie cleared." {
		t.Fatalf("unexpected message %q", msg)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %+v", cookies)
	}
}

func TestSession_LifeCycle(t *testing.T) {
	sessions := newFakeSessions()
	s, _ := NewStrategy(newOptions(SessionServer, newUsers(), sessions))
	ctx := context.Background()

	req := login(t, s, alice)
	if len(sessions.data) != 1 {
		t.Fatalf("expected one stored session, got %d", len(sessions.data))
	}

	if _, err := s.Authenticate(ctx, req); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	msg, err := s.Revoke(ctx, httptest.NewRecorder(), req)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if msg != "Logged out. Session destroyed." {
		t.Fatalf("unexpected message %q", msg)
	}
	if len(sessions.data) != 0 {
		t.Fatalf("session should be destroyed")
	}

	_, err = s.Authenticate(ctx, req)
	if reasonOf(t, err) != ReasonNoSession {
		t.Fatalf("unexpected reason after logout: %v", err)
	}
}

func TestSession_DeletedUserDestroysSession(t *testing.T) {
	users := newUsers()
	sessions := newFakeSessions()
	s, _ := NewStrategy(newOptions(SessionServer, users, sessions))

	req := login(t, s, alice)
	users.delete(alice.ID)

	_, err := s.Authenticate(context.Background(), req)
	if reasonOf(t, err) != ReasonUserNotFound {
		t.Fatalf("unexpected reason: %v", err)
	}
	if len(sessions.destroyed) != 1 || len(sessions.data) != 0 {
		t.Fatalf("orphaned session should be destroyed, destroyed=%v remaining=%d", sessions.destroyed, len(sessions.data))
	}
}

func TestSession_RejectsForgedSessionID(t *testing.T) {
	sessions := newFakeSessions()
	s, _ := NewStrategy(newOptions(SessionServer, newUsers(), sessions))

	sid, _ := sessions.Create(context.Background(), alice.ID)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sid})

	_, err := s.Authenticate(context.Background(), req)
	if reasonOf(t, err) != ReasonNoSession {
		t.Fatalf("unsigned session id must be rejected: %v", err)
	}
}

func TestBearer_RevokeIsClientSide(t *testing.T) {
	s, _ := NewStrategy(newOptions(SessionBearer, newUsers(), nil))
	req := login(t, s, alice)

	rec := httptest.NewRecorder()
	if _, err := s.Revoke(context.Background(), rec, req); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatalf("bearer revoke should not touch cookies")
	}

	if _, err := s.Authenticate(context.Background(), req); err != nil {
		t.Fatalf("token remains valid until expiry: %v", err)
	}
}

type namedSessions struct {
	*fakeSessions
	backend string
}

func (n namedSessions) Backend() string { return n.backend }

func TestSession_DescribeReportsInjectedStore(t *testing.T) {
	opts := newOptions(SessionServer, newUsers(), newFakeSessions())
	s, _ := NewStrategy(opts)

	req := login(t, s, alice)
	d := s.Describe(req)
	if _, ok := d["storage"]; ok {
		t.Fatalf("unnamed store must not report storage, got %v", d["storage"])
	}
	if d["sessionPresent"] != true {
		t.Fatalf("expected sessionPresent, got %v", d)
	}

	opts.Sessions = namedSessions{fakeSessions: newFakeSessions(), backend: "memory"}
	s, _ = NewStrategy(opts)
	if got := s.Describe(httptest.NewRequest(http.MethodGet, "/", nil))["storage"]; got != "memory" {
		t.Fatalf("expected memory storage, got %v", got)
	}
}
