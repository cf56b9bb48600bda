package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Simplici0/edmtrack/internal/store"
)

type fakeUsers map[string]store.User

func (f fakeUsers) UserByEmail(_ context.Context, email string) (store.User, error) {
	u, ok := f[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := fakeUsers{"op@shop.test": {Email: "op@shop.test", Name: "Ravi", Role: store.RoleOperator, PasswordHash: hash}}
	return NewService(users, "test-secret", time.Hour)
}

func TestLoginAndVerify(t *testing.T) {
	svc := newTestService(t)

	token, expires, p, err := svc.Login(context.Background(), "op@shop.test", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if p.Role != store.RoleOperator || expires.IsZero() {
		t.Fatalf("unexpected principal %+v expires %v", p, expires)
	}

	got, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != p {
		t.Fatalf("verify = %+v, want %+v", got, p)
	}
}

func TestLogin_RejectsBadPasswordAndUnknownUser(t *testing.T) {
	svc := newTestService(t)
	if _, _, _, err := svc.Login(context.Background(), "op@shop.test", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("bad password: %v", err)
	}
	if _, _, _, err := svc.Login(context.Background(), "ghost@shop.test", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: %v", err)
	}
}

func TestVerify_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := newTestService(t)
	token, _, err := svc.Issue(Principal{Email: "a@b.c", Role: store.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expired token accepted: %v", err)
	}

	other := NewService(fakeUsers{}, "other-secret", time.Hour)
	foreign, _, err := other.Issue(Principal{Email: "a@b.c", Role: store.RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	svc.Now = time.Now
	if _, err := svc.Verify(foreign); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("foreign token accepted: %v", err)
	}
}

func TestPrincipalCan(t *testing.T) {
	admin := Principal{Role: store.RoleAdmin}
	op := Principal{Role: store.RoleOperator}
	if !admin.Can(store.RoleProgrammer) || !op.Can(store.RoleOperator) || op.Can(store.RoleProgrammer) {
		t.Fatalf("role checks mismatch")
	}
}

func TestBearerToken(t *testing.T) {
	if tok, ok := BearerToken("Bearer abc"); !ok || tok != "abc" {
		t.Fatalf("BearerToken = %q %v", tok, ok)
	}
	if _, ok := BearerToken("Basic abc"); ok {
		t.Fatalf("basic scheme accepted")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{Email: "x@y.z", Role: store.RoleProgrammer})
	p, ok := FromContext(ctx)
	if !ok || p.Email != "x@y.z" {
		t.Fatalf("FromContext = %+v %v", p, ok)
	}
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("empty context returned a principal")
	}
}
