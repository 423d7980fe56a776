package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-voice/internal/domain"
)

type stubUserRepo struct {
	user *domain.User
	err  error
}

func (r *stubUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, _ string) (*domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.user == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *r.user
	return &copied, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, _ string) (*domain.User, error) {
	return r.GetByID(ctx, "")
}

type stubRoleRepo struct {
	role domain.Role
	err  error
}

func (r *stubRoleRepo) Assign(_ context.Context, _ string, _ domain.Role) error { return nil }

func (r *stubRoleRepo) GetByUserID(_ context.Context, _ string) (domain.Role, error) {
	if r.err != nil {
		return "", r.err
	}
	if r.role == "" {
		return "", pgx.ErrNoRows
	}
	return r.role, nil
}

func (r *stubRoleRepo) HasRole(_ context.Context, _ string, role domain.Role) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	return r.role == role, nil
}

func newTestResolver(users *stubUserRepo, roles *stubRoleRepo) (*SessionResolver, *TokenManager) {
	tm := NewTokenManager("test-secret", 60)
	return NewSessionResolver(tm, users, roles, zap.NewNop()), tm
}

func TestResolveLoadsPrincipalWithRole(t *testing.T) {
	users := &stubUserRepo{user: &domain.User{ID: "u1", Name: "Alice", Email: "alice@example.edu"}}
	roles := &stubRoleRepo{role: domain.RoleStaff}
	resolver, _ := newTestResolver(users, roles)

	principal, err := resolver.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.UserID != "u1" || principal.Role != domain.RoleStaff {
		t.Fatalf("principal = %+v", principal)
	}
}

func TestResolveWithoutRoleRow(t *testing.T) {
	users := &stubUserRepo{user: &domain.User{ID: "u1", Name: "Alice"}}
	roles := &stubRoleRepo{} // no role row assigned
	resolver, _ := newTestResolver(users, roles)

	principal, err := resolver.Resolve(context.Background(), "u1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.Role != "" {
		t.Fatalf("Role = %q, want empty for missing role row", principal.Role)
	}

	// The guard treats an empty-role principal like a missing session.
	decision := Authorize(principal, domain.RoleStaff)
	if decision.Allowed || decision.Reason != DenyUnauthenticated || decision.RedirectTo != SignInPath {
		t.Fatalf("decision = %+v, want unauthenticated toward sign-in", decision)
	}
}

func TestResolveUserBackendError(t *testing.T) {
	users := &stubUserRepo{err: errors.New("connection refused")}
	resolver, _ := newTestResolver(users, &stubRoleRepo{})

	if _, err := resolver.Resolve(context.Background(), "u1"); err == nil {
		t.Fatal("expected error when user store is unreachable")
	}
}

func TestResolveRoleBackendError(t *testing.T) {
	users := &stubUserRepo{user: &domain.User{ID: "u1"}}
	roles := &stubRoleRepo{err: errors.New("connection refused")}
	resolver, _ := newTestResolver(users, roles)

	if _, err := resolver.Resolve(context.Background(), "u1"); err == nil {
		t.Fatal("expected error when role store is unreachable")
	}
}

type whoami struct {
	Anonymous bool        `json:"anonymous"`
	UserID    string      `json:"user_id"`
	Role      domain.Role `json:"role"`
}

func newResolverApp(resolver *SessionResolver) *fiber.App {
	app := fiber.New()
	app.Use(resolver.Handle)
	app.Get("/whoami", func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return c.JSON(whoami{Anonymous: true})
		}
		return c.JSON(whoami{UserID: principal.UserID, Role: principal.Role})
	})
	return app
}

func requestWhoami(t *testing.T, app *fiber.App, token string) whoami {
	t.Helper()
	req := httptest.NewRequest("GET", "/whoami", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body whoami
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestHandleResolvesSession(t *testing.T) {
	users := &stubUserRepo{user: &domain.User{ID: "u1", Name: "Alice"}}
	roles := &stubRoleRepo{role: domain.RoleAdmin}
	resolver, tm := newTestResolver(users, roles)
	app := newResolverApp(resolver)

	token, _, err := tm.GenerateToken("u1", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	body := requestWhoami(t, app, token)
	if body.Anonymous || body.UserID != "u1" || body.Role != domain.RoleAdmin {
		t.Fatalf("body = %+v", body)
	}
}

func TestHandleAnonymousWithoutToken(t *testing.T) {
	resolver, _ := newTestResolver(&stubUserRepo{}, &stubRoleRepo{})
	app := newResolverApp(resolver)

	if body := requestWhoami(t, app, ""); !body.Anonymous {
		t.Fatalf("body = %+v, want anonymous", body)
	}
}

func TestHandleAnonymousOnBadToken(t *testing.T) {
	resolver, _ := newTestResolver(&stubUserRepo{}, &stubRoleRepo{})
	app := newResolverApp(resolver)

	if body := requestWhoami(t, app, "not-a-jwt"); !body.Anonymous {
		t.Fatalf("body = %+v, want anonymous", body)
	}
}

func TestHandleAnonymousWhenSubjectGone(t *testing.T) {
	resolver, tm := newTestResolver(&stubUserRepo{}, &stubRoleRepo{})
	app := newResolverApp(resolver)

	// Valid token whose account has since been deleted.
	token, _, err := tm.GenerateToken("u1", domain.RoleStaff)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if body := requestWhoami(t, app, token); !body.Anonymous {
		t.Fatalf("body = %+v, want anonymous", body)
	}
}

func TestHandleAnonymousOnBackendError(t *testing.T) {
	users := &stubUserRepo{err: errors.New("connection refused")}
	resolver, tm := newTestResolver(users, &stubRoleRepo{})
	app := newResolverApp(resolver)

	// A backend outage resolves to no session rather than failing the
	// request; the guard downstream issues the actual denial.
	token, _, err := tm.GenerateToken("u1", domain.RoleStaff)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if body := requestWhoami(t, app, token); !body.Anonymous {
		t.Fatalf("body = %+v, want anonymous", body)
	}
}
