package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-voice/internal/domain"
	"github.com/spec-kit/campus-voice/internal/repository"
)

const principalKey = "auth_principal"

// Principal is the authenticated caller: identity plus its single role.
// Role is empty when the account has no role row assigned.
type Principal struct {
	UserID string
	Name   string
	Email  string
	Role   domain.Role
}

// SessionResolver turns a bearer token into a Principal. It re-reads the
// user and role rows on every protected request rather than trusting the
// token's role claim, so an external sign-out or role removal takes effect
// on the next request.
type SessionResolver struct {
	tokens *TokenManager
	users  repository.UserRepository
	roles  repository.RoleRepository
	logger *zap.Logger
}

// NewSessionResolver constructs the resolver.
func NewSessionResolver(tokens *TokenManager, users repository.UserRepository, roles repository.RoleRepository, logger *zap.Logger) *SessionResolver {
	return &SessionResolver{tokens: tokens, users: users, roles: roles, logger: logger}
}

// Handle resolves the session, if any, and stores the Principal in request
// locals. It never rejects the request itself: an absent, invalid, or
// unresolvable session leaves the request anonymous and the guard denies it.
// Backend failures resolve to anonymous as well but are logged as errors so
// they stay distinguishable from a plain signed-out caller.
func (r *SessionResolver) Handle(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Next()
	}

	claims, err := r.tokens.ParseToken(token)
	if err != nil {
		r.logger.Debug("session token rejected", zap.Error(err))
		return c.Next()
	}

	principal, err := r.Resolve(c.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("session subject no longer exists", zap.String("user_id", claims.UserID))
		} else {
			r.logger.Error("session resolution failed", zap.Error(err))
		}
		return c.Next()
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// Resolve loads the principal and its role row. A user without a role row
// resolves to a Principal with an empty Role.
func (r *SessionResolver) Resolve(ctx context.Context, userID string) (*Principal, error) {
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	principal := &Principal{UserID: user.ID, Name: user.Name, Email: user.Email}

	role, err := r.roles.GetByUserID(ctx, user.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return principal, nil
		}
		return nil, err
	}
	principal.Role = role

	return principal, nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
