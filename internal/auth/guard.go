package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-voice/internal/domain"
	apperrors "github.com/spec-kit/campus-voice/pkg/util"
)

// DenyReason classifies why access was refused.
type DenyReason string

const (
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyWrongRole       DenyReason = "wrong_role"
)

// SignInPath is the role-neutral sign-in route used when there is no session
// to derive a dashboard from.
const SignInPath = "/login"

// Decision is the guard's verdict for one route mount. RedirectTo is the UX
// hint for denied callers; the real access boundary is the backend's own
// row-level enforcement.
type Decision struct {
	Allowed    bool
	Reason     DenyReason
	RedirectTo string
}

// Authorize gates a route requiring one of the given roles. A nil principal
// or one with no role row is denied toward sign-in; an authenticated
// principal with the wrong role is denied toward its own dashboard.
func Authorize(principal *Principal, required ...domain.Role) Decision {
	if principal == nil || principal.Role == "" {
		return Decision{Reason: DenyUnauthenticated, RedirectTo: SignInPath}
	}
	for _, role := range required {
		if principal.Role == role {
			return Decision{Allowed: true}
		}
	}
	return Decision{Reason: DenyWrongRole, RedirectTo: domain.DashboardPath(principal.Role)}
}

// RequireRole wraps protected routes. The handler chain never runs on a
// deny: the decision strictly precedes the protected handler.
func RequireRole(required ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		decision := Authorize(principal, required...)
		if decision.Allowed {
			return c.Next()
		}
		switch decision.Reason {
		case DenyWrongRole:
			return apperrors.NewWrongRole(decision.RedirectTo)
		default:
			return apperrors.NewUnauthenticated("sign in required")
		}
	}
}
