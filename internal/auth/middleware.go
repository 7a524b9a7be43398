package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	"github.com/RaythaHQ/ticket-system-sub001/internal/repository"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Staff       *domain.StaffMember
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	staff  repository.StaffRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, staff repository.StaffRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	if claims.Subject != domain.SubjectTypeStaff {
		return apperrors.NewForbidden("staff token required")
	}

	staff, err := m.staff.GetByID(c.Context(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("staff not found")
		}
		return apperrors.MapError(err)
	}
	if !staff.Active {
		return apperrors.NewForbidden("staff inactive")
	}

	c.Locals(principalKey, &Principal{SubjectType: domain.SubjectTypeStaff, Staff: staff})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal, if any.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil
}

// StaffFromContext returns the staff member behind the request.
func StaffFromContext(c *fiber.Ctx) (*domain.StaffMember, bool) {
	principal, ok := PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, false
	}
	return principal.Staff, true
}

// RequireManageTickets ensures the caller holds the manage-tickets
// capability.
func RequireManageTickets() fiber.Handler {
	return func(c *fiber.Ctx) error {
		staff, ok := StaffFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !staff.CanManageTickets() {
			return apperrors.NewForbidden("manage tickets capability required")
		}
		return c.Next()
	}
}
