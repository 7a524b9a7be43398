package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RaythaHQ/ticket-system-sub001/internal/api/dto"
	"github.com/RaythaHQ/ticket-system-sub001/internal/service"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

// AuthHandler exposes staff login.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginStaff authenticates a staff member and issues a token.
func (h *AuthHandler) LoginStaff(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password are required", nil)
	}

	staff, token, expiresAt, err := h.auth.LoginStaff(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		StaffID:   staff.ID,
		Role:      string(staff.Role),
	})
}
