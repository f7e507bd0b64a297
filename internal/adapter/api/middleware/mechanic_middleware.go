package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"roadmech/internal/domain/repository"
)

type MechanicMiddleware struct {
	userRepo repository.UserRepository
}

func NewMechanicMiddleware(userRepo repository.UserRepository) *MechanicMiddleware {
	return &MechanicMiddleware{
		userRepo: userRepo,
	}
}

// MechanicOnly gates mechanic-facing routes. Approval is NOT checked here;
// unapproved mechanics still manage their own profile and documents, and
// the usecases gate the operations that need approval.
func (m *MechanicMiddleware) MechanicOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		uid, ok := c.Get("uid").(string)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}

		user, err := m.userRepo.GetByID(c.Request().Context(), uid)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to verify mechanic role")
		}

		if !user.IsMechanic() {
			return echo.NewHTTPError(http.StatusForbidden, "Mechanic account required")
		}

		return next(c)
	}
}
