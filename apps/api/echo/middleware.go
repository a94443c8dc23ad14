package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// dashboardMiddleware lets teachers and admins through and stores their profile in the context.
func dashboardMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		prof, err := getContextProfile(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context profile")
		}
		if !prof.CanViewDashboard() {
			return errHttpForbidden
		}
		return next(ctx)
	}
}

func adminMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			prof, err := getContextProfile(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context profile")
			}
			if prof.IsAdmin() && contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
