package presenter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/password"
)

type errorResponse struct {
	Error string `json:"error"`
}

// forbidden is the request-scoped rejection family: every entry surfaces
// as 403 with its own message and nothing more.
var forbidden = []error{
	domain.ErrMissingCredential,
	domain.ErrInvalidCredential,
	domain.ErrExpired,
	domain.ErrTokenAlreadyUsed,
	domain.ErrNotAnInvitation,
	domain.ErrInvitationMismatch,
	domain.ErrNotAuthorized,
	domain.ErrAlreadyInGroup,
	domain.ErrNotInGroup,
	domain.ErrOwnerRoleUnique,
	domain.ErrCannotKickOwner,
	domain.ErrCoOwnerKickCoOwner,
	domain.ErrUserAlreadyExists,
	domain.ErrInvalidActivation,
	domain.ErrInvalidRecovery,
	domain.ErrWrongPassword,
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	fmt.Println("Bad request:", err)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	fmt.Println("Bad request:", msg)
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	fmt.Println("Not found:", msg)
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func InternalError(c echo.Context, err error) error {
	fmt.Println("Internal error:", err)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// Error maps a domain rejection to its HTTP shape. Everything outside the
// taxonomy is an internal error.
func Error(c echo.Context, err error) error {
	for _, sentinel := range forbidden {
		if errors.Is(err, sentinel) {
			return c.JSON(http.StatusForbidden, errorResponse{Error: sentinel.Error()})
		}
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	if errors.Is(err, password.ErrTooShort) {
		return BadRequest(c, err)
	}
	return InternalError(c, err)
}
