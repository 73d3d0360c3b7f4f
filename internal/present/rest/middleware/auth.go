package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/present/rest/presenter"
	"github.com/yumetria/tsudoi/internal/service"
)

var tracer = otel.Tracer("auth")

type AuthMiddleware struct {
	auth *service.AuthService
}

func NewAuthMiddleware(auth *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
	}
}

// RequireIdentity extracts the token from the first populated presentation
// channel (authorization, activation or recovery header), resolves the
// identity it authorizes, and stores it on the request context. The route
// is rejected outright when no valid credential is presented.
func (s *AuthMiddleware) RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.RequireIdentity")
		defer span.End()

		header := c.Request().Header
		tokenString, err := s.auth.ExtractToken(
			header.Get(domain.HeaderAuthorization),
			header.Get(domain.HeaderActivation),
			header.Get(domain.HeaderRecovery),
		)
		if err != nil {
			span.RecordError(err)
			return presenter.Error(c, err)
		}

		identity, err := s.auth.ResolveCurrentUser(ctx, tokenString)
		if err != nil {
			span.RecordError(err)
			return presenter.Error(c, err)
		}

		span.SetAttributes(attribute.String("RequesterEmail", identity.User.Email))
		ctx = context.WithValue(ctx, domain.IdentityCtxKey, identity)

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// IdentityFromContext returns the identity stored by RequireIdentity.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(domain.IdentityCtxKey).(domain.Identity)
	return identity, ok
}
