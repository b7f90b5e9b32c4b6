package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/utils/tokens"
)

// UserContextKey holds the authenticated *model.User.
const UserContextKey = "user"

// UserAuth authenticates requests using user bearer tokens. The token must
// verify against the pepper and name an active user, which is set in the
// context. It also sets the user_id attribute on the current span.
func UserAuth(cfg *config.Config, users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		ctx, authSpan := otel.Tracer("middleware").Start(ctx, "user_auth",
			trace.WithAttributes(attribute.String("middleware", "user_auth")))

		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")

		userID, ok := tokens.ParseUserToken(raw, cfg.Auth.TokenPrefix, cfg.Auth.SecretPepper)
		if !ok {
			authSpan.SetAttributes(attribute.Bool("authenticated", false))
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}

		user, err := users.Authenticate(ctx, userID)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrUserInactive) {
				authSpan.SetAttributes(attribute.Int64("user_id", int64(userID)), attribute.Bool("authenticated", false))
				authSpan.End()
				c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
				return
			}
			authSpan.RecordError(err)
			authSpan.End()
			c.AbortWithStatusJSON(http.StatusInternalServerError, serializer.DBErr("", err))
			return
		}

		// Set user_id attribute on the current span for telemetry filtering
		rootSpan := trace.SpanFromContext(c.Request.Context())
		if rootSpan.SpanContext().IsValid() {
			rootSpan.SetAttributes(attribute.Int64("user_id", int64(user.ID)))
		}

		authSpan.SetAttributes(
			attribute.Int64("user_id", int64(user.ID)),
			attribute.Bool("authenticated", true),
		)
		authSpan.End()

		c.Set(UserContextKey, user)
		c.Next()
	}
}
