package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/sooqly/sooqly-backend/api/responses"
	pkgerrors "github.com/sooqly/sooqly-backend/pkg/errors"
	"github.com/sooqly/sooqly-backend/pkg/logger"
)

const userIDHeader = "X-User-Id"

// Identity resolves the caller from the trusted gateway header. The edge
// proxy terminates authentication and forwards the verified user id; this
// service only refuses requests that arrive without one.
func Identity(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get(userIDHeader))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing"))
				return
			}
			userID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user identity"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			if logg != nil {
				ctx = logg.WithField(ctx, "user_id", userID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
