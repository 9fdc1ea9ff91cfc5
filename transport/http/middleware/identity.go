package middleware

import (
	"context"
	"net/http"

	"lendit/infras/otel"
	"lendit/shared/constant"
	"lendit/shared/failure"
	"lendit/transport/http/response"
)

// Identity resolves the acting user for a request. The service trusts an
// upstream gateway to authenticate users and forward their id in the
// X-Sharer-User-Id header.
type Identity interface {
	Require(next http.Handler) http.Handler
}

type identityImpl struct {
	otel otel.Otel
}

func NewIdentityMiddleware(otel otel.Otel) Identity {
	return &identityImpl{
		otel: otel,
	}
}

// Require rejects requests without a caller id and puts the id on the
// request context for downstream handlers.
func (m *identityImpl) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		ctx := request.Context()
		_, scope := m.otel.NewScope(ctx, constant.OtelHandlerScopeName, "identity.middleware")

		userID := request.Header.Get(constant.RequestHeaderSharerUserID)
		if userID == "" {
			err := failure.Unauthorized("missing " + constant.RequestHeaderSharerUserID + " header")
			response.WithError(writer, err)

			scope.TraceError(err)
			scope.End()

			return
		}

		ctx = context.WithValue(ctx, constant.ContextKeyUserID, userID)

		scope.End()

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}
