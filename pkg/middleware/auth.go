package middleware

import (
	"net/http"
	"strings"

	"booking-engine/pkg/auth"
	"booking-engine/pkg/authz"
	"booking-engine/pkg/utils"

	"go.uber.org/zap"
)

// JWT validates the operator bearer token and stores the principal in the context.
func JWT(cfg utils.JWTConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := auth.ParseValidate(cfg.Secret, cfg.Issuer, token)
			if err != nil {
				logger.Warn("Rejected operator token", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetPrincipalContext(r.Context(), utils.Principal{
				Subject: claims.Sub,
				Role:    claims.Role,
				Email:   claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission checks the principal's role against the policy.
func RequirePermission(policy authz.Policy, perm authz.Permission, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := utils.GetPrincipalFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !policy.Allowed(principal.Role, perm) {
				logger.Warn("Permission denied",
					zap.String("subject", principal.Subject),
					zap.String("role", principal.Role),
					zap.String("permission", string(perm)),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "Permission denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
