package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flyroom/flyroom/pkg/composables"
	"github.com/flyroom/flyroom/pkg/types"
)

// ProvidePool makes the pgx pool available to repositories via the context.
func ProvidePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := composables.WithPool(r.Context(), pool)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProvideIdentity trusts the identity headers set by the auth gateway in
// front of this service and attaches tenant and user to the context.
// Requests without a tenant are rejected before reaching any handler.
func ProvideIdentity() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := uuid.Parse(r.Header.Get("X-Tenant-ID"))
			if err != nil {
				http.Error(w, "missing or invalid tenant", http.StatusUnauthorized)
				return
			}
			userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
			if err != nil {
				http.Error(w, "missing or invalid user", http.StatusUnauthorized)
				return
			}
			u := &types.User{
				ID:    userID,
				Email: r.Header.Get("X-User-Email"),
				Role:  types.Role(r.Header.Get("X-User-Role")),
			}

			ctx := composables.WithTenantID(r.Context(), tenantID)
			ctx = composables.WithUser(ctx, u)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
