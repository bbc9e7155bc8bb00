package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/belldesk-backend/pkg/logger"
)

const staffCodeHeader = "X-Staff-Code"

// StaffCode copies the optional operator code sent by the desk UI into the
// request context and the log fields. Requests without it pass through.
func StaffCode(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := strings.TrimSpace(r.Header.Get(staffCodeHeader))
			if code == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(code) > 64 {
				code = code[:64]
			}
			ctx := WithStaffCode(r.Context(), code)
			if logg != nil {
				ctx = logg.WithStaffCode(ctx, code)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
