package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/facegate/facegate/internal/database"
)

type contextKey string

const actionContextKey contextKey = "audit-action"

// defaultAction is recorded when a handler does not set a specific one.
const defaultAction = "api_request"

// actionHolder lets handlers report what happened after the middleware has
// already wrapped the request.
type actionHolder struct {
	action string
}

// SetAction records the audit action for the current request, e.g.
// "user_created" or "face_recognized".
func SetAction(ctx context.Context, action string) {
	if holder, ok := ctx.Value(actionContextKey).(*actionHolder); ok {
		holder.action = action
	}
}

// clientIP extracts the caller address, trusting chi's RealIP middleware to
// have rewritten RemoteAddr already.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Audit returns middleware that writes one history row per API request.
// Recording happens after the response so handlers can set the action.
func Audit(history database.HistoryRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			holder := &actionHolder{action: defaultAction}
			ctx := context.WithValue(r.Context(), actionContextKey, holder)

			next.ServeHTTP(w, r.WithContext(ctx))

			entry := &database.HistoryEntry{
				Action:    holder.action,
				Method:    r.Method,
				Endpoint:  r.URL.Path,
				IP:        clientIP(r),
				UserAgent: r.UserAgent(),
			}

			// The request context may be gone once the client disconnects;
			// the audit write gets its own deadline.
			recordCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := history.Record(recordCtx, entry); err != nil {
				slog.Error("failed to record audit entry", "error", err, "endpoint", r.URL.Path)
			}
		})
	}
}
