package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/reeltrack/reeltrack/internal/handler/dto"
)

// Recoverer recovers from panics, logs them with the stack and returns a 500.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				writeError(w, http.StatusInternalServerError, dto.CodeInternal, "Internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
