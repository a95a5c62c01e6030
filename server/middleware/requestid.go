package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/validation"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

// RequestID assigns every request an id. A client-supplied X-Request-Id is
// kept when it is a UUID; anything else is replaced. The id is echoed in the
// response and stored in the request context for logger.WithContext.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || validation.New().OptionalUUID("request_id", id).HasErrors() {
				id = uuid.NewString()
			}
			r.Header.Set(HeaderRequestID, id)
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
		})
	}
}
