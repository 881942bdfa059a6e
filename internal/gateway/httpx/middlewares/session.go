package middlewares

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/jcmexdev/storefront/internal/pkg/reqctx"
)

var validSessionID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Session binds the request to the session named by X-Session-ID, minting a
// new id when the header is missing or malformed. The id is echoed back.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(reqctx.HeaderSessionID)
		if !validSessionID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(reqctx.HeaderSessionID, id)
		next.ServeHTTP(w, r.WithContext(reqctx.WithSessionID(r.Context(), id)))
	})
}
