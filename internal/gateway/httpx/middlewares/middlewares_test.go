package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcmexdev/storefront/internal/pkg/reqctx"
)

func TestSession(t *testing.T) {
	var seen string
	h := Session(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = reqctx.SessionID(r.Context())
	}))

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"missing", "", false},
		{"valid", "shopper_42", true},
		{"malformed", "../../etc", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cart", nil)
			if tt.header != "" {
				req.Header.Set(reqctx.HeaderSessionID, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.NotEmpty(t, seen)
			assert.Equal(t, seen, rec.Header().Get(reqctx.HeaderSessionID))
			if tt.keep {
				assert.Equal(t, tt.header, seen)
			} else {
				assert.NotEqual(t, tt.header, seen)
			}
		})
	}
}

func TestAttachTracingMetadata_StoresIdempotencyKey(t *testing.T) {
	var key string
	h := AttachTracingMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = reqctx.IdempotencyKey(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout/place-order", nil)
	req.Header.Set(reqctx.HeaderIdempotencyKey, "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "abc", key)
}
