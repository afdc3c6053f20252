package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dukerupert/dokan/internal/domain"
)

// MaxBodySize caps request bodies at maxBytes. Storefront posts are small
// forms (cart lines, the checkout form, the gateway return), so a request
// declaring a larger body is refused with 413 before the handler runs. A
// body that lies about its length fails when the handler parses it.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				respondTooLarge(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func respondTooLarge(w http.ResponseWriter, r *http.Request) {
	const message = "The submitted form is too large."

	GetLogger(r.Context()).Info("request body too large",
		"path", r.URL.Path,
		"content_length", r.ContentLength,
	)

	if acceptsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":    domain.EINVALID,
				"message": message,
			},
		})
		return
	}
	http.Error(w, message, http.StatusRequestEntityTooLarge)
}

// Timeout bounds request processing. When the handler has not started its
// response by then the shopper gets a 503; anything the handler writes
// afterwards is discarded. The request context is cancelled either way, so
// an in-flight backend call is abandoned.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			done := make(chan struct{})
			tw := &timeoutWriter{ResponseWriter: w}

			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()

				tw.timedOut = true
				if !tw.wroteHeader {
					err := domain.Errorf(domain.EUNAVAILABLE, "", "The store took too long to respond. Please try again.")
					respondWithError(w, r, err)
				}
				// A response already under way is left truncated
			}
		})
	}
}

// timeoutWriter guards the response once the deadline has passed.
type timeoutWriter struct {
	http.ResponseWriter
	mu          sync.Mutex
	wroteHeader bool
	timedOut    bool
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.wroteHeader || tw.timedOut {
		return
	}
	tw.wroteHeader = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, context.DeadlineExceeded
	}
	if !tw.wroteHeader {
		tw.wroteHeader = true
		tw.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}
