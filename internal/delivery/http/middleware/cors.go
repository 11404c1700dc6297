package middleware

import (
	"net/http"
	"strings"
)

const (
	allowMethods    = "GET, POST, PATCH, PUT, DELETE, OPTIONS"
	allowHeaders    = "Authorization, Content-Type, Accept"
	preflightMaxAge = "86400"
)

// CORS answers preflight requests and adds the allow headers for origins on
// the list. Origins are compared after trimming whitespace and any trailing
// slash; requests from unlisted origins pass through without CORS headers.
func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimSuffix(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		_, ok := allowed[origin]

		if r.Method == http.MethodOptions {
			if ok {
				hdr := w.Header()
				hdr.Set("Access-Control-Allow-Origin", origin)
				hdr.Set("Access-Control-Allow-Methods", allowMethods)
				hdr.Set("Access-Control-Allow-Headers", allowHeaders)
				hdr.Set("Access-Control-Max-Age", preflightMaxAge)
				hdr.Set("Access-Control-Allow-Credentials", "true")
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(&corsResponseWriter{ResponseWriter: w, origin: origin}, r)
	})
}

// corsResponseWriter stamps the allow headers just before the status line is
// written, after the handler has set its own headers.
type corsResponseWriter struct {
	http.ResponseWriter
	origin string
}

func (w *corsResponseWriter) WriteHeader(code int) {
	w.Header().Set("Access-Control-Allow-Origin", w.origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.ResponseWriter.WriteHeader(code)
}
