package httpapi

import "net/http"

// corsMiddleware allows any origin to fetch screens and status — the
// server has no cookies or session state to protect, only a bearer config
// token in the query string, so a permissive CORS policy is fine here
// rather than hand-rolling an allowlist this deployment doesn't need.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
