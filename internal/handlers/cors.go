package handlers

import (
	"net/http"
	"strings"
)

// CORSConfig controls the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string
	// AllowLocalhost admits any localhost/127.0.0.1 origin regardless of port.
	// Enabled in development environments only.
	AllowLocalhost bool
}

// CORS returns a middleware answering preflight requests and stamping the
// allow headers for configured origins.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed[strings.ToLower(origin)] = true
		}
	}

	originAllowed := func(origin string) bool {
		origin = strings.ToLower(strings.TrimRight(origin, "/"))
		if origin == "" {
			return false
		}
		if allowed[origin] {
			return true
		}
		if cfg.AllowLocalhost && isLocalhostOrigin(origin) {
			return true
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if originAllowed(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
				if r.Method == http.MethodOptions {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
					h.Set("Access-Control-Max-Age", "600")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLocalhostOrigin(origin string) bool {
	for _, prefix := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if origin == prefix || strings.HasPrefix(origin, prefix+":") {
			return true
		}
	}
	return false
}
