package server

import (
	"net/http"
	"strings"
)

// SecurityConfig holds the response headers policy and the per-request
// render budget.
type SecurityConfig struct {
	EnableCORS     bool
	AllowedOrigins []string
	AllowedMethods []string
	// MaxPixels bounds w*h of a single render. 0 disables the check.
	MaxPixels int
	// MaxIters bounds the escape-time budget of a single render. 0 disables
	// the check.
	MaxIters int
	// MaxDegree bounds the degree of the poly parameter. 0 disables the
	// check.
	MaxDegree int
}

// DefaultSecurityConfig allows CORS GETs from any origin and renders of up
// to 4 megapixels, 100000 iterations and degree-64 polynomials.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		MaxPixels:      4 << 20,
		MaxIters:       100_000,
		MaxDegree:      64,
	}
}

// SecurityMiddleware sets the hardening headers, answers CORS preflight
// requests and passes everything else to next.
func SecurityMiddleware(config SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")

		if config.EnableCORS {
			origin := r.Header.Get("Origin")
			allowedOrigin := ""
			for _, allowed := range config.AllowedOrigins {
				if allowed == "*" || allowed == origin {
					allowedOrigin = allowed
					break
				}
			}
			if allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(config.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
				w.Header().Set("Access-Control-Max-Age", "86400")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}

		next(w, r)
	}
}
