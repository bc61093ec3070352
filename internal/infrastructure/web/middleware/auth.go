package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/logging"
)

// AuthMiddleware provides API key authentication functionality
type AuthMiddleware struct {
	config config.AuthConfig
}

// NewAuthMiddleware creates a new auth middleware instance
func NewAuthMiddleware(config config.AuthConfig) *AuthMiddleware {
	if config.HeaderName == "" {
		config.HeaderName = "X-API-Key"
	}
	return &AuthMiddleware{
		config: config,
	}
}

// AuthResponse represents the authentication error response
type AuthResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Handler wraps the given handler with API key authentication
func (am *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Si la autenticación está deshabilitada, continuar sin verificar
		if !am.config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if am.isUnauthenticatedPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get(am.config.HeaderName)
		if apiKey == "" {
			am.respondWithAuthError(w, r, "API key missing", "API_KEY_MISSING")
			return
		}

		if !am.isValidAPIKey(apiKey) {
			am.respondWithAuthError(w, r, "Invalid API key", "API_KEY_INVALID")
			return
		}

		logging.Debug(r.Context(), "API key authentication successful", logging.Fields{
			logging.FieldHTTPPath:   r.URL.Path,
			logging.FieldHTTPMethod: r.Method,
		})

		next.ServeHTTP(w, r)
	})
}

// isUnauthenticatedPath verifica si la ruta debe estar exenta de autenticación.
// Las rutas terminadas en "/" se tratan como prefijos.
func (am *AuthMiddleware) isUnauthenticatedPath(path string) bool {
	for _, unauthPath := range am.config.UnauthPaths {
		if path == unauthPath {
			return true
		}
		if strings.HasSuffix(unauthPath, "/") && strings.HasPrefix(path, unauthPath) {
			return true
		}
	}
	return false
}

// isValidAPIKey compara en tiempo constante
func (am *AuthMiddleware) isValidAPIKey(providedKey string) bool {
	if am.config.APIKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(providedKey), []byte(am.config.APIKey)) == 1
}

// respondWithAuthError envía una respuesta de error de autenticación
func (am *AuthMiddleware) respondWithAuthError(w http.ResponseWriter, r *http.Request, message, code string) {
	logging.Security().AuthenticationFailed(r.Context(), getRemoteIP(r), r.URL.Path, code)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `APIKey header="`+am.config.HeaderName+`"`)
	w.WriteHeader(http.StatusUnauthorized)

	response := AuthResponse{
		Error:   "Authentication Failed",
		Message: message,
		Code:    code,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.Error(r.Context(), "Error encoding auth error response", logging.Fields{
			logging.FieldError: err.Error(),
		})
	}
}
