package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wolfman30/parto-platform/internal/tenancy"
)

// Claims is the token shape issued by the identity provider.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequireRole enforces an HMAC-signed bearer token whose role is one of
// roles, and stores the caller as a tenancy.Principal.
func RequireRole(secret string, roles ...tenancy.Role) func(http.Handler) http.Handler {
	allowed := make(map[tenancy.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			claims, ok := parseBearer(r, secret)
			if !ok {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			p := tenancy.Principal{SubjectID: claims.Subject, Role: tenancy.Role(claims.Role)}
			if _, ok := allowed[p.Role]; !ok || strings.TrimSpace(p.SubjectID) == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithPrincipal(r.Context(), p)))
		})
	}
}

func parseBearer(r *http.Request, secret string) (*Claims, bool) {
	auth := r.Header.Get("Authorization")
	tokenString := ""
	switch {
	case strings.HasPrefix(auth, "Bearer "):
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	case r.URL.Query().Get("access_token") != "" && isWebsocketUpgrade(r):
		// Browsers cannot set headers on websocket handshakes.
		tokenString = r.URL.Query().Get("access_token")
	default:
		return nil, false
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	return claims, true
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
