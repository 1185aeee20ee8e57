package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"vpnhub/internal/models"
)

// operatorHeader — идентификатор оператора, проставляемый слоем
// оркестрации. Аутентификацию людей этот сервис не делает: доверяет
// заголовку после проверки общего секрета.
const operatorHeader = "X-Operator-Id"

// SharedSecretAuth — Authorization: Bearer <sharedSecret> на весь API.
func SharedSecretAuth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			const p = "Bearer "
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, p) || strings.TrimPrefix(auth, p) != secret {
				models.WriteProblem(w, http.StatusUnauthorized, "Unauthorized", "bad or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func operatorID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(operatorHeader))
}
