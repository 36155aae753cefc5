// Файл: internal/api/middleware.go
package api

import (
	"crypto/subtle"
	"net/http"
)

// CronAuthMiddleware проверяет заголовок X-Cron-Secret для эндпоинтов планировщика.
// Пустой секрет в конфигурации означает отказ всем (fail closed).
func CronAuthMiddleware(secret string) func(http.Handler) http.Handler {
	return secretHeaderMiddleware("X-Cron-Secret", secret)
}

// AdminAuthMiddleware проверяет заголовок X-Admin-Token для админских эндпоинтов.
func AdminAuthMiddleware(token string) func(http.Handler) http.Handler {
	return secretHeaderMiddleware("X-Admin-Token", token)
}

func secretHeaderMiddleware(header, secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(header)
			if secret == "" || supplied == "" ||
				subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
