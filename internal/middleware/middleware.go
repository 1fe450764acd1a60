package middleware

import (
	handlers "damoyeo/internal/handler"
	"damoyeo/internal/service"
	"log"
	"net/http"
	"slices"
	"strings"
	"time"
)

type Middleware func(http.Handler) http.Handler

// bearerToken takes the token from "Authorization: Bearer <token>" or, for
// browser websockets that cannot set headers, from ?access_token=.
func bearerToken(r *http.Request) (string, bool) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return "", false
		}
		return parts[1], true
	}

	if token := r.URL.Query().Get("access_token"); token != "" {
		return token, true
	}

	return "", false
}

// AuthMiddleware verifies the access token and puts its claims into the
// request context. Public paths pass through untouched.
func AuthMiddleware(authService service.AuthService, publicPaths ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(publicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			tokenString, ok := bearerToken(r)
			if !ok {
				if r.Header.Get("Authorization") != "" {
					handlers.WriteError(w, "Неверный формат токена", http.StatusUnauthorized)
				} else {
					handlers.WriteError(w, "Требуется авторизация", http.StatusUnauthorized)
				}
				return
			}

			claims, err := authService.ParseToken(r.Context(), tokenString)
			if err != nil {
				handlers.WriteError(w, "Недействительный токен", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.ContextWithClaims(r.Context(), claims)))
		})
	}
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("Method: %s, URL: %s, Remote: %s, Duration: %s", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

// Chain wraps h so that the last middleware runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}
