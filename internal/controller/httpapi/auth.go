package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const studentIDKey contextKey = "student_id"

// StudentJWT проверяет HMAC-токен. Subject токена - id студента.
// Браузер не может передать заголовок при открытии websocket, поэтому токен принимается и в ?token=.
func StudentJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeError(w, http.StatusUnauthorized, "student auth disabled")
				return
			}

			tokenString := bearerToken(r)
			if tokenString == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}

			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			studentID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil || studentID <= 0 {
				writeError(w, http.StatusUnauthorized, "invalid token subject")
				return
			}

			ctx := context.WithValue(r.Context(), studentIDKey, studentID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StudentIDFromContext возвращает id студента из токена, 0 - если его нет
func StudentIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(studentIDKey).(int64)
	return id
}

func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
