package middleware

import "net/http"

// NewCORSMiddleware は全レスポンスにCORSヘッダーを付与するミドルウェアを返す。
// allowedOriginが空の場合は"*"を使用する。
// "*"の場合はAccess-Control-Allow-Credentialsを付与しない。
// OPTIONSプリフライトリクエストには空のボディと200で応答する。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Allow-Methods", "OPTIONS,POST,GET,PATCH,PUT,DELETE")
			if allowedOrigin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
