// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Pumpkin-cod/Task-Manager/internal/auth"
	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// principalContextKey はリクエストコンテキストに認証済み主体を格納するためのキー。
	principalContextKey = contextKey("principal")
	holderContextKey    = contextKey("principal_holder")
)

// principalHolder は外側のミドルウェアへ主体のメールアドレスを伝える。
type principalHolder struct {
	email string
}

func contextWithHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, holderContextKey, h)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みの主体をリクエストコンテキストに注入するミドルウェアを返す。
// トークンがない、または検証できない場合は401を返す。
func NewAuthMiddleware(verifier auth.Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := auth.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError(err.Error()))
				return
			}

			principal, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrMissingToken) {
					slog.Error("token verification failed", slog.String("error", err.Error()))
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError(err.Error()))
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin は管理者ロール以外のリクエストに403を返すミドルウェア。
// NewAuthMiddlewareの後に配置する。
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError("no principal in request"))
			return
		}
		if !p.IsAdmin() {
			WriteErrorResponse(w, http.StatusForbidden, model.NewUnauthorizedError("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// PrincipalFromContext はリクエストコンテキストから認証済み主体を取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func PrincipalFromContext(ctx context.Context) (*model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*model.Principal)
	return p, ok && p != nil
}

// ContextWithPrincipal はコンテキストに認証済み主体を注入する。
func ContextWithPrincipal(ctx context.Context, p *model.Principal) context.Context {
	if h, ok := ctx.Value(holderContextKey).(*principalHolder); ok && p != nil {
		h.email = p.Email
	}
	return context.WithValue(ctx, principalContextKey, p)
}
