package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// ListMembers は保存されたロールがmemberのユーザーを返す。
	ListMembers(ctx context.Context) ([]*model.User, error)
	// SyncPrincipal は主体をユーザーテーブルに反映する。
	SyncPrincipal(ctx context.Context, p *model.Principal) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

type userResponse struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	TeamID string `json:"teamId,omitempty"`
}

type usersResponse struct {
	Users []userResponse `json:"users"`
}

type meResponse struct {
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	Groups []string `json:"groups"`
}

// ListUsers はメンバーロールのユーザー一覧を返す。
// GET /users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListMembers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := usersResponse{Users: make([]userResponse, len(users))}
	for i, u := range users {
		resp.Users[i] = userResponse{
			Email:  u.Email,
			Name:   u.Name,
			Role:   string(u.Role),
			TeamID: u.TeamID,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me は認証済み主体の情報を返し、ユーザーテーブルへ反映する。
// 反映に失敗しても主体の情報は返す。
// GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := h.service.SyncPrincipal(r.Context(), p); err != nil {
		slog.Warn("failed to sync principal",
			slog.String("email", p.Email),
			slog.String("error", err.Error()),
		)
	}

	groups := p.Groups
	if groups == nil {
		groups = []string{}
	}
	writeJSON(w, http.StatusOK, meResponse{
		Email:  p.Email,
		Role:   string(p.Role),
		Groups: groups,
	})
}
