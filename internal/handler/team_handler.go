package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
	"github.com/Pumpkin-cod/Task-Manager/internal/team"
)

// TeamServiceInterface はチームハンドラーが必要とするサービスインターフェース。
type TeamServiceInterface interface {
	List(ctx context.Context) ([]*model.Team, error)
	Get(ctx context.Context, id string) (*model.Team, error)
	Create(ctx context.Context, p *model.Principal, in team.Input) (*model.Team, error)
	Update(ctx context.Context, p *model.Principal, id string, in team.Input) (*model.Team, error)
	Delete(ctx context.Context, p *model.Principal, id string) error
}

// TeamHandler はチーム管理のHTTPハンドラー。
type TeamHandler struct {
	service TeamServiceInterface
}

// NewTeamHandler はTeamHandlerを生成する。
func NewTeamHandler(service TeamServiceInterface) *TeamHandler {
	return &TeamHandler{service: service}
}

// teamResponse はチームのAPIレスポンス。
type teamResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
}

func toTeamResponse(t *model.Team) teamResponse {
	members := t.Members
	if members == nil {
		members = []string{}
	}
	return teamResponse{
		ID:        t.ID,
		Name:      t.Name,
		Members:   members,
		CreatedAt: model.FormatTimestamp(t.CreatedAt),
		UpdatedAt: model.FormatTimestamp(t.UpdatedAt),
	}
}

// teamRequest はチーム作成・更新リクエストのボディ。
type teamRequest struct {
	ID      *string  `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// ListTeams はチーム一覧を返す。
// GET /teams
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]teamResponse, len(teams))
	for i, t := range teams {
		resp[i] = toTeamResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTeam は指定IDのチームを返す。
// GET /teams/{id}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamResponse(t))
}

// CreateTeam はチームを作成する。
// POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	t, err := h.service.Create(r.Context(), p, team.Input{Name: req.Name, Members: req.Members})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTeamResponse(t))
}

// UpdateTeam はチームの名前とメンバーを置き換える。
// PUT /teams/{id}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req teamRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if req.ID != nil && *req.ID != id {
		handleServiceError(w, model.NewInvalidRequestError("id in body does not match id in path"))
		return
	}

	t, err := h.service.Update(r.Context(), p, id, team.Input{Name: req.Name, Members: req.Members})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamResponse(t))
}

// DeleteTeam はチームを削除し、削除したIDを返す。
// DELETE /teams/{id}
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idResponse{ID: id})
}
