package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	List(ctx context.Context, p *model.Principal) ([]*model.Task, error)
	Get(ctx context.Context, p *model.Principal, id string) (*model.Task, error)
	Create(ctx context.Context, p *model.Principal, in model.NewTaskInput) (*model.Task, error)
	Update(ctx context.Context, p *model.Principal, id string, patch model.TaskPatch) (*model.Task, error)
	UpdateStatus(ctx context.Context, p *model.Principal, id string, status model.TaskStatus) (*model.Task, error)
	Delete(ctx context.Context, p *model.Principal, id string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	AssignedTo  string `json:"assignedTo,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func toTaskResponse(t *model.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Deadline:    t.Deadline,
		Status:      string(t.Status),
		CreatedAt:   model.FormatTimestamp(t.CreatedAt),
	}
	if t.UpdatedAt != nil {
		resp.UpdatedAt = model.FormatTimestamp(*t.UpdatedAt)
	}
	return resp
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	AssignedTo  string           `json:"assignedTo"`
	Deadline    string           `json:"deadline"`
	Status      model.TaskStatus `json:"status"`
}

// updateStatusRequest はステータス更新リクエストのボディ。
type updateStatusRequest struct {
	Status *model.TaskStatus `json:"status"`
}

// ListTasks はタスク一覧を返す。メンバーには自分に割り当てられたタスクのみ返す。
// GET /tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	tasks, err := h.service.List(r.Context(), p)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		resp[i] = toTaskResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTask は指定IDのタスクを返す。
// GET /tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	task, err := h.service.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// CreateTask はタスクを作成する。
// POST /tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	task, err := h.service.Create(r.Context(), p, model.NewTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Deadline:    req.Deadline,
		Status:      req.Status,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// UpdateTask はボディに含まれるフィールドだけを更新し、更新後のタスク全体を返す。
// PUT/PATCH /tasks/{id} または PUT/PATCH /tasks（ボディにid）
//
// パスとボディの両方にidがあり一致しない場合はINVALID_REQUEST。
// どちらにもidがない場合もINVALID_REQUEST。
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	body, err := readJSONObject(w, r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var envelope struct {
		ID *string `json:"id"`
	}
	var patch model.TaskPatch
	if err := json.Unmarshal(body, &envelope); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("id must be a string"))
		return
	}
	if err := json.Unmarshal(body, &patch); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("invalid request body: "+err.Error()))
		return
	}

	id, err := resolveTaskID(chi.URLParam(r, "id"), envelope.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	task, err := h.service.Update(r.Context(), p, id, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// UpdateTaskStatus はタスクのステータスのみを更新する。
// 管理者または担当者が実行できる。
// PATCH /tasks/{id}/status
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	if req.Status == nil {
		handleServiceError(w, model.NewInvalidRequestError("status is required"))
		return
	}

	task, err := h.service.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), *req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// DeleteTask はタスクを削除し、削除したIDを返す。
// DELETE /tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
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

// resolveTaskID はパスとボディのidから更新対象のIDを決める。
func resolveTaskID(pathID string, bodyID *string) (string, error) {
	switch {
	case pathID != "" && bodyID != nil && *bodyID != pathID:
		return "", model.NewInvalidRequestError("id in body does not match id in path")
	case pathID != "":
		return pathID, nil
	case bodyID != nil && *bodyID != "":
		return *bodyID, nil
	default:
		return "", model.NewInvalidRequestError("Task ID is required")
	}
}
