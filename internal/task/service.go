package task

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pumpkin-cod/Task-Manager/internal/metrics"
	"github.com/Pumpkin-cod/Task-Manager/internal/model"
	"github.com/Pumpkin-cod/Task-Manager/internal/repository"
	"github.com/Pumpkin-cod/Task-Manager/internal/security"
)

// Service はタスク管理のサービス層。
// ロールによるアクセス制御、入力の無害化、更新指示の組み立てを行い、
// 永続化はTaskRepositoryに委ねる。
type Service struct {
	repo      repository.TaskRepository
	builder   *UpdateBuilder
	sanitizer security.TextSanitizer
	recorder  metrics.Recorder
	now       func() time.Time
	newID     func() string
}

// NewService はServiceを生成する。
// recorderがnilの場合は何も記録しない。nowがnilの場合はtime.Nowを使用する。
func NewService(
	repo repository.TaskRepository,
	sanitizer security.TextSanitizer,
	recorder metrics.Recorder,
	now func() time.Time,
) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		builder:   NewUpdateBuilder(now),
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       now,
		newID:     uuid.NewString,
	}
}

// List は主体が参照できるタスクを作成日時の昇順で返す。
// 管理者は全タスク、メンバーは自分に割り当てられたタスクのみ。
func (s *Service) List(ctx context.Context, p *model.Principal) ([]*model.Task, error) {
	var (
		tasks []*model.Task
		err   error
	)
	if p.IsAdmin() {
		tasks, err = s.repo.List(ctx)
	} else {
		tasks, err = s.repo.ListByAssignee(ctx, p.Email)
	}
	if err != nil {
		return nil, s.storeError("task_list", "Could not fetch tasks", err)
	}

	slices.SortStableFunc(tasks, func(a, b *model.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// Get は指定IDのタスクを返す。メンバーは自分に割り当てられたタスクのみ参照できる。
func (s *Service) Get(ctx context.Context, p *model.Principal, id string) (*model.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewInvalidRequestError("Task ID is required")
	}

	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && !isAssignee(task, p) {
		return nil, model.NewUnauthorizedError("task is not assigned to you")
	}
	return task, nil
}

// Create はタスクを作成する。管理者のみ実行できる。
// statusが省略された場合はPendingになる。
func (s *Service) Create(ctx context.Context, p *model.Principal, in model.NewTaskInput) (*model.Task, error) {
	if !p.IsAdmin() {
		return nil, model.NewUnauthorizedError("only admins can create tasks")
	}

	task := &model.Task{
		ID:          s.newID(),
		Title:       s.sanitizer.Text(in.Title),
		Description: s.sanitizer.Description(in.Description),
		AssignedTo:  strings.ToLower(s.sanitizer.Text(in.AssignedTo)),
		Deadline:    strings.TrimSpace(in.Deadline),
		Status:      in.Status,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}

	if task.Title == "" {
		return nil, model.NewInvalidRequestError("title is required")
	}
	if task.Status == "" {
		task.Status = model.TaskStatusPending
	}
	if !task.Status.Valid() {
		return nil, invalidStatusError(task.Status)
	}
	if task.Deadline != "" {
		if err := ValidateDeadline(task.Deadline); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, s.storeError("task_create", "Could not create task", err)
	}

	slog.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("principal", p.Email),
	)
	return task, nil
}

// Update は部分更新を適用し、更新後のタスク全体を返す。管理者のみ実行できる。
func (s *Service) Update(ctx context.Context, p *model.Principal, id string, patch model.TaskPatch) (*model.Task, error) {
	if !p.IsAdmin() {
		return nil, model.NewUnauthorizedError("only admins can update tasks")
	}
	return s.apply(ctx, p, id, security.SanitizePatch(s.sanitizer, patch))
}

// UpdateStatus はstatusのみを更新する。
// 管理者に加えて、タスクの担当者も実行できる。
func (s *Service) UpdateStatus(ctx context.Context, p *model.Principal, id string, status model.TaskStatus) (*model.Task, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewInvalidRequestError("Task ID is required")
	}

	if !p.IsAdmin() {
		task, err := s.find(ctx, id)
		if err != nil {
			return nil, err
		}
		if !isAssignee(task, p) {
			return nil, model.NewUnauthorizedError("task is not assigned to you")
		}
	}

	return s.apply(ctx, p, id, model.TaskPatch{Status: model.Some(status)})
}

// Delete は指定IDのタスクを削除する。管理者のみ実行できる。
func (s *Service) Delete(ctx context.Context, p *model.Principal, id string) error {
	if !p.IsAdmin() {
		return model.NewUnauthorizedError("only admins can delete tasks")
	}
	if strings.TrimSpace(id) == "" {
		return model.NewInvalidRequestError("Task ID is required")
	}

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewTaskNotFoundError(id)
	}
	if err != nil {
		return s.storeError("task_delete", "Could not delete task", err)
	}

	slog.Info("task deleted",
		slog.String("task_id", id),
		slog.String("principal", p.Email),
	)
	return nil
}

// apply は更新指示を組み立ててストアに適用する。
// IDの検証は更新指示の組み立て時に行われ、ストアには触れない。
func (s *Service) apply(ctx context.Context, p *model.Principal, id string, patch model.TaskPatch) (*model.Task, error) {
	instruction, err := s.builder.Build(id, patch)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordTaskUpdate(len(instruction.Assignments))

	task, err := s.repo.Update(ctx, instruction)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewTaskNotFoundError(id)
	}
	if err != nil {
		return nil, s.storeError("task_update", "Could not update task", err)
	}

	slog.Info("task updated",
		slog.String("task_id", id),
		slog.Any("fields", instruction.Fields()),
		slog.String("principal", p.Email),
	)
	return task, nil
}

func (s *Service) find(ctx context.Context, id string) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewTaskNotFoundError(id)
	}
	if err != nil {
		return nil, s.storeError("task_get", "Could not fetch task", err)
	}
	return task, nil
}

// storeError はストアのエラーを記録し、STORE_UNAVAILABLEのAPIErrorに変換する。
func (s *Service) storeError(op, message string, err error) error {
	s.recorder.RecordStoreError(op)
	slog.Error("record store error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return model.NewStoreUnavailableError(message, err)
}

func isAssignee(task *model.Task, p *model.Principal) bool {
	return p != nil && task.AssignedTo != "" && strings.EqualFold(task.AssignedTo, p.Email)
}
