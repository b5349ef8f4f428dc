// Package task はタスク管理のドメインロジックを提供する。
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// UpdateBuilder は部分更新の内容からレコードストア向けの更新指示を組み立てる。
// 状態を持たないため、複数のgoroutineから同時に使用できる。
type UpdateBuilder struct {
	now func() time.Time
}

// NewUpdateBuilder はUpdateBuilderを生成する。
// nowがnilの場合はtime.Nowを使用する。
func NewUpdateBuilder(now func() time.Time) *UpdateBuilder {
	if now == nil {
		now = time.Now
	}
	return &UpdateBuilder{now: now}
}

// Build はタスクIDと部分更新内容から更新指示を生成する。
//
// 指定されたフィールドごとに1つの代入を正規順（title, description, assignedTo,
// deadline, status）で並べ、最後にupdatedAtの代入を必ず1つ追加する。
// フィールドが1つも指定されていない場合はupdatedAtのみの更新指示になる。
// updatedAtの値はこの呼び出し時点で1回だけ取得する。
// description, assignedTo, deadlineのnullはクリアになる。deadlineは空文字列もクリア。
//
// IDが空の場合や値が不正な場合はINVALID_REQUESTのAPIErrorを返す。
func (b *UpdateBuilder) Build(id string, patch model.TaskPatch) (*model.UpdateInstruction, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewInvalidRequestError("Task ID is required")
	}

	assignments := make([]model.Assignment, 0, 6)

	if patch.Title.Set {
		if patch.Title.Null || strings.TrimSpace(patch.Title.Value) == "" {
			return nil, model.NewInvalidRequestError("title cannot be empty")
		}
		assignments = append(assignments, model.Assignment{Field: model.TaskFieldTitle, Value: patch.Title.Value})
	}

	assignments = appendClearable(assignments, model.TaskFieldDescription, patch.Description)
	assignments = appendClearable(assignments, model.TaskFieldAssignedTo, patch.AssignedTo)

	// 締め切りは日付型のため、空文字列はnullと同じくクリアとして扱う。
	deadline := patch.Deadline
	if deadline.Present() && deadline.Value == "" {
		deadline = model.Null[string]()
	}
	if deadline.Present() {
		if err := ValidateDeadline(deadline.Value); err != nil {
			return nil, err
		}
	}
	assignments = appendClearable(assignments, model.TaskFieldDeadline, deadline)

	if patch.Status.Set {
		if patch.Status.Null || !patch.Status.Value.Valid() {
			return nil, invalidStatusError(patch.Status.Value)
		}
		assignments = append(assignments, model.Assignment{Field: model.TaskFieldStatus, Value: string(patch.Status.Value)})
	}

	assignments = append(assignments, model.Assignment{
		Field: model.TaskFieldUpdatedAt,
		Value: model.FormatTimestamp(b.now()),
	})

	return &model.UpdateInstruction{
		ID:          id,
		Assignments: assignments,
	}, nil
}

// appendClearable はnullでクリアできるフィールドの代入を追加する。
func appendClearable(assignments []model.Assignment, field model.TaskField, v model.Optional[string]) []model.Assignment {
	switch {
	case !v.Set:
		return assignments
	case v.Null:
		return append(assignments, model.Assignment{Field: field, Clear: true})
	default:
		return append(assignments, model.Assignment{Field: field, Value: v.Value})
	}
}

// ValidateDeadline は締め切りがYYYY-MM-DD形式の日付であるかを検証する。
func ValidateDeadline(deadline string) error {
	if _, err := time.Parse(model.DateLayout, deadline); err != nil {
		return model.NewInvalidRequestError("deadline must be a date in YYYY-MM-DD format")
	}
	return nil
}

func invalidStatusError(status model.TaskStatus) *model.APIError {
	return model.NewInvalidRequestError(
		fmt.Sprintf("status must be one of Pending, In Progress, Complete (got %q)", status),
	)
}
