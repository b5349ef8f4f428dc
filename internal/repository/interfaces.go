// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

var (
	// ErrNotFound は指定キーのレコードが存在しないことを表す。
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable はレコードストアへのI/Oが失敗したことを表す。
	// 一時的な障害と恒久的な障害は区別しない。
	ErrStoreUnavailable = errors.New("record store unavailable")
)

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// List は全タスクを返す。
	List(ctx context.Context) ([]*model.Task, error)

	// ListByAssignee は指定メールアドレスに割り当てられたタスクを返す。
	ListByAssignee(ctx context.Context, email string) ([]*model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はErrNotFoundを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Update は更新指示を適用し、更新後のタスク全体を返す。
	// 存在しないIDの場合はErrNotFoundを返し、レコードを作成しない。
	Update(ctx context.Context, instruction *model.UpdateInstruction) (*model.Task, error)

	// Delete は指定IDのタスクを削除する。見つからない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// ListByRole は保存されたロールが一致するユーザーを返す。
	ListByRole(ctx context.Context, role model.Role) ([]*model.User, error)

	// Upsert はメールアドレスをキーにユーザーを作成または更新する。
	// nameとteamIdが空の場合は既存の値を維持する。
	Upsert(ctx context.Context, user *model.User) error
}

// TeamRepository はチームデータの永続化インターフェース。
type TeamRepository interface {
	// List は全チームを返す。
	List(ctx context.Context) ([]*model.Team, error)

	// FindByID は指定IDのチームを取得する。見つからない場合はErrNotFoundを返す。
	FindByID(ctx context.Context, id string) (*model.Team, error)

	// Create はチームを作成する。
	Create(ctx context.Context, team *model.Team) error

	// Replace は既存チームの名前とメンバーを置き換え、更新後のチームを返す。
	// 見つからない場合はErrNotFoundを返す。
	Replace(ctx context.Context, team *model.Team) (*model.Team, error)

	// Delete は指定IDのチームを削除する。見つからない場合はErrNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// unavailable はストアのエラーをErrStoreUnavailableでラップする。
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
