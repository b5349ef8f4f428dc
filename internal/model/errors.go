// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する一般的なメッセージと、原因の詳細を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // ユーザー向けの一般的なメッセージ
	Detail   string // 原因の詳細（レスポンスの error フィールド）
	Category string // カテゴリ: auth, validation, task, team, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Detail)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodeUnauthenticated  = "UNAUTHENTICATED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeTaskNotFound     = "TASK_NOT_FOUND"
	ErrCodeTeamNotFound     = "TEAM_NOT_FOUND"
	ErrCodeStoreUnavailable = "STORE_UNAVAILABLE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエスト不正エラーを生成する。
// 必須IDの欠落、JSONの解析失敗、値の検証失敗に使用する。
func NewInvalidRequestError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Invalid request",
		Detail:   detail,
		Category: "validation",
	}
}

// NewUnauthenticatedError は認証情報がない、または検証できない場合のエラーを生成する。
func NewUnauthenticatedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Authentication required",
		Detail:   detail,
		Category: "auth",
	}
}

// NewUnauthorizedError はロールが不足している場合のエラーを生成する。
func NewUnauthorizedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Not allowed",
		Detail:   detail,
		Category: "auth",
	}
}

// NewTaskNotFoundError はタスク未検出エラーを生成する。
func NewTaskNotFoundError(taskID string) *APIError {
	return &APIError{
		Code:     ErrCodeTaskNotFound,
		Message:  "Task not found",
		Detail:   fmt.Sprintf("no task with id %q", taskID),
		Category: "task",
	}
}

// NewTeamNotFoundError はチーム未検出エラーを生成する。
func NewTeamNotFoundError(teamID string) *APIError {
	return &APIError{
		Code:     ErrCodeTeamNotFound,
		Message:  "Team not found",
		Detail:   fmt.Sprintf("no team with id %q", teamID),
		Category: "team",
	}
}

// NewStoreUnavailableError はレコードストアの障害を表すエラーを生成する。
// messageには操作ごとの一般的な文言（例: "Could not update task"）を渡す。
func NewStoreUnavailableError(message string, cause error) *APIError {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &APIError{
		Code:     ErrCodeStoreUnavailable,
		Message:  message,
		Detail:   detail,
		Category: "system",
	}
}
