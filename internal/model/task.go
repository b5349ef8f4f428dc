package model

import "time"

// TimestampLayout はレコードに保存するタイムスタンプの書式。
// UTC・ミリ秒固定幅のため、文字列の辞書順が時刻順と一致する。
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DateLayout は締め切り（カレンダー日付）の書式。
const DateLayout = "2006-01-02"

// FormatTimestamp は時刻をUTCの保存用文字列に変換する。
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp は保存用文字列を時刻に変換する。
// ミリ秒なしのRFC3339も受け付ける。
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// TaskStatus はタスクの進捗状態を表す。
type TaskStatus string

const (
	// TaskStatusPending は未着手。作成時のデフォルト。
	TaskStatusPending TaskStatus = "Pending"
	// TaskStatusInProgress は作業中。
	TaskStatusInProgress TaskStatus = "In Progress"
	// TaskStatusComplete は完了。
	TaskStatusComplete TaskStatus = "Complete"
)

// Valid はステータスが定義済みの値であるかを返す。
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusComplete:
		return true
	default:
		return false
	}
}

// Task は1つの作業単位を表す。
type Task struct {
	ID          string
	Title       string
	Description string
	AssignedTo  string
	Deadline    string
	Status      TaskStatus
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// NewTaskInput はタスク作成時の入力。
type NewTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	Deadline    string
	Status      TaskStatus
}

// TaskPatch はタスクの部分更新内容を表す。
// 指定されたフィールドだけが更新対象になる。
type TaskPatch struct {
	Title       Optional[string]     `json:"title"`
	Description Optional[string]     `json:"description"`
	AssignedTo  Optional[string]     `json:"assignedTo"`
	Deadline    Optional[string]     `json:"deadline"`
	Status      Optional[TaskStatus] `json:"status"`
}
