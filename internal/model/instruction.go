package model

// TaskField は部分更新で扱うタスクの属性名。
// 値はレコードストア上の属性名（JSONのキー名と同じ）。
type TaskField string

const (
	TaskFieldTitle       TaskField = "title"
	TaskFieldDescription TaskField = "description"
	TaskFieldAssignedTo  TaskField = "assignedTo"
	TaskFieldDeadline    TaskField = "deadline"
	TaskFieldStatus      TaskField = "status"
	TaskFieldUpdatedAt   TaskField = "updatedAt"
)

// Assignment は1つの属性に対する代入を表す。
// Clear=trueの場合は値を削除する（Valueは使用しない）。
type Assignment struct {
	Field TaskField
	Value string
	Clear bool
}

// UpdateInstruction はレコードストアの更新操作に渡す更新指示。
// Assignmentsは既知フィールドの正規順で並び、最後の要素が常にupdatedAtになる。
type UpdateInstruction struct {
	ID          string
	Assignments []Assignment
}

// Fields は代入対象の属性名を順番に返す。
func (u *UpdateInstruction) Fields() []TaskField {
	fields := make([]TaskField, len(u.Assignments))
	for i, a := range u.Assignments {
		fields[i] = a.Field
	}
	return fields
}

// UpdatedAt は更新指示に含まれるupdatedAtの値を返す。
func (u *UpdateInstruction) UpdatedAt() string {
	for i := len(u.Assignments) - 1; i >= 0; i-- {
		if u.Assignments[i].Field == TaskFieldUpdatedAt {
			return u.Assignments[i].Value
		}
	}
	return ""
}
