package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// taskColumns は更新指示の属性名とtasksテーブルのカラム名の対応。
var taskColumns = map[model.TaskField]string{
	model.TaskFieldTitle:       "title",
	model.TaskFieldDescription: "description",
	model.TaskFieldAssignedTo:  "assigned_to",
	model.TaskFieldDeadline:    "deadline",
	model.TaskFieldStatus:      "status",
	model.TaskFieldUpdatedAt:   "updated_at",
}

const taskSelectColumns = `id, title, description, assigned_to, deadline, status, created_at, updated_at`

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// List は全タスクを作成日時の昇順で返す。
func (r *PostgresTaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskSelectColumns+` FROM tasks ORDER BY created_at`,
	)
	if err != nil {
		return nil, unavailable("failed to list tasks", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListByAssignee は指定メールアドレスに割り当てられたタスクを返す。
func (r *PostgresTaskRepo) ListByAssignee(ctx context.Context, email string) ([]*model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskSelectColumns+` FROM tasks WHERE assigned_to = $1 ORDER BY created_at`,
		email,
	)
	if err != nil {
		return nil, unavailable("failed to list tasks by assignee", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// FindByID は指定IDのタスクを取得する。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+taskSelectColumns+` FROM tasks WHERE id = $1`,
		id,
	)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to find task by ID", err)
	}
	return task, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, assigned_to, deadline, status, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, '')::date, $6, $7, $8)`,
		task.ID, task.Title, task.Description, task.AssignedTo, task.Deadline,
		string(task.Status), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return unavailable("failed to insert task", err)
	}
	return nil
}

// Update は更新指示をUPDATE ... RETURNINGに変換して適用する。
func (r *PostgresTaskRepo) Update(ctx context.Context, instruction *model.UpdateInstruction) (*model.Task, error) {
	query, args, err := buildTaskUpdateSQL(instruction)
	if err != nil {
		return nil, err
	}

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to update task", err)
	}
	return task, nil
}

// Delete は指定IDのタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return unavailable("failed to delete task", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return unavailable("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// buildTaskUpdateSQL は更新指示からUPDATE文と引数を組み立てる。
// $1は常にタスクIDで、値のある代入ごとに次のプレースホルダを割り当てる。
// SET句の断片は最後に1回だけ区切り文字で連結する。
// deadlineはDATE列のため、空文字列はNULLとして書き込む。
func buildTaskUpdateSQL(instruction *model.UpdateInstruction) (string, []any, error) {
	if len(instruction.Assignments) == 0 {
		return "", nil, fmt.Errorf("update instruction for task %q has no assignments", instruction.ID)
	}

	sets := make([]string, 0, len(instruction.Assignments))
	args := []any{instruction.ID}

	for _, a := range instruction.Assignments {
		col, ok := taskColumns[a.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown task field %q", a.Field)
		}
		if a.Clear || (a.Field == model.TaskFieldDeadline && a.Value == "") {
			sets = append(sets, col+" = NULL")
			continue
		}
		args = append(args, a.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + taskSelectColumns
	return query, args, nil
}

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*model.Task, error) {
	var (
		task        model.Task
		status      string
		description sql.NullString
		assignedTo  sql.NullString
		deadline    sql.NullTime
		updatedAt   sql.NullTime
	)

	err := row.Scan(
		&task.ID, &task.Title, &description, &assignedTo,
		&deadline, &status, &task.CreatedAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.AssignedTo = assignedTo.String
	task.Status = model.TaskStatus(status)
	task.CreatedAt = task.CreatedAt.UTC()
	if deadline.Valid {
		task.Deadline = deadline.Time.Format(model.DateLayout)
	}
	if updatedAt.Valid {
		t := updatedAt.Time.UTC()
		task.UpdatedAt = &t
	}
	return &task, nil
}

func collectTasks(rows *sql.Rows) ([]*model.Task, error) {
	tasks := []*model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, unavailable("failed to scan task", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate tasks", err)
	}
	return tasks, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
