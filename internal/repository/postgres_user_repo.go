package repository

import (
	"context"
	"database/sql"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// ListByRole はroleが一致するユーザーをメールアドレス順で返す。
func (r *PostgresUserRepo) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email, name, role, team_id FROM users WHERE role = $1 ORDER BY email`,
		string(role),
	)
	if err != nil {
		return nil, unavailable("failed to list users", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		var (
			user   model.User
			role   string
			name   sql.NullString
			teamID sql.NullString
		)
		if err := rows.Scan(&user.Email, &name, &role, &teamID); err != nil {
			return nil, unavailable("failed to scan user", err)
		}
		user.Name = name.String
		user.Role = model.Role(role)
		user.TeamID = teamID.String
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate users", err)
	}
	return users, nil
}

// Upsert はメールアドレスをキーにユーザーを作成または更新する。
// nameとteam_idは空文字列の場合に既存の値を維持する。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, name, role, team_id)
		 VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''))
		 ON CONFLICT (email) DO UPDATE SET
		     role = EXCLUDED.role,
		     name = COALESCE(EXCLUDED.name, users.name),
		     team_id = COALESCE(EXCLUDED.team_id, users.team_id)`,
		user.Email, user.Name, string(user.Role), user.TeamID,
	)
	if err != nil {
		return unavailable("failed to upsert user", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
