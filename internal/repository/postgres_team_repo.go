package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// PostgresTeamRepo はPostgreSQLを使用したチームリポジトリ。
type PostgresTeamRepo struct {
	db *sql.DB
}

// NewPostgresTeamRepo はPostgresTeamRepoを生成する。
func NewPostgresTeamRepo(db *sql.DB) *PostgresTeamRepo {
	return &PostgresTeamRepo{db: db}
}

// List は全チームを名前順で返す。
func (r *PostgresTeamRepo) List(ctx context.Context) ([]*model.Team, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, members, created_at, updated_at FROM teams ORDER BY name`,
	)
	if err != nil {
		return nil, unavailable("failed to list teams", err)
	}
	defer rows.Close()

	teams := []*model.Team{}
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, unavailable("failed to scan team", err)
		}
		teams = append(teams, team)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("failed to iterate teams", err)
	}
	return teams, nil
}

// FindByID は指定IDのチームを取得する。
func (r *PostgresTeamRepo) FindByID(ctx context.Context, id string) (*model.Team, error) {
	team, err := scanTeam(r.db.QueryRowContext(ctx,
		`SELECT id, name, members, created_at, updated_at FROM teams WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to find team by ID", err)
	}
	return team, nil
}

// Create はチームを作成する。
func (r *PostgresTeamRepo) Create(ctx context.Context, team *model.Team) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, members, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		team.ID, team.Name, pq.Array(membersOrEmpty(team.Members)), team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return unavailable("failed to insert team", err)
	}
	return nil
}

// Replace は既存チームの名前とメンバーを置き換える。
func (r *PostgresTeamRepo) Replace(ctx context.Context, team *model.Team) (*model.Team, error) {
	updated, err := scanTeam(r.db.QueryRowContext(ctx,
		`UPDATE teams SET name = $2, members = $3, updated_at = $4
		 WHERE id = $1
		 RETURNING id, name, members, created_at, updated_at`,
		team.ID, team.Name, pq.Array(membersOrEmpty(team.Members)), team.UpdatedAt,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("failed to update team", err)
	}
	return updated, nil
}

// Delete は指定IDのチームを削除する。
func (r *PostgresTeamRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM teams WHERE id = $1`,
		id,
	)
	if err != nil {
		return unavailable("failed to delete team", err)
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

func scanTeam(row rowScanner) (*model.Team, error) {
	var team model.Team
	var members pq.StringArray

	if err := row.Scan(&team.ID, &team.Name, &members, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return nil, err
	}

	team.Members = membersOrEmpty(members)
	team.CreatedAt = team.CreatedAt.UTC()
	team.UpdatedAt = team.UpdatedAt.UTC()
	return &team, nil
}

func membersOrEmpty(members []string) []string {
	if members == nil {
		return []string{}
	}
	return members
}

// compile-time interface check
var _ TeamRepository = (*PostgresTeamRepo)(nil)
