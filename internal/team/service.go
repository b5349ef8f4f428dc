// Package team はチーム管理のドメインロジックを提供する。
package team

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

// Input はチームの作成・更新時の入力。
type Input struct {
	Name    string
	Members []string
}

// Service はチーム管理のサービス層。
type Service struct {
	repo      repository.TeamRepository
	sanitizer security.TextSanitizer
	recorder  metrics.Recorder
	now       func() time.Time
	newID     func() string
}

// NewService はServiceを生成する。
func NewService(
	repo repository.TeamRepository,
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
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       now,
		newID:     uuid.NewString,
	}
}

// List は全チームを名前順で返す。
func (s *Service) List(ctx context.Context) ([]*model.Team, error) {
	teams, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.storeError("team_list", "Could not fetch teams", err)
	}
	slices.SortStableFunc(teams, func(a, b *model.Team) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return teams, nil
}

// Get は指定IDのチームを返す。
func (s *Service) Get(ctx context.Context, id string) (*model.Team, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.NewInvalidRequestError("Team ID is required")
	}

	team, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewTeamNotFoundError(id)
	}
	if err != nil {
		return nil, s.storeError("team_get", "Could not fetch team", err)
	}
	return team, nil
}

// Create はチームを作成する。管理者のみ実行できる。
func (s *Service) Create(ctx context.Context, p *model.Principal, in Input) (*model.Team, error) {
	if !p.IsAdmin() {
		return nil, model.NewUnauthorizedError("only admins can manage teams")
	}

	name, err := s.validName(in.Name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	team := &model.Team{
		ID:        s.newID(),
		Name:      name,
		Members:   NormalizeMembers(in.Members),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, team); err != nil {
		return nil, s.storeError("team_create", "Could not create team", err)
	}

	slog.Info("team created",
		slog.String("team_id", team.ID),
		slog.Int("members", len(team.Members)),
		slog.String("principal", p.Email),
	)
	return team, nil
}

// Update はチームの名前とメンバーを置き換える。管理者のみ実行できる。
func (s *Service) Update(ctx context.Context, p *model.Principal, id string, in Input) (*model.Team, error) {
	if !p.IsAdmin() {
		return nil, model.NewUnauthorizedError("only admins can manage teams")
	}
	if strings.TrimSpace(id) == "" {
		return nil, model.NewInvalidRequestError("Team ID is required")
	}

	name, err := s.validName(in.Name)
	if err != nil {
		return nil, err
	}

	team, err := s.repo.Replace(ctx, &model.Team{
		ID:        id,
		Name:      name,
		Members:   NormalizeMembers(in.Members),
		UpdatedAt: s.now().UTC().Truncate(time.Millisecond),
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewTeamNotFoundError(id)
	}
	if err != nil {
		return nil, s.storeError("team_update", "Could not update team", err)
	}
	return team, nil
}

// Delete はチームを削除する。管理者のみ実行できる。
func (s *Service) Delete(ctx context.Context, p *model.Principal, id string) error {
	if !p.IsAdmin() {
		return model.NewUnauthorizedError("only admins can manage teams")
	}
	if strings.TrimSpace(id) == "" {
		return model.NewInvalidRequestError("Team ID is required")
	}

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewTeamNotFoundError(id)
	}
	if err != nil {
		return s.storeError("team_delete", "Could not delete team", err)
	}
	return nil
}

func (s *Service) validName(raw string) (string, error) {
	name := s.sanitizer.Text(raw)
	if name == "" {
		return "", model.NewInvalidRequestError("team name is required")
	}
	return name, nil
}

func (s *Service) storeError(op, message string, err error) error {
	s.recorder.RecordStoreError(op)
	slog.Error("record store error",
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	return model.NewStoreUnavailableError(message, err)
}

// NormalizeMembers はメンバーのメールアドレスを小文字化・空白除去し、
// 空要素と重複を取り除いてソートした集合を返す。戻り値はnilにならない。
func NormalizeMembers(members []string) []string {
	out := make([]string, 0, len(members))
	for _, m := range members {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" {
			out = append(out, m)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
