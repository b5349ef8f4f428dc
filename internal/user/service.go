// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/Pumpkin-cod/Task-Manager/internal/metrics"
	"github.com/Pumpkin-cod/Task-Manager/internal/model"
	"github.com/Pumpkin-cod/Task-Manager/internal/repository"
)

// MemberCache はメンバー一覧のキャッシュインターフェース。
// 一覧は世代ごとに保持し、Invalidateで世代が進む。
type MemberCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, gen int64) ([]*model.User, bool, error)
	Set(ctx context.Context, gen int64, users []*model.User) error
	Invalidate(ctx context.Context) error
}

// Service はユーザー管理のサービス層。
type Service struct {
	repo     repository.UserRepository
	cache    MemberCache
	recorder metrics.Recorder
}

// NewService はServiceを生成する。
// cacheがnilの場合は毎回ストアから取得する。
func NewService(repo repository.UserRepository, cache MemberCache, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{repo: repo, cache: cache, recorder: recorder}
}

// ListMembers は保存されたロールがmemberのユーザーをメールアドレス順で返す。
// キャッシュの障害は警告ログのみで、ストアからの取得にフォールバックする。
func (s *Service) ListMembers(ctx context.Context) ([]*model.User, error) {
	// 世代はストアを読む前に取得する。途中で無効化されても古い世代に書くだけになる。
	var gen int64
	useCache := s.cache != nil
	if useCache {
		g, err := s.cache.Generation(ctx)
		if err != nil {
			slog.Warn("member cache read failed", slog.String("error", err.Error()))
			useCache = false
		} else {
			gen = g
			users, ok, err := s.cache.Get(ctx, gen)
			if err != nil {
				slog.Warn("member cache read failed", slog.String("error", err.Error()))
			} else if ok {
				return users, nil
			}
		}
	}

	users, err := s.repo.ListByRole(ctx, model.RoleMember)
	if err != nil {
		s.recorder.RecordStoreError("user_list")
		slog.Error("record store error",
			slog.String("op", "user_list"),
			slog.String("error", err.Error()),
		)
		return nil, model.NewStoreUnavailableError("Failed to get users", err)
	}

	slices.SortFunc(users, func(a, b *model.User) int {
		return strings.Compare(a.Email, b.Email)
	})

	if useCache {
		if err := s.cache.Set(ctx, gen, users); err != nil {
			slog.Warn("member cache write failed", slog.String("error", err.Error()))
		}
	}
	return users, nil
}

// SyncPrincipal は主体のメールアドレスとロールをユーザーテーブルに反映する。
// 初回アクセス後にメンバーが一覧に現れるよう、メンバーキャッシュの世代を進める。
func (s *Service) SyncPrincipal(ctx context.Context, p *model.Principal) error {
	if p == nil || p.Email == "" {
		return model.NewUnauthenticatedError("principal has no email")
	}

	err := s.repo.Upsert(ctx, &model.User{Email: p.Email, Role: p.Role})
	if err != nil {
		s.recorder.RecordStoreError("user_upsert")
		return model.NewStoreUnavailableError("Could not save user", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.Warn("member cache invalidation failed", slog.String("error", err.Error()))
		}
	}
	return nil
}
