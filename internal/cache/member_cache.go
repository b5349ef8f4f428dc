// Package cache はRedisを使用した読み取りキャッシュを提供する。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

const (
	// membersKeyPrefix はメンバー一覧を保存するキーの接頭辞。世代番号を後ろに付ける。
	membersKeyPrefix = "taskboard:users:members:"
	// generationKey は現在の世代番号を保持するキー。
	generationKey = "taskboard:users:members:gen"
)

// membersKey は世代ごとのメンバー一覧のキーを返す。
func membersKey(gen int64) string {
	return membersKeyPrefix + strconv.FormatInt(gen, 10)
}

// Client はキャッシュが使用するRedis操作のインターフェース。
// 本番では*redis.Clientを、テストではスタブを渡す。
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// NewRedisClient はredis://形式のURLからRedisクライアントを生成する。
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// cachedUser はキャッシュに保存するユーザーの表現。
type cachedUser struct {
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	TeamID string `json:"teamId,omitempty"`
}

// MemberCache はrole=memberのユーザー一覧をTTL付きで保持する。
//
// 一覧は世代番号付きのキーに保存し、Invalidateは世代を進める。
// 読み取り側はストアを読む前に世代を取得し、その世代のキーにだけ書き込むため、
// 無効化の前に読んだ古い一覧が新しい世代のキャッシュになることはない。
// 古い世代のキーはTTLで消える。
type MemberCache struct {
	client Client
	ttl    time.Duration
}

// NewMemberCache はMemberCacheを生成する。
func NewMemberCache(client Client, ttl time.Duration) *MemberCache {
	return &MemberCache{client: client, ttl: ttl}
}

// Generation は現在の世代番号を返す。一度も無効化されていなければ0。
func (c *MemberCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation error: %w", err)
	}
	return gen, nil
}

// Get は指定世代でキャッシュされたメンバー一覧を返す。
// キャッシュがない場合は(nil, false, nil)を返す。
func (c *MemberCache) Get(ctx context.Context, gen int64) ([]*model.User, bool, error) {
	data, err := c.client.Get(ctx, membersKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get error: %w", err)
	}

	var recs []cachedUser
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	users := make([]*model.User, len(recs))
	for i, rec := range recs {
		users[i] = &model.User{
			Email:  rec.Email,
			Name:   rec.Name,
			Role:   model.Role(rec.Role),
			TeamID: rec.TeamID,
		}
	}
	return users, true, nil
}

// Set はメンバー一覧を指定世代のキャッシュに保存する。
func (c *MemberCache) Set(ctx context.Context, gen int64, users []*model.User) error {
	recs := make([]cachedUser, len(users))
	for i, u := range users {
		recs[i] = cachedUser{
			Email:  u.Email,
			Name:   u.Name,
			Role:   string(u.Role),
			TeamID: u.TeamID,
		}
	}

	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, membersKey(gen), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Invalidate は世代を進め、それまでのメンバー一覧を読まれないようにする。
func (c *MemberCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	return nil
}
