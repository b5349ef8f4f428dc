// Package auth はIDプロバイダーが発行したIDトークンを検証し、
// リクエストの主体（Principal）を導出する。
//
// ログイン画面やトークン発行はIDプロバイダー側の責務で、このパッケージは
// 署名・有効期限・発行者・対象者の検証とクレームの読み取りのみを行う。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

var (
	// ErrMissingToken はAuthorizationヘッダーにトークンがないことを表す。
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken はトークンの検証に失敗したことを表す。
	ErrInvalidToken = errors.New("invalid token")
)

// Verifier はIDトークンを検証してPrincipalを返すインターフェース。
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*model.Principal, error)
}

// Options はトークン検証の設定。
type Options struct {
	Issuer      string // 空の場合は検証しない
	Audience    string // 空の場合は検証しない
	GroupsClaim string // グループ一覧を持つクレーム名（例: "cognito:groups"）
	AdminGroup  string // 管理者ロールに対応するグループ名

	// Now は有効期限の判定に使う時計。nilの場合はtime.Now。
	Now func() time.Time
}

// JWTVerifier はgolang-jwtによるVerifierの実装。
type JWTVerifier struct {
	keyfunc jwt.Keyfunc
	methods []string
	opts    Options
}

// NewJWKSVerifier はJWKSエンドポイントの公開鍵でRS256トークンを検証するVerifierを生成する。
// 鍵セットはkeyfuncがバックグラウンドで定期的に再取得する。
func NewJWKSVerifier(ctx context.Context, jwksURL string, opts Options) (*JWTVerifier, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS from %s: %w", jwksURL, err)
	}
	return newJWTVerifier(k.Keyfunc, []string{"RS256"}, opts), nil
}

// NewHMACVerifier は共有シークレットでHS256トークンを検証するVerifierを生成する。
// ローカル開発とテストで使用する。
func NewHMACVerifier(secret []byte, opts Options) *JWTVerifier {
	keyfn := func(*jwt.Token) (any, error) {
		return secret, nil
	}
	return newJWTVerifier(keyfn, []string{"HS256"}, opts)
}

func newJWTVerifier(keyfn jwt.Keyfunc, methods []string, opts Options) *JWTVerifier {
	if opts.GroupsClaim == "" {
		opts.GroupsClaim = "cognito:groups"
	}
	if opts.AdminGroup == "" {
		opts.AdminGroup = string(model.RoleAdmin)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &JWTVerifier{keyfunc: keyfn, methods: methods, opts: opts}
}

// Verify はトークンを検証し、emailクレームとグループクレームからPrincipalを生成する。
// ロールはグループから毎回導出する。
func (v *JWTVerifier) Verify(_ context.Context, rawToken string) (*model.Principal, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, ErrMissingToken
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.opts.Now),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}
	if v.opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.opts.Audience))
	}

	claims := jwt.MapClaims{}
	if _, err := jwt.ParseWithClaims(rawToken, claims, v.keyfunc, parserOpts...); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	email, _ := claims["email"].(string)
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email claim is missing", ErrInvalidToken)
	}

	groups := groupsFromClaim(claims[v.opts.GroupsClaim])
	return model.NewPrincipal(email, groups, v.opts.AdminGroup), nil
}

// groupsFromClaim はグループクレームを文字列スライスに変換する。
// JSON配列のほか、カンマまたは空白区切りの文字列も受け付ける。
func groupsFromClaim(v any) []string {
	switch g := v.(type) {
	case []any:
		groups := make([]string, 0, len(g))
		for _, item := range g {
			if s, ok := item.(string); ok && s != "" {
				groups = append(groups, s)
			}
		}
		return groups
	case []string:
		return g
	case string:
		return strings.FieldsFunc(g, func(r rune) bool {
			return r == ',' || r == ' '
		})
	default:
		return []string{}
	}
}

// BearerToken はAuthorizationヘッダーの値からBearerトークンを取り出す。
// スキーム名の大文字小文字は区別しない。
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// compile-time interface check
var _ Verifier = (*JWTVerifier)(nil)
