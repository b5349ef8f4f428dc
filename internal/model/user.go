// Package model はドメインモデルを定義する。
package model

import "slices"

// Role はユーザーの権限区分を表す。
type Role string

const (
	// RoleAdmin は全タスク・チームを管理できる。
	RoleAdmin Role = "admin"
	// RoleMember は自分に割り当てられたタスクのみ扱える。
	RoleMember Role = "member"
)

// User はユーザーテーブルのレコードを表す。
// emailが自然キー。
type User struct {
	Email  string
	Name   string
	Role   Role
	TeamID string
}

// Principal はリクエストを行った認証済みの主体を表す。
// ロールはIDトークンのグループクレームから毎回導出し、保存しない。
type Principal struct {
	Email  string
	Groups []string
	Role   Role
}

// RoleFromGroups はグループ一覧からロールを導出する。
// adminGroupに所属していればadmin、それ以外はmember。
func RoleFromGroups(groups []string, adminGroup string) Role {
	if slices.Contains(groups, adminGroup) {
		return RoleAdmin
	}
	return RoleMember
}

// NewPrincipal はメールアドレスとグループからPrincipalを生成する。
func NewPrincipal(email string, groups []string, adminGroup string) *Principal {
	return &Principal{
		Email:  email,
		Groups: groups,
		Role:   RoleFromGroups(groups, adminGroup),
	}
}

// IsAdmin は管理者ロールかどうかを返す。
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
