package model

import "time"

// Team はユーザーのグループを表す。
// Membersはメールアドレスの集合で、重複を除いてソートした状態で保持する。
type Team struct {
	ID        string
	Name      string
	Members   []string
	CreatedAt time.Time
	UpdatedAt time.Time
}
