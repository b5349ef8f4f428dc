// Package security はユーザー入力テキストの無害化を提供する。
//
// タスクとチームのテキストはプレーンテキストとして保存する。保存前に
// bluemondayのStrictPolicyでタグを除去し、文字そのものは変えない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// maxUnescapeRounds はエンティティの多重エンコードを剥がす回数の上限。
const maxUnescapeRounds = 8

// TextSanitizer は保存前のテキストを無害化するインターフェース。
type TextSanitizer interface {
	// Text は1行のテキストからタグをすべて除去し、空白の連続を1つにまとめる。
	Text(s string) string

	// Description は説明文からタグをすべて除去する。改行は保持する。
	Description(s string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーは構築後に変更しないため、並行に使用できる。
type textSanitizer struct {
	strict *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{strict: bluemonday.StrictPolicy()}
}

// Text はタグを除去したプレーンテキストを返す。
func (s *textSanitizer) Text(raw string) string {
	return strings.Join(strings.Fields(s.plain(raw)), " ")
}

// Description はタグを除去した説明文を返す。
func (s *textSanitizer) Description(raw string) string {
	return strings.TrimSpace(s.plain(raw))
}

// plain はタグの除去とエンティティの復元を、結果が変わらなくなるまで繰り返す。
// "&lt;img&gt;" のようなエンコード済みのタグも復元後に除去される。
// 上限までに収束しない入力は空文字列にする。
func (s *textSanitizer) plain(raw string) string {
	current := raw
	for round := 0; round < maxUnescapeRounds; round++ {
		if current == "" {
			return ""
		}
		next := html.UnescapeString(s.strict.Sanitize(current))
		if next == current {
			return current
		}
		current = next
	}
	return ""
}

// SanitizePatch は部分更新の文字列フィールドを無害化したコピーを返す。
// 指定の有無とnullは変更しない。
func SanitizePatch(s TextSanitizer, patch model.TaskPatch) model.TaskPatch {
	if patch.Title.Present() {
		patch.Title.Value = s.Text(patch.Title.Value)
	}
	if patch.Description.Present() {
		patch.Description.Value = s.Description(patch.Description.Value)
	}
	if patch.AssignedTo.Present() {
		patch.AssignedTo.Value = strings.ToLower(s.Text(patch.AssignedTo.Value))
	}
	if patch.Deadline.Present() {
		patch.Deadline.Value = strings.TrimSpace(patch.Deadline.Value)
	}
	return patch
}
