package security

import (
	"testing"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

func TestText(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "Write report", "Write report"},
		{"前後の空白を除去", "  Write report \n", "Write report"},
		{"タグを除去", "<b>Write</b> report", "Write report"},
		{"scriptは中身ごと除去", "<script>alert(1)</script>Fix bug", "Fix bug"},
		{"アンパサンドを保持", "R&D review", "R&D review"},
		{"引用符を保持", `Ship "v2" today`, `Ship "v2" today`},
		{"不等号とアポストロフィを保持", "it's 1 < 2", "it's 1 < 2"},
		{"空白の連続と改行をまとめる", "Write\n  report", "Write report"},
		{"エンコードされたタグは復元後に除去", "&lt;img src=x onerror=alert(1)&gt;", ""},
		{"二重エンコードされたタグも除去", "&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;Fix", "Fix"},
		{"エンコードされたタグの周囲の文字は残る", "Fix &lt;b&gt;bug&lt;/b&gt;", "Fix bug"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDescription(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"記号はエンティティにならない", `Fish & chips, "quoted", it's 1 < 2`, `Fish & chips, "quoted", it's 1 < 2`},
		{"改行を保持", "Step 1\nStep 2", "Step 1\nStep 2"},
		{"前後の空白を除去", "\n  notes  \n", "notes"},
		{"書式タグも除去して文字は残す", "<p><strong>Due</strong> on <em>Friday</em></p>", "Due on Friday"},
		{"scriptは中身ごと除去", `<p>ok</p><script>alert("xss")</script>`, "ok"},
		{"イベント属性ごと除去", `<p onclick="steal()">ok</p>`, "ok"},
		{"リンクはテキストだけ残す", `<a href="javascript:alert(1)">click</a>`, "click"},
		{"エンコードされたタグは復元後に除去", "see &lt;iframe src=x&gt;&lt;/iframe&gt;here", "see here"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Description(tt.input); got != tt.want {
				t.Errorf("Description(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// 保存済みの値を再度通しても変わらない
func TestSanitizer_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	inputs := []string{
		`Fish & chips, "quoted", it's 1 < 2`,
		`<p>Step <strong>1</strong></p><script>x()</script>`,
		"&lt;b&gt;bold&lt;/b&gt; & more",
		"R&amp;D",
	}
	for _, in := range inputs {
		first := s.Description(in)
		if second := s.Description(first); first != second {
			t.Errorf("Description not idempotent for %q: %q then %q", in, first, second)
		}
		firstText := s.Text(in)
		if second := s.Text(firstText); firstText != second {
			t.Errorf("Text not idempotent for %q: %q then %q", in, firstText, second)
		}
	}
}

// 指定の有無とnullは保ったまま値だけを無害化する
func TestSanitizePatch_PreservesPresence(t *testing.T) {
	s := NewTextSanitizer()

	patch := model.TaskPatch{
		Title:       model.Some("  <i>Plan</i> sprint "),
		Description: model.Null[string](),
		AssignedTo:  model.Some(" Alice@Example.com "),
		Deadline:    model.Some(" 2024-12-31 "),
	}

	got := SanitizePatch(s, patch)

	if got.Title.Value != "Plan sprint" {
		t.Errorf("Title = %q, want %q", got.Title.Value, "Plan sprint")
	}
	if !got.Description.Set || !got.Description.Null {
		t.Errorf("Description = %+v, want explicit null", got.Description)
	}
	if got.AssignedTo.Value != "alice@example.com" {
		t.Errorf("AssignedTo = %q, want %q", got.AssignedTo.Value, "alice@example.com")
	}
	if got.Deadline.Value != "2024-12-31" {
		t.Errorf("Deadline = %q, want %q", got.Deadline.Value, "2024-12-31")
	}
	if got.Status.Set {
		t.Error("Status should remain absent")
	}
}
