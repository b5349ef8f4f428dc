package model

import (
	"encoding/json"
	"testing"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantSet   bool
		wantNull  bool
		wantValue string
	}{
		{"キーなし", `{}`, false, false, ""},
		{"値あり", `{"title":"New"}`, true, false, "New"},
		{"空文字列", `{"title":""}`, true, false, ""},
		{"null", `{"title":null}`, true, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Title Optional[string] `json:"title"`
			}
			if err := json.Unmarshal([]byte(tt.body), &body); err != nil {
				t.Fatalf("Unmarshal returned error: %v", err)
			}
			if body.Title.Set != tt.wantSet {
				t.Errorf("Set = %v, want %v", body.Title.Set, tt.wantSet)
			}
			if body.Title.Null != tt.wantNull {
				t.Errorf("Null = %v, want %v", body.Title.Null, tt.wantNull)
			}
			if body.Title.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", body.Title.Value, tt.wantValue)
			}
		})
	}
}

func TestOptional_UnmarshalJSON_TypeMismatch(t *testing.T) {
	var body struct {
		Title Optional[string] `json:"title"`
	}
	if err := json.Unmarshal([]byte(`{"title":42}`), &body); err == nil {
		t.Fatal("expected error for non-string title")
	}
}

func TestOptional_Present(t *testing.T) {
	if (Optional[string]{}).Present() {
		t.Error("zero Optional should not be present")
	}
	if !Some("x").Present() {
		t.Error("Some should be present")
	}
	if Null[string]().Present() {
		t.Error("Null should not be present")
	}
}

func TestTaskPatch_IgnoresUnknownKeys(t *testing.T) {
	var patch TaskPatch
	body := `{"id":"t1","owner":"x@example.com","createdAt":"2024-01-01T00:00:00.000Z","status":"Complete"}`
	if err := json.Unmarshal([]byte(body), &patch); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}

	if !patch.Status.Present() || patch.Status.Value != TaskStatusComplete {
		t.Errorf("Status = %+v, want Complete", patch.Status)
	}
	if patch.Title.Set || patch.Description.Set || patch.AssignedTo.Set || patch.Deadline.Set {
		t.Errorf("unexpected fields set: %+v", patch)
	}
}
