package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
	"github.com/Pumpkin-cod/Task-Manager/internal/team"
)

// mockTeamService はTeamServiceInterfaceのモック実装。
type mockTeamService struct {
	listFn   func(ctx context.Context) ([]*model.Team, error)
	getFn    func(ctx context.Context, id string) (*model.Team, error)
	createFn func(ctx context.Context, p *model.Principal, in team.Input) (*model.Team, error)
	updateFn func(ctx context.Context, p *model.Principal, id string, in team.Input) (*model.Team, error)
	deleteFn func(ctx context.Context, p *model.Principal, id string) error
}

func (m *mockTeamService) List(ctx context.Context) ([]*model.Team, error) { return m.listFn(ctx) }
func (m *mockTeamService) Get(ctx context.Context, id string) (*model.Team, error) {
	return m.getFn(ctx, id)
}
func (m *mockTeamService) Create(ctx context.Context, p *model.Principal, in team.Input) (*model.Team, error) {
	return m.createFn(ctx, p, in)
}
func (m *mockTeamService) Update(ctx context.Context, p *model.Principal, id string, in team.Input) (*model.Team, error) {
	return m.updateFn(ctx, p, id, in)
}
func (m *mockTeamService) Delete(ctx context.Context, p *model.Principal, id string) error {
	return m.deleteFn(ctx, p, id)
}

func TestTeamHandler_ListTeams(t *testing.T) {
	svc := &mockTeamService{
		listFn: func(context.Context) ([]*model.Team, error) {
			return []*model.Team{{ID: "team-1", Name: "Ops", CreatedAt: handlerNow, UpdatedAt: handlerNow}}, nil
		},
	}
	h := NewTeamHandler(svc)

	w := httptest.NewRecorder()
	h.ListTeams(w, withPrincipal(httptest.NewRequest(http.MethodGet, "/teams", nil), memberPrincipal))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got []teamResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Ops" {
		t.Fatalf("teams = %+v", got)
	}
	if got[0].Members == nil {
		t.Error("members should be [] not null")
	}
}

func TestTeamHandler_CreateTeam(t *testing.T) {
	var gotInput team.Input
	svc := &mockTeamService{
		createFn: func(_ context.Context, _ *model.Principal, in team.Input) (*model.Team, error) {
			gotInput = in
			return &model.Team{ID: "team-1", Name: in.Name, Members: in.Members}, nil
		},
	}
	h := NewTeamHandler(svc)

	body := `{"name":"Ops","members":["a@x.com","b@x.com"]}`
	w := httptest.NewRecorder()
	h.CreateTeam(w, withPrincipal(httptest.NewRequest(http.MethodPost, "/teams", strings.NewReader(body)), adminPrincipal))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if gotInput.Name != "Ops" || len(gotInput.Members) != 2 {
		t.Errorf("input = %+v", gotInput)
	}
}

func TestTeamHandler_UpdateTeam(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
	}{
		{"更新成功", `{"name":"Ops","members":[]}`, nil, http.StatusOK},
		{"ボディのid不一致", `{"id":"other","name":"Ops"}`, nil, http.StatusBadRequest},
		{"未検出", `{"name":"Ops"}`, model.NewTeamNotFoundError("team-1"), http.StatusNotFound},
		{"不正なJSON", `{"name":`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockTeamService{
				updateFn: func(_ context.Context, _ *model.Principal, id string, in team.Input) (*model.Team, error) {
					if tt.serviceErr != nil {
						return nil, tt.serviceErr
					}
					return &model.Team{ID: id, Name: in.Name}, nil
				},
			}
			h := NewTeamHandler(svc)

			req := httptest.NewRequest(http.MethodPut, "/teams/team-1", strings.NewReader(tt.body))
			req = withPrincipal(withChiURLParam(req, "id", "team-1"), adminPrincipal)
			w := httptest.NewRecorder()
			h.UpdateTeam(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestTeamHandler_DeleteTeam(t *testing.T) {
	svc := &mockTeamService{
		deleteFn: func(context.Context, *model.Principal, string) error { return nil },
	}
	h := NewTeamHandler(svc)

	req := withPrincipal(withChiURLParam(httptest.NewRequest(http.MethodDelete, "/teams/team-1", nil), "id", "team-1"), adminPrincipal)
	w := httptest.NewRecorder()
	h.DeleteTeam(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got idResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.ID != "team-1" {
		t.Errorf("id = %q, want team-1", got.ID)
	}
}
