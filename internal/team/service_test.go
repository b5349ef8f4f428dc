package team

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
	"github.com/Pumpkin-cod/Task-Manager/internal/repository"
	"github.com/Pumpkin-cod/Task-Manager/internal/security"
)

type mockTeamRepo struct {
	listFn    func(ctx context.Context) ([]*model.Team, error)
	findFn    func(ctx context.Context, id string) (*model.Team, error)
	createFn  func(ctx context.Context, team *model.Team) error
	replaceFn func(ctx context.Context, team *model.Team) (*model.Team, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockTeamRepo) List(ctx context.Context) ([]*model.Team, error) { return m.listFn(ctx) }
func (m *mockTeamRepo) FindByID(ctx context.Context, id string) (*model.Team, error) {
	return m.findFn(ctx, id)
}
func (m *mockTeamRepo) Create(ctx context.Context, team *model.Team) error {
	return m.createFn(ctx, team)
}
func (m *mockTeamRepo) Replace(ctx context.Context, team *model.Team) (*model.Team, error) {
	return m.replaceFn(ctx, team)
}
func (m *mockTeamRepo) Delete(ctx context.Context, id string) error { return m.deleteFn(ctx, id) }

var (
	testNow = time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC)
	admin   = model.NewPrincipal("boss@x.com", []string{"admin"}, "admin")
	member  = model.NewPrincipal("a@x.com", nil, "admin")
)

func newTestService(repo *mockTeamRepo) *Service {
	s := NewService(repo, security.NewTextSanitizer(), nil, func() time.Time { return testNow })
	s.newID = func() string { return "team-1" }
	return s
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError with code %s, got %v", code, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

func TestNormalizeMembers(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nilは空", nil, []string{}},
		{"重複と大文字小文字", []string{"B@x.com", "a@x.com", "b@x.com"}, []string{"a@x.com", "b@x.com"}},
		{"空白と空要素", []string{" a@x.com ", "", "  "}, []string{"a@x.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMembers(tt.in)
			if got == nil || !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeMembers(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

func TestService_Create(t *testing.T) {
	var stored *model.Team
	repo := &mockTeamRepo{
		createFn: func(_ context.Context, team *model.Team) error {
			stored = team
			return nil
		},
	}
	s := newTestService(repo)

	team, err := s.Create(context.Background(), admin, Input{
		Name:    " Platform ",
		Members: []string{"b@x.com", "A@x.com", "b@x.com"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if team != stored {
		t.Error("Create should return the stored team")
	}
	if team.ID != "team-1" || team.Name != "Platform" {
		t.Errorf("team = %+v", team)
	}
	if !slices.Equal(team.Members, []string{"a@x.com", "b@x.com"}) {
		t.Errorf("Members = %v", team.Members)
	}
	if !team.CreatedAt.Equal(testNow) || !team.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v/%v, want %v", team.CreatedAt, team.UpdatedAt, testNow)
	}
}

func TestService_Create_Rejections(t *testing.T) {
	repo := &mockTeamRepo{
		createFn: func(context.Context, *model.Team) error {
			t.Fatal("store must not be called")
			return nil
		},
	}
	s := newTestService(repo)

	_, err := s.Create(context.Background(), member, Input{Name: "Ops"})
	assertCode(t, err, model.ErrCodeUnauthorized)

	_, err = s.Create(context.Background(), admin, Input{Name: "  "})
	assertCode(t, err, model.ErrCodeInvalidRequest)
}

func TestService_Update(t *testing.T) {
	repo := &mockTeamRepo{
		replaceFn: func(_ context.Context, team *model.Team) (*model.Team, error) {
			if team.ID == "missing" {
				return nil, repository.ErrNotFound
			}
			if !team.UpdatedAt.Equal(testNow) {
				t.Errorf("UpdatedAt = %v, want %v", team.UpdatedAt, testNow)
			}
			out := *team
			out.CreatedAt = testNow.Add(-24 * time.Hour)
			return &out, nil
		},
	}
	s := newTestService(repo)
	ctx := context.Background()

	team, err := s.Update(ctx, admin, "team-1", Input{Name: "Ops", Members: []string{"c@x.com"}})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if team.CreatedAt.Equal(testNow) {
		t.Error("Update should return the stored createdAt")
	}

	_, err = s.Update(ctx, admin, "missing", Input{Name: "Ops"})
	assertCode(t, err, model.ErrCodeTeamNotFound)

	_, err = s.Update(ctx, admin, "", Input{Name: "Ops"})
	assertCode(t, err, model.ErrCodeInvalidRequest)

	_, err = s.Update(ctx, member, "team-1", Input{Name: "Ops"})
	assertCode(t, err, model.ErrCodeUnauthorized)
}

func TestService_List_SortsByName(t *testing.T) {
	repo := &mockTeamRepo{
		listFn: func(context.Context) ([]*model.Team, error) {
			return []*model.Team{{Name: "ops"}, {Name: "Design"}, {Name: "backend"}}, nil
		},
	}
	s := newTestService(repo)

	teams, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	var names []string
	for _, tm := range teams {
		names = append(names, tm.Name)
	}
	if !slices.Equal(names, []string{"backend", "Design", "ops"}) {
		t.Errorf("names = %v", names)
	}
}

func TestService_Delete(t *testing.T) {
	repo := &mockTeamRepo{
		deleteFn: func(_ context.Context, id string) error {
			switch id {
			case "missing":
				return repository.ErrNotFound
			case "broken":
				return errors.New("timeout")
			}
			return nil
		},
	}
	s := newTestService(repo)
	ctx := context.Background()

	if err := s.Delete(ctx, admin, "team-1"); err != nil {
		t.Errorf("Delete returned error: %v", err)
	}
	assertCode(t, s.Delete(ctx, admin, "missing"), model.ErrCodeTeamNotFound)
	assertCode(t, s.Delete(ctx, admin, "broken"), model.ErrCodeStoreUnavailable)
	assertCode(t, s.Delete(ctx, member, "team-1"), model.ErrCodeUnauthorized)
}

func TestService_Get(t *testing.T) {
	repo := &mockTeamRepo{
		findFn: func(_ context.Context, id string) (*model.Team, error) {
			if id == "missing" {
				return nil, repository.ErrNotFound
			}
			return &model.Team{ID: id, Name: "Ops", Members: []string{}}, nil
		},
	}
	s := newTestService(repo)
	ctx := context.Background()

	team, err := s.Get(ctx, "team-1")
	if err != nil || team.Name != "Ops" {
		t.Errorf("Get = (%+v, %v)", team, err)
	}

	_, err = s.Get(ctx, "missing")
	assertCode(t, err, model.ErrCodeTeamNotFound)

	_, err = s.Get(ctx, "")
	assertCode(t, err, model.ErrCodeInvalidRequest)
}
