package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Pumpkin-cod/Task-Manager/internal/auth"
	"github.com/Pumpkin-cod/Task-Manager/internal/metrics"
	"github.com/Pumpkin-cod/Task-Manager/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          auth.Verifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	Recorder          metrics.Recorder

	// 運用エンドポイント
	HealthCheck    HealthCheckFunc
	MetricsHandler http.Handler

	// サービス
	TaskService TaskServiceInterface
	TeamService TeamServiceInterface
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → Metrics → Auth → RateLimit(General, Write) → RequireAdmin
//
// /health と /metrics は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(recorder))

	taskHandler := NewTaskHandler(deps.TaskService)
	teamHandler := NewTeamHandler(deps.TeamService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthCheck))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier))
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
			r.Use(deps.RateLimiter.WriteMiddleware())
		}

		r.Get("/me", userHandler.Me)
		r.With(middleware.RequireAdmin).Get("/users", userHandler.ListUsers)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.ListTasks)
			r.With(middleware.RequireAdmin).Post("/", taskHandler.CreateTask)
			r.With(middleware.RequireAdmin).Put("/", taskHandler.UpdateTask)
			r.With(middleware.RequireAdmin).Patch("/", taskHandler.UpdateTask)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", taskHandler.GetTask)
				// 担当者も実行できるため、ロールの判定はサービス層で行う
				r.Patch("/status", taskHandler.UpdateTaskStatus)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Put("/", taskHandler.UpdateTask)
					r.Patch("/", taskHandler.UpdateTask)
					r.Delete("/", taskHandler.DeleteTask)
				})
			})
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", teamHandler.ListTeams)
			r.With(middleware.RequireAdmin).Post("/", teamHandler.CreateTeam)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", teamHandler.GetTeam)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Put("/", teamHandler.UpdateTeam)
					r.Delete("/", teamHandler.DeleteTeam)
				})
			})
		})
	})

	return r
}
