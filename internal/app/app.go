// Package app はサブコマンドの解析、依存関係のワイヤリング、プロセスのライフサイクルを扱う。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Pumpkin-cod/Task-Manager/internal/auth"
	"github.com/Pumpkin-cod/Task-Manager/internal/cache"
	"github.com/Pumpkin-cod/Task-Manager/internal/config"
	"github.com/Pumpkin-cod/Task-Manager/internal/database"
	"github.com/Pumpkin-cod/Task-Manager/internal/handler"
	"github.com/Pumpkin-cod/Task-Manager/internal/logger"
	"github.com/Pumpkin-cod/Task-Manager/internal/metrics"
	"github.com/Pumpkin-cod/Task-Manager/internal/middleware"
	"github.com/Pumpkin-cod/Task-Manager/internal/security"
	"github.com/Pumpkin-cod/Task-Manager/internal/task"
	"github.com/Pumpkin-cod/Task-Manager/internal/team"
	"github.com/Pumpkin-cod/Task-Manager/internal/user"
)

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. .envと環境変数から設定を読み込む
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再初期化
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(fmt.Sprintf("http://localhost:%s/health", port))
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("store", cfg.StoreBackend),
		slog.String("port", cfg.ServerPort),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case CommandLambda:
		return runLambda(ctx, cfg)
	case CommandMigrate:
		return runMigrate(ctx, cfg)
	default:
		return runServe(ctx, cfg)
	}
}

// application はワイヤリング済みのHTTPハンドラーと、その後始末を保持する。
type application struct {
	handler  http.Handler
	shutdown func()
}

// build はリポジトリ、サービス、ミドルウェアを組み立ててルーターを構築する。
func build(ctx context.Context, cfg *config.Config) (*application, error) {
	// 1. レコードストア
	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 2. IDトークン検証
	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		st.close()
		return nil, err
	}

	// 3. メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	// 4. メンバー一覧キャッシュ（REDIS_URLが設定されている場合のみ）
	var memberCache user.MemberCache
	closeCache := func() error { return nil }
	if cfg.RedisURL != "" {
		client, err := cache.NewRedisClient(cfg.RedisURL)
		if err != nil {
			st.close()
			return nil, err
		}
		memberCache = cache.NewMemberCache(client, cfg.MemberCacheTTL)
		closeCache = client.Close
		slog.Info("member cache enabled", slog.Duration("ttl", cfg.MemberCacheTTL))
	}

	// 5. ドメインサービス
	sanitizer := security.NewTextSanitizer()
	taskService := task.NewService(st.tasks, sanitizer, collector, nil)
	teamService := team.NewService(st.teams, sanitizer, collector, nil)
	userService := user.NewService(st.users, memberCache, collector)

	// 6. ルーター
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitWrite),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Verifier:          verifier,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		Recorder:          collector,
		HealthCheck:       st.ping,
		MetricsHandler:    metrics.Handler(reg),
		TaskService:       taskService,
		TeamService:       teamService,
		UserService:       userService,
	})

	return &application{
		handler: router,
		shutdown: func() {
			rateLimiter.Stop()
			if err := closeCache(); err != nil {
				slog.Warn("failed to close redis client", slog.String("error", err.Error()))
			}
			if err := st.close(); err != nil {
				slog.Warn("failed to close store", slog.String("error", err.Error()))
			}
		},
	}, nil
}

// newVerifier はJWKS URLがあればRS256、なければHMACシークレットのVerifierを返す。
func newVerifier(ctx context.Context, cfg *config.Config) (auth.Verifier, error) {
	opts := auth.Options{
		Issuer:      cfg.Issuer,
		Audience:    cfg.Audience,
		GroupsClaim: cfg.GroupsClaim,
		AdminGroup:  cfg.AdminGroup,
	}
	if cfg.JWKSURL != "" {
		return auth.NewJWKSVerifier(ctx, cfg.JWKSURL, opts)
	}
	slog.Warn("using HMAC token verification; intended for local development only")
	return auth.NewHMACVerifier([]byte(cfg.JWTSecret), opts), nil
}

// runServe はAPIサーバーモードで起動する。
// ctxがキャンセルされる（SIGINT/SIGTERM）とグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.shutdown()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runLambda はAPI GatewayのプロキシイベントをルーターへブリッジしてLambdaハンドラーとして動作する。
func runLambda(ctx context.Context, cfg *config.Config) error {
	a, err := build(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.shutdown()

	slog.Info("lambda handler starting")
	lambda.StartWithOptions(
		httpadapter.New(a.handler).ProxyWithContext,
		lambda.WithContext(ctx),
		lambda.WithEnableSIGTERM(func() {
			slog.Info("lambda runtime shutting down")
		}),
	)
	return nil
}

// runMigrate はレコードストアのスキーマを準備する。
func runMigrate(ctx context.Context, cfg *config.Config) error {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		slog.Info("running database migrations",
			slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
		)
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations completed successfully")
		return nil

	default:
		client, err := database.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return err
		}
		if err := database.EnsureTables(ctx, client, dynamoTableSpecs(cfg)); err != nil {
			return fmt.Errorf("table setup failed: %w", err)
		}
		slog.Info("dynamodb tables ready")
		return nil
	}
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(healthURL string) error {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(healthURL)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
