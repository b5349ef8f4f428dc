package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/Pumpkin-cod/Task-Manager/internal/config"
	"github.com/Pumpkin-cod/Task-Manager/internal/database"
	"github.com/Pumpkin-cod/Task-Manager/internal/repository"
)

// stores は設定されたバックエンドのリポジトリ群。
type stores struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	teams repository.TeamRepository

	// ping はヘルスチェックで使う疎通確認。
	ping func(ctx context.Context) error
	// close は接続を解放する。
	close func() error
}

// openStores はSTORE_BACKENDに応じてリポジトリを構築する。
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := database.Ping(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		slog.Info("database connection established")
		return postgresStores(db), nil

	case config.StoreDynamoDB:
		client, err := database.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, err
		}
		slog.Info("dynamodb client configured",
			slog.String("region", cfg.AWSRegion),
			slog.String("tasks_table", cfg.TasksTable),
		)
		return dynamoStores(client, cfg), nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func postgresStores(db *sql.DB) *stores {
	return &stores{
		tasks: repository.NewPostgresTaskRepo(db),
		users: repository.NewPostgresUserRepo(db),
		teams: repository.NewPostgresTeamRepo(db),
		ping: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
		close: db.Close,
	}
}

func dynamoStores(client *ddb.Client, cfg *config.Config) *stores {
	return &stores{
		tasks: repository.NewDynamoTaskRepo(client, cfg.TasksTable),
		users: repository.NewDynamoUserRepo(client, cfg.UsersTable),
		teams: repository.NewDynamoTeamRepo(client, cfg.TeamsTable),
		ping: func(ctx context.Context) error {
			return database.PingTable(ctx, client, cfg.TasksTable)
		},
		close: func() error { return nil },
	}
}

// dynamoTableSpecs はmigrateで作成するDynamoDBテーブルの一覧。
func dynamoTableSpecs(cfg *config.Config) []database.TableSpec {
	return []database.TableSpec{
		{Name: cfg.TasksTable, Key: "id"},
		{Name: cfg.UsersTable, Key: "email"},
		{Name: cfg.TeamsTable, Key: "id"},
	}
}
