package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// tableReadyTimeout はテーブル作成後にACTIVEになるまで待つ最大時間。
const tableReadyTimeout = 2 * time.Minute

// TableAdmin はテーブル管理に必要なDynamoDB操作のインターフェース。
type TableAdmin interface {
	DescribeTable(ctx context.Context, params *ddb.DescribeTableInput, optFns ...func(*ddb.Options)) (*ddb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *ddb.CreateTableInput, optFns ...func(*ddb.Options)) (*ddb.CreateTableOutput, error)
}

// TableSpec は作成するテーブル名とパーティションキー名の組。
// キーはすべて文字列型。
type TableSpec struct {
	Name string
	Key  string
}

// NewDynamoClient はAWSの標準設定チェーンからDynamoDBクライアントを生成する。
// endpointが空でない場合はDynamoDB Localなどの接続先に差し替える。
func NewDynamoClient(ctx context.Context, region, endpoint string) (*ddb.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return ddb.NewFromConfig(cfg, func(o *ddb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// EnsureTables は指定されたテーブルが存在することを確認し、
// 存在しないものはオンデマンド課金で作成してACTIVEになるまで待つ。
func EnsureTables(ctx context.Context, client TableAdmin, specs []TableSpec) error {
	for _, spec := range specs {
		created, err := ensureTable(ctx, client, spec)
		if err != nil {
			return err
		}
		if created {
			slog.Info("dynamodb table created", slog.String("table", spec.Name))
		} else {
			slog.Info("dynamodb table exists", slog.String("table", spec.Name))
		}
	}
	return nil
}

func ensureTable(ctx context.Context, client TableAdmin, spec TableSpec) (bool, error) {
	_, err := client.DescribeTable(ctx, &ddb.DescribeTableInput{TableName: aws.String(spec.Name)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("failed to describe table %s: %w", spec.Name, err)
	}

	_, err = client.CreateTable(ctx, &ddb.CreateTableInput{
		TableName: aws.String(spec.Name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(spec.Key), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(spec.Key), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create table %s: %w", spec.Name, err)
	}

	waiter := ddb.NewTableExistsWaiter(client)
	if err := waiter.Wait(ctx, &ddb.DescribeTableInput{TableName: aws.String(spec.Name)}, tableReadyTimeout); err != nil {
		return true, fmt.Errorf("table %s did not become active: %w", spec.Name, err)
	}
	return true, nil
}

// PingTable はテーブルのDescribeTableでDynamoDBへの疎通を確認する。
func PingTable(ctx context.Context, client TableAdmin, table string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := client.DescribeTable(ctx, &ddb.DescribeTableInput{TableName: aws.String(table)}); err != nil {
		return fmt.Errorf("failed to describe table %s: %w", table, err)
	}
	return nil
}
