package repository

import (
	"context"
	"errors"
	"time"

	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// DynamoClient はリポジトリが使用するDynamoDB操作のインターフェース。
// 本番では*dynamodb.Clientを、テストではスタブを渡す。
type DynamoClient interface {
	GetItem(ctx context.Context, params *ddb.GetItemInput, optFns ...func(*ddb.Options)) (*ddb.GetItemOutput, error)
	PutItem(ctx context.Context, params *ddb.PutItemInput, optFns ...func(*ddb.Options)) (*ddb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *ddb.UpdateItemInput, optFns ...func(*ddb.Options)) (*ddb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *ddb.DeleteItemInput, optFns ...func(*ddb.Options)) (*ddb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *ddb.ScanInput, optFns ...func(*ddb.Options)) (*ddb.ScanOutput, error)
}

// stringKey はパーティションキーが文字列のテーブル用のキーを生成する。
func stringKey(name, value string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		name: &types.AttributeValueMemberS{Value: value},
	}
}

// isConditionFailed は条件付き書き込みが条件不一致で失敗したかを返す。
func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// scanAll はページングしながらスキャン結果を全件取得する。
func scanAll(ctx context.Context, client DynamoClient, input *ddb.ScanInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue

	paginator := ddb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items = append(items, page.Items...)
	}

	return items, nil
}

// parseStoredTime は保存済みタイムスタンプを解析する。
// 空文字列や解析できない値はゼロ値として扱う。
func parseStoredTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := model.ParseTimestamp(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
