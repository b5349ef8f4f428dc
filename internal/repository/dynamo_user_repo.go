package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// dynamoUser はUsersテーブルの1アイテム。
type dynamoUser struct {
	Email  string `dynamodbav:"email"`
	Name   string `dynamodbav:"name,omitempty"`
	Role   string `dynamodbav:"role"`
	TeamID string `dynamodbav:"teamId,omitempty"`
}

// DynamoUserRepo はDynamoDBを使用したユーザーリポジトリ。
type DynamoUserRepo struct {
	client DynamoClient
	table  string
}

// NewDynamoUserRepo はDynamoUserRepoを生成する。
func NewDynamoUserRepo(client DynamoClient, table string) *DynamoUserRepo {
	return &DynamoUserRepo{client: client, table: table}
}

// ListByRole はroleが一致するユーザーをフィルタ付きスキャンで返す。
func (r *DynamoUserRepo) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	filter := expression.Name("role").Equal(expression.Value(string(role)))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build user filter: %w", err)
	}

	items, err := scanAll(ctx, r.client, &ddb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, unavailable("failed to scan users", err)
	}

	var recs []dynamoUser
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal users: %w", err)
	}

	users := make([]*model.User, len(recs))
	for i, rec := range recs {
		users[i] = &model.User{
			Email:  rec.Email,
			Name:   rec.Name,
			Role:   model.Role(rec.Role),
			TeamID: rec.TeamID,
		}
	}
	return users, nil
}

// Upsert はメールアドレスをキーにユーザーを作成または更新する。
// roleは常に上書きし、nameとteamIdは値がある場合のみ上書きする。
func (r *DynamoUserRepo) Upsert(ctx context.Context, user *model.User) error {
	update := expression.Set(expression.Name("role"), expression.Value(string(user.Role)))
	if user.Name != "" {
		update = update.Set(expression.Name("name"), expression.Value(user.Name))
	}
	if user.TeamID != "" {
		update = update.Set(expression.Name("teamId"), expression.Value(user.TeamID))
	}

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("failed to build user update: %w", err)
	}

	_, err = r.client.UpdateItem(ctx, &ddb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       stringKey("email", user.Email),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return unavailable("failed to upsert user", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*DynamoUserRepo)(nil)
