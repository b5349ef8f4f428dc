package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	ddb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/Pumpkin-cod/Task-Manager/internal/model"
)

// dynamoTeam はTeamsテーブルの1アイテム。
// membersは空でも保存できるようにリスト型で持つ（空の文字列セットは保存できない）。
type dynamoTeam struct {
	ID        string   `dynamodbav:"id"`
	Name      string   `dynamodbav:"name"`
	Members   []string `dynamodbav:"members"`
	CreatedAt string   `dynamodbav:"createdAt"`
	UpdatedAt string   `dynamodbav:"updatedAt"`
}

// DynamoTeamRepo はDynamoDBを使用したチームリポジトリ。
type DynamoTeamRepo struct {
	client DynamoClient
	table  string
}

// NewDynamoTeamRepo はDynamoTeamRepoを生成する。
func NewDynamoTeamRepo(client DynamoClient, table string) *DynamoTeamRepo {
	return &DynamoTeamRepo{client: client, table: table}
}

// List は全チームを返す。
func (r *DynamoTeamRepo) List(ctx context.Context) ([]*model.Team, error) {
	items, err := scanAll(ctx, r.client, &ddb.ScanInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		return nil, unavailable("failed to scan teams", err)
	}

	var recs []dynamoTeam
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal teams: %w", err)
	}

	teams := make([]*model.Team, len(recs))
	for i := range recs {
		teams[i] = recs[i].toModel()
	}
	return teams, nil
}

// FindByID は指定IDのチームを取得する。
func (r *DynamoTeamRepo) FindByID(ctx context.Context, id string) (*model.Team, error) {
	out, err := r.client.GetItem(ctx, &ddb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, unavailable("failed to get team", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var rec dynamoTeam
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal team: %w", err)
	}
	return rec.toModel(), nil
}

// Create はチームを作成する。
func (r *DynamoTeamRepo) Create(ctx context.Context, team *model.Team) error {
	item, err := attributevalue.MarshalMap(fromTeamModel(team))
	if err != nil {
		return fmt.Errorf("failed to marshal team: %w", err)
	}

	_, err = r.client.PutItem(ctx, &ddb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return unavailable("failed to put team", err)
	}
	return nil
}

// Replace は既存チームの名前とメンバーを置き換える。
func (r *DynamoTeamRepo) Replace(ctx context.Context, team *model.Team) (*model.Team, error) {
	rec := fromTeamModel(team)

	update := expression.Set(expression.Name("name"), expression.Value(rec.Name)).
		Set(expression.Name("members"), expression.Value(rec.Members)).
		Set(expression.Name("updatedAt"), expression.Value(rec.UpdatedAt))
	cond := expression.AttributeExists(expression.Name("id"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build team update: %w", err)
	}

	out, err := r.client.UpdateItem(ctx, &ddb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       stringKey("id", team.ID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, ErrNotFound
		}
		return nil, unavailable("failed to update team", err)
	}

	var updated dynamoTeam
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated team: %w", err)
	}
	return updated.toModel(), nil
}

// Delete は指定IDのチームを削除する。
func (r *DynamoTeamRepo) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &ddb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 stringKey("id", id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return unavailable("failed to delete team", err)
	}
	return nil
}

func (rec dynamoTeam) toModel() *model.Team {
	members := rec.Members
	if members == nil {
		members = []string{}
	}
	return &model.Team{
		ID:        rec.ID,
		Name:      rec.Name,
		Members:   members,
		CreatedAt: parseStoredTime(rec.CreatedAt),
		UpdatedAt: parseStoredTime(rec.UpdatedAt),
	}
}

func fromTeamModel(team *model.Team) dynamoTeam {
	members := team.Members
	if members == nil {
		members = []string{}
	}
	return dynamoTeam{
		ID:        team.ID,
		Name:      team.Name,
		Members:   members,
		CreatedAt: model.FormatTimestamp(team.CreatedAt),
		UpdatedAt: model.FormatTimestamp(team.UpdatedAt),
	}
}

// compile-time interface check
var _ TeamRepository = (*DynamoTeamRepo)(nil)
