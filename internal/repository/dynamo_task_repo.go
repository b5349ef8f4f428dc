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

// dynamoTask はTasksテーブルの1アイテム。
type dynamoTask struct {
	ID          string `dynamodbav:"id"`
	Title       string `dynamodbav:"title"`
	Description string `dynamodbav:"description,omitempty"`
	AssignedTo  string `dynamodbav:"assignedTo,omitempty"`
	Deadline    string `dynamodbav:"deadline,omitempty"`
	Status      string `dynamodbav:"status"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt,omitempty"`
}

// DynamoTaskRepo はDynamoDBを使用したタスクリポジトリ。
type DynamoTaskRepo struct {
	client DynamoClient
	table  string
}

// NewDynamoTaskRepo はDynamoTaskRepoを生成する。
func NewDynamoTaskRepo(client DynamoClient, table string) *DynamoTaskRepo {
	return &DynamoTaskRepo{client: client, table: table}
}

// List は全タスクを返す。
func (r *DynamoTaskRepo) List(ctx context.Context) ([]*model.Task, error) {
	items, err := scanAll(ctx, r.client, &ddb.ScanInput{
		TableName: aws.String(r.table),
	})
	if err != nil {
		return nil, unavailable("failed to scan tasks", err)
	}
	return unmarshalTasks(items)
}

// ListByAssignee は指定メールアドレスに割り当てられたタスクを返す。
// assignedToのインデックスは前提にせず、フィルタ付きスキャンで取得する。
func (r *DynamoTaskRepo) ListByAssignee(ctx context.Context, email string) ([]*model.Task, error) {
	filter := expression.Name(string(model.TaskFieldAssignedTo)).Equal(expression.Value(email))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build task filter: %w", err)
	}

	items, err := scanAll(ctx, r.client, &ddb.ScanInput{
		TableName:                 aws.String(r.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, unavailable("failed to scan tasks by assignee", err)
	}
	return unmarshalTasks(items)
}

// FindByID は指定IDのタスクを取得する。
func (r *DynamoTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	out, err := r.client.GetItem(ctx, &ddb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, unavailable("failed to get task", err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var rec dynamoTask
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	return rec.toModel(), nil
}

// Create はタスクを作成する。同じIDのアイテムが既にある場合は上書きしない。
func (r *DynamoTaskRepo) Create(ctx context.Context, task *model.Task) error {
	item, err := attributevalue.MarshalMap(fromTaskModel(task))
	if err != nil {
		return fmt.Errorf("failed to marshal task: %w", err)
	}

	_, err = r.client.PutItem(ctx, &ddb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		return unavailable("failed to put task", err)
	}
	return nil
}

// Update は更新指示をUpdateItemに変換して適用する。
// attribute_exists(id)を条件にするため、存在しないIDでアイテムが作られることはない。
func (r *DynamoTaskRepo) Update(ctx context.Context, instruction *model.UpdateInstruction) (*model.Task, error) {
	expr, err := buildTaskUpdateExpression(instruction)
	if err != nil {
		return nil, err
	}

	out, err := r.client.UpdateItem(ctx, &ddb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       stringKey("id", instruction.ID),
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
		return nil, unavailable("failed to update task", err)
	}

	var rec dynamoTask
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal updated task: %w", err)
	}
	return rec.toModel(), nil
}

// Delete は指定IDのタスクを削除する。
func (r *DynamoTaskRepo) Delete(ctx context.Context, id string) error {
	_, err := r.client.DeleteItem(ctx, &ddb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 stringKey("id", id),
		ConditionExpression: aws.String("attribute_exists(id)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		return unavailable("failed to delete task", err)
	}
	return nil
}

// buildTaskUpdateExpression は更新指示をDynamoDBの更新式に変換する。
// 値のある代入はSET、Clearの代入はREMOVEにまとめる。
// 区切り文字や属性名のプレースホルダはexpressionパッケージが生成する。
func buildTaskUpdateExpression(instruction *model.UpdateInstruction) (expression.Expression, error) {
	if len(instruction.Assignments) == 0 {
		return expression.Expression{}, fmt.Errorf("update instruction for task %q has no assignments", instruction.ID)
	}

	var update expression.UpdateBuilder
	for i, a := range instruction.Assignments {
		name := expression.Name(string(a.Field))
		switch {
		case i == 0 && a.Clear:
			update = expression.Remove(name)
		case i == 0:
			update = expression.Set(name, expression.Value(a.Value))
		case a.Clear:
			update = update.Remove(name)
		default:
			update = update.Set(name, expression.Value(a.Value))
		}
	}

	cond := expression.AttributeExists(expression.Name("id"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return expression.Expression{}, fmt.Errorf("failed to build update expression: %w", err)
	}
	return expr, nil
}

func unmarshalTasks(items []map[string]types.AttributeValue) ([]*model.Task, error) {
	var recs []dynamoTask
	if err := attributevalue.UnmarshalListOfMaps(items, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
	}

	tasks := make([]*model.Task, len(recs))
	for i := range recs {
		tasks[i] = recs[i].toModel()
	}
	return tasks, nil
}

func (rec dynamoTask) toModel() *model.Task {
	task := &model.Task{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Description,
		AssignedTo:  rec.AssignedTo,
		Deadline:    rec.Deadline,
		Status:      model.TaskStatus(rec.Status),
		CreatedAt:   parseStoredTime(rec.CreatedAt),
	}
	if rec.UpdatedAt != "" {
		updatedAt := parseStoredTime(rec.UpdatedAt)
		task.UpdatedAt = &updatedAt
	}
	return task
}

func fromTaskModel(task *model.Task) dynamoTask {
	rec := dynamoTask{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  task.AssignedTo,
		Deadline:    task.Deadline,
		Status:      string(task.Status),
		CreatedAt:   model.FormatTimestamp(task.CreatedAt),
	}
	if task.UpdatedAt != nil {
		rec.UpdatedAt = model.FormatTimestamp(*task.UpdatedAt)
	}
	return rec
}

// compile-time interface check
var _ TaskRepository = (*DynamoTaskRepo)(nil)
