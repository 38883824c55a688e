package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// CreateTaskInput carries the fields for a new task. Status defaults to
// "pending" when empty.
type CreateTaskInput struct {
	TaskID      string
	ProjectID   string
	Title       string
	Description string
	Status      string
	AssignedTo  string
	CreatedBy   string
}

// CreateTask writes the task item and then increments the project's advisory
// taskCount. The two writes are not grouped; the counter can lag or drift
// under concurrent mutations and is never used as a correctness-critical
// value.
func (s *Store) CreateTask(ctx context.Context, in CreateTaskInput) (*Task, error) {
	key, err := TaskKey(in.ProjectID, in.TaskID)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = "pending"
	}
	ts := s.timestamp()

	task := &Task{
		PK:          key.PK,
		SK:          key.SK,
		TaskID:      in.TaskID,
		ProjectID:   in.ProjectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}

	item, err := attributevalue.MarshalMap(task)
	if err != nil {
		return nil, fmt.Errorf("marshal task item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put task %s: %w", in.TaskID, err)
	}

	s.adjustTaskCount(ctx, in.ProjectID,
		"SET taskCount = if_not_exists(taskCount, :zero) + :inc",
		map[string]dynamodbtypes.AttributeValue{
			":inc":  &dynamodbtypes.AttributeValueMemberN{Value: "1"},
			":zero": &dynamodbtypes.AttributeValueMemberN{Value: "0"},
		})
	return task, nil
}

// ListProjectTasks queries all task items under a project partition.
func (s *Store) ListProjectTasks(ctx context.Context, projectID string) ([]Task, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id: %w", ErrEmptyIdentifier)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk": &dynamodbtypes.AttributeValueMemberS{Value: projectPrefix + projectID},
			":sk": &dynamodbtypes.AttributeValueMemberS{Value: taskPrefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query tasks for project %s: %w", projectID, err)
	}

	tasks := make([]Task, 0, len(out.Items))
	for _, item := range out.Items {
		var task Task
		if err := attributevalue.UnmarshalMap(item, &task); err != nil {
			return nil, fmt.Errorf("unmarshal task item: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// TaskUpdate is the sparse update payload for a task. Same semantics as
// ProjectUpdate: nil leaves the field untouched, set values are written as
// given.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	AssignedTo  *string
}

// UpdateTask applies the allow-listed fields and refreshes updatedAt.
// It returns ErrNotFound when the task does not exist.
func (s *Store) UpdateTask(ctx context.Context, projectID, taskID string, update TaskUpdate) (*Task, error) {
	key, err := TaskKey(projectID, taskID)
	if err != nil {
		return nil, err
	}

	expr := newUpdateExpression(s.timestamp())
	if update.Title != nil {
		expr.set("title", *update.Title)
	}
	if update.Description != nil {
		expr.set("description", *update.Description)
	}
	if update.Status != nil {
		expr.set("status", *update.Status)
	}
	if update.AssignedTo != nil {
		expr.set("assignedTo", *update.AssignedTo)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key.attributeValues(),
		UpdateExpression:          aws.String(expr.expression()),
		ExpressionAttributeNames:  expr.names,
		ExpressionAttributeValues: expr.values,
		ConditionExpression:       aws.String("attribute_exists(PK)"),
		ReturnValues:              dynamodbtypes.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task %s/%s: %w", projectID, taskID, err)
	}

	var task Task
	if err := attributevalue.UnmarshalMap(out.Attributes, &task); err != nil {
		return nil, fmt.Errorf("unmarshal task item: %w", err)
	}
	return &task, nil
}

// DeleteTask removes the task item and then decrements the advisory counter.
// The decrement only runs after a successful delete, but concurrent deletes
// of distinct tasks can still interleave with creates; drift is accepted.
func (s *Store) DeleteTask(ctx context.Context, projectID, taskID string) error {
	key, err := TaskKey(projectID, taskID)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 key.attributeValues(),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var ccf *dynamodbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("delete task %s/%s: %w", projectID, taskID, err)
	}

	s.adjustTaskCount(ctx, projectID,
		"SET taskCount = taskCount - :dec",
		map[string]dynamodbtypes.AttributeValue{
			":dec": &dynamodbtypes.AttributeValueMemberN{Value: "1"},
		})
	return nil
}

// adjustTaskCount updates the advisory counter on the project metadata item.
// Failures are logged and swallowed: the counter must never fail a task
// mutation, and the condition keeps a missing project from being fabricated
// as a counter-only item.
func (s *Store) adjustTaskCount(ctx context.Context, projectID, expression string, values map[string]dynamodbtypes.AttributeValue) {
	key, err := ProjectMetadataKey(projectID)
	if err != nil {
		return
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       key.attributeValues(),
		UpdateExpression:          aws.String(expression),
		ExpressionAttributeValues: values,
		ConditionExpression:       aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		s.log.Warn("task counter update failed",
			zap.String("project_id", projectID),
			zap.Error(err))
	}
}
