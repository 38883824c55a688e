package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// CreateProjectInput carries the fields for a new project. Status defaults
// to "active" when empty.
type CreateProjectInput struct {
	ProjectID   string
	Name        string
	Description string
	Status      string
	OwnerID     string
	OwnerName   string
}

// CreateProject writes the project metadata, the owner membership record,
// and the owner's user-project relation as one batch. The batch is a single
// request but not a transaction: a partial failure can leave an inconsistent
// project. That gap is accepted by design.
func (s *Store) CreateProject(ctx context.Context, in CreateProjectInput) (*Project, error) {
	metaKey, err := ProjectMetadataKey(in.ProjectID)
	if err != nil {
		return nil, err
	}
	memberKey, err := ProjectMemberKey(in.ProjectID, in.OwnerID)
	if err != nil {
		return nil, err
	}
	relationKey, err := UserProjectKey(in.OwnerID, in.ProjectID)
	if err != nil {
		return nil, err
	}

	if in.Status == "" {
		in.Status = "active"
	}
	ts := s.timestamp()

	project := &Project{
		PK:            metaKey.PK,
		SK:            metaKey.SK,
		ProjectID:     in.ProjectID,
		Name:          in.Name,
		Description:   in.Description,
		Status:        in.Status,
		CreatedBy:     in.OwnerID,
		CreatedByName: in.OwnerName,
		CreatedAt:     ts,
		UpdatedAt:     ts,
		TaskCount:     0,
		MemberCount:   1,
	}
	member := &Member{
		PK:       memberKey.PK,
		SK:       memberKey.SK,
		UserID:   in.OwnerID,
		UserName: in.OwnerName,
		Role:     RoleOwner,
		JoinedAt: ts,
	}
	relation := &Membership{
		PK:          relationKey.PK,
		SK:          relationKey.SK,
		ProjectID:   in.ProjectID,
		ProjectName: in.Name,
		Role:        RoleOwner,
		JoinedAt:    ts,
	}

	requests := make([]dynamodbtypes.WriteRequest, 0, 3)
	for _, rec := range []any{project, member, relation} {
		item, err := attributevalue.MarshalMap(rec)
		if err != nil {
			return nil, fmt.Errorf("marshal project item: %w", err)
		}
		requests = append(requests, dynamodbtypes.WriteRequest{
			PutRequest: &dynamodbtypes.PutRequest{Item: item},
		})
	}

	if _, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]dynamodbtypes.WriteRequest{s.table: requests},
	}); err != nil {
		return nil, fmt.Errorf("batch write project %s: %w", in.ProjectID, err)
	}

	project.UserRole = RoleOwner
	return project, nil
}

// ListUserProjects queries the user's relation items and fans out one
// metadata read per project, merging the caller's role into each result.
// The N+1 read pattern is acceptable at the expected per-user project
// counts. Relations whose metadata has been deleted are skipped.
func (s *Store) ListUserProjects(ctx context.Context, userID string) ([]Project, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id: %w", ErrEmptyIdentifier)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk": &dynamodbtypes.AttributeValueMemberS{Value: userPrefix + userID},
			":sk": &dynamodbtypes.AttributeValueMemberS{Value: projectPrefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query projects for user %s: %w", userID, err)
	}

	projects := make([]Project, 0, len(out.Items))
	for _, item := range out.Items {
		var rel Membership
		if err := attributevalue.UnmarshalMap(item, &rel); err != nil {
			return nil, fmt.Errorf("unmarshal relation item: %w", err)
		}

		projectID := rel.ProjectID
		if projectID == "" {
			projectID = strings.TrimPrefix(rel.SK, projectPrefix)
		}

		project, err := s.GetProject(ctx, projectID)
		if errors.Is(err, ErrNotFound) {
			// Orphaned relation left behind by a non-cascading delete.
			s.log.Warn("skipping relation without project metadata",
				zap.String("user_id", userID),
				zap.String("project_id", projectID))
			continue
		}
		if err != nil {
			return nil, err
		}

		project.UserRole = rel.Role
		if project.UserRole == "" {
			project.UserRole = RoleMember
		}
		projects = append(projects, *project)
	}
	return projects, nil
}

// GetProject point-reads project metadata.
func (s *Store) GetProject(ctx context.Context, projectID string) (*Project, error) {
	key, err := ProjectMetadataKey(projectID)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key.attributeValues(),
	})
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var project Project
	if err := attributevalue.UnmarshalMap(out.Item, &project); err != nil {
		return nil, fmt.Errorf("unmarshal project item: %w", err)
	}
	return &project, nil
}

// ProjectUpdate is the sparse update payload for a project. Nil fields are
// left untouched; set fields are written as given, including empty strings.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *string
}

// UpdateProject applies the allow-listed fields and refreshes updatedAt.
// It returns ErrNotFound when the metadata item does not exist.
func (s *Store) UpdateProject(ctx context.Context, projectID string, update ProjectUpdate) (*Project, error) {
	key, err := ProjectMetadataKey(projectID)
	if err != nil {
		return nil, err
	}

	expr := newUpdateExpression(s.timestamp())
	if update.Name != nil {
		expr.set("name", *update.Name)
	}
	if update.Description != nil {
		expr.set("description", *update.Description)
	}
	if update.Status != nil {
		expr.set("status", *update.Status)
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
		return nil, fmt.Errorf("update project %s: %w", projectID, err)
	}

	var project Project
	if err := attributevalue.UnmarshalMap(out.Attributes, &project); err != nil {
		return nil, fmt.Errorf("unmarshal project item: %w", err)
	}
	return &project, nil
}

// DeleteProject removes the metadata item only. Member, task, and relation
// records are not cascaded and become orphaned; ListUserProjects tolerates
// them.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	key, err := ProjectMetadataKey(projectID)
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
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	return nil
}

// CheckAccess point-reads the caller's relation to a project. It returns
// (nil, nil) when the user is not a member. Every protected project and task
// operation calls this before touching project data.
func (s *Store) CheckAccess(ctx context.Context, userID, projectID string) (*Membership, error) {
	key, err := UserProjectKey(userID, projectID)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key.attributeValues(),
	})
	if err != nil {
		return nil, fmt.Errorf("get membership %s/%s: %w", userID, projectID, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var membership Membership
	if err := attributevalue.UnmarshalMap(out.Item, &membership); err != nil {
		return nil, fmt.Errorf("unmarshal membership item: %w", err)
	}
	return &membership, nil
}

// ListMembers queries the membership records of a project.
func (s *Store) ListMembers(ctx context.Context, projectID string) ([]Member, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id: %w", ErrEmptyIdentifier)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :sk)"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":pk": &dynamodbtypes.AttributeValueMemberS{Value: projectPrefix + projectID},
			":sk": &dynamodbtypes.AttributeValueMemberS{Value: memberPrefix},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query members for project %s: %w", projectID, err)
	}

	members := make([]Member, 0, len(out.Items))
	for _, item := range out.Items {
		var member Member
		if err := attributevalue.UnmarshalMap(item, &member); err != nil {
			return nil, fmt.Errorf("unmarshal member item: %w", err)
		}
		members = append(members, member)
	}
	return members, nil
}
