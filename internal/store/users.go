package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// CreateUser writes a user profile item. The caller is responsible for the
// preceding email uniqueness lookup; two concurrent registrations with the
// same email can race past it.
func (s *Store) CreateUser(ctx context.Context, userID, email, name, passwordHash string) (*User, error) {
	key, err := UserProfileKey(userID)
	if err != nil {
		return nil, err
	}

	user := &User{
		PK:           key.PK,
		SK:           key.SK,
		UserID:       userID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    s.timestamp(),
	}

	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return nil, fmt.Errorf("marshal user item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return nil, fmt.Errorf("put user %s: %w", userID, err)
	}
	return user, nil
}

// GetUserByEmail looks up a profile through the EmailIndex GSI. It returns
// (nil, nil) when no user has the given email. At most one record is
// returned; uniqueness is a convention, not a constraint.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		IndexName:              aws.String(EmailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]dynamodbtypes.AttributeValue{
			":email": &dynamodbtypes.AttributeValueMemberS{Value: email},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", EmailIndex, err)
	}

	if len(out.Items) == 0 {
		return nil, nil
	}

	var user User
	if err := attributevalue.UnmarshalMap(out.Items[0], &user); err != nil {
		return nil, fmt.Errorf("unmarshal user item: %w", err)
	}
	return &user, nil
}

// GetUserByID point-reads a user profile.
func (s *Store) GetUserByID(ctx context.Context, userID string) (*User, error) {
	key, err := UserProfileKey(userID)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key.attributeValues(),
	})
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}

	var user User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user item: %w", err)
	}
	return &user, nil
}
