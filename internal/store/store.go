// Package store implements the data-access layer over a single DynamoDB
// table. Three entity kinds (user, project, task) and two relationship kinds
// (membership, user-project relation) share one keyspace under composite
// PK/SK keys; the fixed access patterns below never need joins.
//
// Consistency model: DynamoDB gives per-item atomicity only. Project creation
// writes three related items in one batch without a transaction, and task
// counters are maintained by separate increments, so denormalized copies are
// best-effort. Callers must not treat taskCount as exact.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const (
	// PartitionKey and SortKey are the table's key attribute names.
	PartitionKey = "PK"
	SortKey      = "SK"

	// EmailIndex is the GSI mapping email -> user profile. Email uniqueness
	// is enforced by a lookup before write, not by a constraint.
	EmailIndex = "EmailIndex"
	emailAttr  = "email"
)

// DynamoAPI is the narrow slice of the DynamoDB client the store consumes.
// Tests inject an in-memory implementation.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Store provides all table operations. It holds no request state; one Store
// is shared by every request goroutine.
type Store struct {
	client DynamoAPI
	table  string
	log    *zap.Logger
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the timestamp source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store bound to the given client and table.
func New(client DynamoAPI, table string, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		client: client,
		table:  table,
		log:    logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// timestamp returns the current time as a fixed-width UTC string so that
// lexicographic order matches chronological order.
func (s *Store) timestamp() string {
	return s.now().UTC().Format("2006-01-02T15:04:05.000000Z07:00")
}

func (k ItemKey) attributeValues() map[string]dynamodbtypes.AttributeValue {
	return map[string]dynamodbtypes.AttributeValue{
		PartitionKey: &dynamodbtypes.AttributeValueMemberS{Value: k.PK},
		SortKey:      &dynamodbtypes.AttributeValueMemberS{Value: k.SK},
	}
}

// ValidateSchema checks that the table exists, is active, uses the expected
// composite key, and carries the EmailIndex GSI. Call it once at startup.
func (s *Store) ValidateSchema(ctx context.Context) error {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.table, err)
	}

	if out.Table.TableStatus != dynamodbtypes.TableStatusActive {
		return fmt.Errorf("table %s is not active (status: %s)", s.table, out.Table.TableStatus)
	}
	if len(out.Table.KeySchema) < 2 {
		return fmt.Errorf("table %s has a simple primary key, expected composite", s.table)
	}
	if got := aws.ToString(out.Table.KeySchema[0].AttributeName); got != PartitionKey {
		return fmt.Errorf("table %s has partition key %s, expected %s", s.table, got, PartitionKey)
	}
	if got := aws.ToString(out.Table.KeySchema[1].AttributeName); got != SortKey {
		return fmt.Errorf("table %s has sort key %s, expected %s", s.table, got, SortKey)
	}

	for _, gsi := range out.Table.GlobalSecondaryIndexes {
		if aws.ToString(gsi.IndexName) == EmailIndex {
			return nil
		}
	}
	return fmt.Errorf("table %s is missing the %s index", s.table, EmailIndex)
}

// Ping reports whether the table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	return err
}
