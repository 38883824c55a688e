package store

import (
	"fmt"
	"strings"

	dynamodbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// updateExpression accumulates a sparse SET expression. Every update
// refreshes updatedAt; further fields are added via set. Attribute names go
// through expression-name placeholders because "name" and "status" are
// DynamoDB reserved words.
type updateExpression struct {
	clauses []string
	names   map[string]string
	values  map[string]dynamodbtypes.AttributeValue
}

func newUpdateExpression(timestamp string) *updateExpression {
	return &updateExpression{
		clauses: []string{"updatedAt = :timestamp"},
		names:   map[string]string{},
		values: map[string]dynamodbtypes.AttributeValue{
			":timestamp": &dynamodbtypes.AttributeValueMemberS{Value: timestamp},
		},
	}
}

func (e *updateExpression) set(attr, value string) {
	e.clauses = append(e.clauses, fmt.Sprintf("#%s = :%s", attr, attr))
	e.names["#"+attr] = attr
	e.values[":"+attr] = &dynamodbtypes.AttributeValueMemberS{Value: value}
}

func (e *updateExpression) expression() string {
	return "SET " + strings.Join(e.clauses, ", ")
}
