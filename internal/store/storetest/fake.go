// Package storetest provides an in-memory DynamoDB API fake covering the
// exact request shapes the store issues: point reads and writes, partition
// queries with begins_with, the EmailIndex lookup, sparse SET updates with
// counter arithmetic, and conditional existence checks. It is not a general
// DynamoDB emulator.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	partitionKey = "PK"
	sortKey      = "SK"
	emailIndex   = "EmailIndex"
)

type item = map[string]types.AttributeValue

// Fake is a thread-safe in-memory single table.
type Fake struct {
	mu    sync.Mutex
	table string
	items map[string]item
}

// New creates an empty Fake for the given table name.
func New(table string) *Fake {
	return &Fake{table: table, items: make(map[string]item)}
}

// Len reports the number of stored items.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func itemKey(it item) (string, error) {
	pk, ok := it[partitionKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("item missing string %s", partitionKey)
	}
	sk, ok := it[sortKey].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("item missing string %s", sortKey)
	}
	return pk.Value + "\x00" + sk.Value, nil
}

func copyItem(it item) item {
	out := make(item, len(it))
	for k, v := range it {
		out[k] = v
	}
	return out
}

func strAttr(it item, name string) string {
	if v, ok := it[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func (f *Fake) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	it, ok := f.items[key]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(it)}, nil
}

func (f *Fake) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, err := itemKey(params.Item)
	if err != nil {
		return nil, err
	}
	f.items[key] = copyItem(params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}
	if _, ok := f.items[key]; !ok && requiresExistence(params.ConditionExpression) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("item does not exist")}
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *Fake) Query(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []item

	if aws.ToString(params.IndexName) == emailIndex {
		want, ok := params.ExpressionAttributeValues[":email"].(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("email query missing :email value")
		}
		for _, it := range f.items {
			if strAttr(it, "email") == want.Value && strAttr(it, sortKey) == "PROFILE" {
				matched = append(matched, copyItem(it))
			}
		}
	} else {
		pk, ok := params.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("query missing :pk value")
		}
		var skPrefix string
		if strings.Contains(aws.ToString(params.KeyConditionExpression), "begins_with") {
			sk, ok := params.ExpressionAttributeValues[":sk"].(*types.AttributeValueMemberS)
			if !ok {
				return nil, fmt.Errorf("query missing :sk value")
			}
			skPrefix = sk.Value
		}
		for _, it := range f.items {
			if strAttr(it, partitionKey) != pk.Value {
				continue
			}
			if skPrefix != "" && !strings.HasPrefix(strAttr(it, sortKey), skPrefix) {
				continue
			}
			matched = append(matched, copyItem(it))
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return strAttr(matched[i], sortKey) < strAttr(matched[j], sortKey)
	})

	if params.Limit != nil && len(matched) > int(*params.Limit) {
		matched = matched[:*params.Limit]
	}

	return &dynamodb.QueryOutput{
		Items: matched,
		Count: int32(len(matched)),
	}, nil
}

func (f *Fake) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key, err := itemKey(params.Key)
	if err != nil {
		return nil, err
	}

	it, exists := f.items[key]
	if !exists {
		if requiresExistence(params.ConditionExpression) {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("item does not exist")}
		}
		it = copyItem(params.Key)
	} else {
		it = copyItem(it)
	}

	if err := applyUpdate(it, aws.ToString(params.UpdateExpression), params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
		return nil, err
	}
	f.items[key] = it

	out := &dynamodb.UpdateItemOutput{}
	if params.ReturnValues == types.ReturnValueAllNew {
		out.Attributes = copyItem(it)
	}
	return out, nil
}

func (f *Fake) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, requests := range params.RequestItems {
		for _, req := range requests {
			switch {
			case req.PutRequest != nil:
				key, err := itemKey(req.PutRequest.Item)
				if err != nil {
					return nil, err
				}
				f.items[key] = copyItem(req.PutRequest.Item)
			case req.DeleteRequest != nil:
				key, err := itemKey(req.DeleteRequest.Key)
				if err != nil {
					return nil, err
				}
				delete(f.items, key)
			}
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func (f *Fake) DescribeTable(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   params.TableName,
			TableStatus: types.TableStatusActive,
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(partitionKey), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange},
			},
			GlobalSecondaryIndexes: []types.GlobalSecondaryIndexDescription{
				{IndexName: aws.String(emailIndex)},
			},
		},
	}, nil
}

func requiresExistence(cond *string) bool {
	return strings.Contains(aws.ToString(cond), "attribute_exists")
}

// applyUpdate interprets the SET expressions the store generates: plain
// assignments, if_not_exists(...) + :inc, and attr - :dec.
func applyUpdate(it item, expression string, names map[string]string, values map[string]types.AttributeValue) error {
	expr := strings.TrimPrefix(expression, "SET ")
	if expr == expression {
		return fmt.Errorf("unsupported update expression %q", expression)
	}

	for _, clause := range splitClauses(expr) {
		lhs, rhs, found := strings.Cut(clause, " = ")
		if !found {
			return fmt.Errorf("unsupported clause %q", clause)
		}

		attr := strings.TrimSpace(lhs)
		if strings.HasPrefix(attr, "#") {
			resolved, ok := names[attr]
			if !ok {
				return fmt.Errorf("unresolved attribute name %q", attr)
			}
			attr = resolved
		}

		value, err := evalOperand(it, strings.TrimSpace(rhs), values)
		if err != nil {
			return err
		}
		it[attr] = value
	}
	return nil
}

func evalOperand(it item, rhs string, values map[string]types.AttributeValue) (types.AttributeValue, error) {
	switch {
	case strings.Contains(rhs, " + "):
		left, right, _ := strings.Cut(rhs, " + ")
		a, err := evalNumeric(it, strings.TrimSpace(left), values)
		if err != nil {
			return nil, err
		}
		b, err := evalNumeric(it, strings.TrimSpace(right), values)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberN{Value: strconv.Itoa(a + b)}, nil
	case strings.Contains(rhs, " - "):
		left, right, _ := strings.Cut(rhs, " - ")
		a, err := evalNumeric(it, strings.TrimSpace(left), values)
		if err != nil {
			return nil, err
		}
		b, err := evalNumeric(it, strings.TrimSpace(right), values)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberN{Value: strconv.Itoa(a - b)}, nil
	case strings.HasPrefix(rhs, ":"):
		v, ok := values[rhs]
		if !ok {
			return nil, fmt.Errorf("unresolved value placeholder %q", rhs)
		}
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported operand %q", rhs)
	}
}

func evalNumeric(it item, operand string, values map[string]types.AttributeValue) (int, error) {
	if inner, ok := strings.CutPrefix(operand, "if_not_exists("); ok {
		inner = strings.TrimSuffix(inner, ")")
		attr, fallback, found := strings.Cut(inner, ",")
		if !found {
			return 0, fmt.Errorf("malformed if_not_exists in %q", operand)
		}
		if v, ok := it[strings.TrimSpace(attr)]; ok {
			return numericValue(v)
		}
		return evalNumeric(it, strings.TrimSpace(fallback), values)
	}
	if strings.HasPrefix(operand, ":") {
		v, ok := values[operand]
		if !ok {
			return 0, fmt.Errorf("unresolved value placeholder %q", operand)
		}
		return numericValue(v)
	}
	if v, ok := it[operand]; ok {
		return numericValue(v)
	}
	return 0, fmt.Errorf("missing attribute %q", operand)
}

func numericValue(v types.AttributeValue) (int, error) {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute value %T is not numeric", v)
	}
	return strconv.Atoi(n.Value)
}

// splitClauses splits a SET body on commas outside parentheses.
func splitClauses(expr string) []string {
	var clauses []string
	depth, start := 0, 0
	for i, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				clauses = append(clauses, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	clauses = append(clauses, strings.TrimSpace(expr[start:]))
	return clauses
}
