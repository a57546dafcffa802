package dynamo

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const fakePageSize = 2

// fakeAPI is an in-memory DynamoDB covering the calls Store makes.
// Pages are capped at fakePageSize items so paginators take several round trips.
type fakeAPI struct {
	mu      sync.Mutex
	keys    map[string]string // table -> hash key attribute
	tables  map[string]map[string]map[string]types.AttributeValue
	queries []*dynamodb.QueryInput
	failPut error
}

func newFakeAPI(cfg Config) *fakeAPI {
	return &fakeAPI{
		keys: map[string]string{cfg.UsersTable: "userId", cfg.ListsTable: "listId"},
		tables: map[string]map[string]map[string]types.AttributeValue{
			cfg.UsersTable: {},
			cfg.ListsTable: {},
		},
	}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func (f *fakeAPI) table(name *string) (map[string]map[string]types.AttributeValue, string, error) {
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, "", &types.ResourceNotFoundException{Message: aws.String("no table " + aws.ToString(name))}
	}
	return t, f.keys[aws.ToString(name)], nil
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, key, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: t[str(in.Key[key])]}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failPut != nil {
		return nil, f.failPut
	}
	t, key, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	id := str(in.Item[key])
	if in.ConditionExpression != nil {
		if _, exists := t[id]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	t[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, in)
	t, key, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	owner := str(in.ExpressionAttributeValues[":owner"])

	var matched []map[string]types.AttributeValue
	for _, item := range t {
		if str(item["ownerId"]) == owner {
			matched = append(matched, item)
		}
	}
	items, last := page(matched, key, in.ExclusiveStartKey)
	return &dynamodb.QueryOutput{Items: items, LastEvaluatedKey: last}, nil
}

func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, key, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	all := make([]map[string]types.AttributeValue, 0, len(t))
	for _, item := range t {
		all = append(all, item)
	}
	items, last := page(all, key, in.ExclusiveStartKey)
	return &dynamodb.ScanOutput{Items: items, LastEvaluatedKey: last}, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableName: in.TableName}}, nil
}

// page orders items by key and returns the page after start.
func page(items []map[string]types.AttributeValue, key string, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	sort.Slice(items, func(i, j int) bool { return str(items[i][key]) < str(items[j][key]) })

	from := 0
	if start != nil {
		after := str(start[key])
		from = sort.Search(len(items), func(i int) bool { return str(items[i][key]) > after })
	}
	to := from + fakePageSize
	if to >= len(items) {
		return items[from:], nil
	}
	return items[from:to], map[string]types.AttributeValue{key: items[to-1][key]}
}

var errThrottled = errors.New("throughput exceeded")
