// Package dynamo is the DynamoDB store backend. Users and lists live in
// separate tables; lists are read by owner through a global secondary index.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/reeltrack/reeltrack/internal/model"
	"github.com/reeltrack/reeltrack/internal/repository"
)

// API is the subset of the DynamoDB client the store uses.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Config names the tables and index backing the store.
type Config struct {
	Region     string
	Endpoint   string
	UsersTable string
	ListsTable string
	OwnerIndex string
}

// Store implements repository.Store on DynamoDB.
type Store struct {
	api        API
	usersTable string
	listsTable string
	ownerIndex string
}

var _ repository.Store = (*Store)(nil)

// New builds a client from the default AWS credential chain.
// A non-empty Endpoint targets a local DynamoDB.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	s := NewWithAPI(client, cfg)
	if err := s.Ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// NewWithAPI wraps an existing client.
func NewWithAPI(api API, cfg Config) *Store {
	return &Store{
		api:        api,
		usersTable: cfg.UsersTable,
		listsTable: cfg.ListsTable,
		ownerIndex: cfg.OwnerIndex,
	}
}

// Ping checks that the users table is reachable.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.usersTable)})
	if err != nil {
		return fmt.Errorf("describe table %s: %w", s.usersTable, err)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*model.User, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.usersTable),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, repository.ErrUserNotFound
	}

	var user model.User
	if err := attributevalue.UnmarshalMap(out.Item, &user); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *Store) CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return false, fmt.Errorf("marshal user: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.usersTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(userId)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return false, nil
		}
		return false, fmt.Errorf("create user: %w", err)
	}
	return true, nil
}

func (s *Store) PutUser(ctx context.Context, user *model.User) error {
	item, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.usersTable),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (s *Store) ScanUsers(ctx context.Context) ([]*model.User, error) {
	users := []*model.User{}

	p := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{TableName: aws.String(s.usersTable)})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan users: %w", err)
		}
		var batch []*model.User
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal users: %w", err)
		}
		users = append(users, batch...)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.Before(users[j].CreatedAt)
		}
		return users[i].UserID < users[j].UserID
	})
	return users, nil
}

func (s *Store) CreateList(ctx context.Context, list *model.List) error {
	item, err := attributevalue.MarshalMap(list)
	if err != nil {
		return fmt.Errorf("marshal list: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.listsTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(listId)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return repository.ErrListExists
		}
		return fmt.Errorf("create list: %w", err)
	}
	return nil
}

// ListListsByOwner queries the owner index. Results are re-sorted because the
// index sort key is a timestamp string and nanosecond formatting does not
// order lexically.
func (s *Store) ListListsByOwner(ctx context.Context, ownerID string) ([]*model.List, error) {
	lists := []*model.List{}

	p := dynamodb.NewQueryPaginator(s.api, &dynamodb.QueryInput{
		TableName:              aws.String(s.listsTable),
		IndexName:              aws.String(s.ownerIndex),
		KeyConditionExpression: aws.String("ownerId = :owner"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query lists: %w", err)
		}
		var batch []*model.List
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal lists: %w", err)
		}
		lists = append(lists, batch...)
	}

	sort.Slice(lists, func(i, j int) bool {
		if !lists[i].CreatedAt.Equal(lists[j].CreatedAt) {
			return lists[i].CreatedAt.Before(lists[j].CreatedAt)
		}
		return lists[i].ListID < lists[j].ListID
	})
	return lists, nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}
