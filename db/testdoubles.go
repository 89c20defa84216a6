//go:build small_tests || all_tests

package db

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TestDynamoDbClient backs the db tests with an in-memory item store, and
// lets the cmd tests exercise table creation without a real endpoint.
type TestDynamoDbClient struct {
	Items       map[string]map[string]dbAttributes
	GetErr      error
	PutErr      error
	UpdateErr   error
	CreateErr   error
	DescribeErr error
	DeleteErr   error
	UpdateInput *dynamodb.UpdateItemInput
	NumCreates  int
	TableStatus types.TableStatus
}

func NewTestDynamoDbClient(tables TableNames) *TestDynamoDbClient {
	return &TestDynamoDbClient{
		Items: map[string]map[string]dbAttributes{
			tables.Queue:      {},
			tables.Events:     {},
			tables.Contacts:   {},
			tables.Categories: {},
		},
		TableStatus: types.TableStatusActive,
	}
}

func itemKey(key dbAttributes) string {
	result := ""
	for _, name := range []string{"queue_id", "event_id", "contact_id", "name"} {
		if attr, ok := key[name]; ok {
			switch a := attr.(type) {
			case *dbString:
				result += a.Value + "|"
			case *dbNumber:
				result += a.Value + "|"
			}
		}
	}
	return result
}

func (c *TestDynamoDbClient) CreateTable(
	_ context.Context, _ *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options),
) (*dynamodb.CreateTableOutput, error) {
	c.NumCreates++
	return &dynamodb.CreateTableOutput{}, c.CreateErr
}

func (c *TestDynamoDbClient) DescribeTable(
	_ context.Context,
	input *dynamodb.DescribeTableInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.DescribeTableOutput, error) {
	if c.DescribeErr != nil {
		return nil, c.DescribeErr
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName: input.TableName, TableStatus: c.TableStatus,
		},
	}, nil
}

func (c *TestDynamoDbClient) DeleteTable(
	_ context.Context, _ *dynamodb.DeleteTableInput, _ ...func(*dynamodb.Options),
) (*dynamodb.DeleteTableOutput, error) {
	return &dynamodb.DeleteTableOutput{}, c.DeleteErr
}

func (c *TestDynamoDbClient) GetItem(
	_ context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options),
) (*dynamodb.GetItemOutput, error) {
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	item := c.Items[*input.TableName][itemKey(input.Key)]
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (c *TestDynamoDbClient) PutItem(
	_ context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	if c.PutErr != nil {
		return nil, c.PutErr
	}
	c.Items[*input.TableName][itemKey(input.Item)] = input.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (c *TestDynamoDbClient) UpdateItem(
	_ context.Context,
	input *dynamodb.UpdateItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.UpdateItemOutput, error) {
	c.UpdateInput = input
	return &dynamodb.UpdateItemOutput{}, c.UpdateErr
}
