package db

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/civimail/sesbounce/ops"
)

type tableSchema struct {
	partitionKey     string
	partitionKeyType types.ScalarAttributeType
	sortKey          string
	sortKeyType      types.ScalarAttributeType
}

func (db *DynamoDb) tableSchemas() map[string]tableSchema {
	return map[string]tableSchema{
		db.Tables.Queue: {
			partitionKey: "queue_id", partitionKeyType: types.ScalarAttributeTypeN,
		},
		db.Tables.Events: {
			partitionKey: "queue_id", partitionKeyType: types.ScalarAttributeTypeN,
			sortKey: "event_id", sortKeyType: types.ScalarAttributeTypeS,
		},
		db.Tables.Contacts: {
			partitionKey: "contact_id", partitionKeyType: types.ScalarAttributeTypeS,
		},
		db.Tables.Categories: {
			partitionKey: "name", partitionKeyType: types.ScalarAttributeTypeS,
		},
	}
}

// CreateTables creates all four tables and blocks until each is active or
// maxAttempts checks have failed.
func (db *DynamoDb) CreateTables(
	ctx context.Context, maxAttempts int, sleep func(),
) (err error) {
	for tableName, schema := range db.tableSchemas() {
		if err = db.createTable(ctx, tableName, schema); err != nil {
			return
		}
	}
	for tableName := range db.tableSchemas() {
		if err = db.WaitForTable(ctx, tableName, maxAttempts, sleep); err != nil {
			return
		}
	}
	return
}

func (db *DynamoDb) createTable(
	ctx context.Context, tableName string, schema tableSchema,
) (err error) {
	attrDefs := []types.AttributeDefinition{{
		AttributeName: &schema.partitionKey,
		AttributeType: schema.partitionKeyType,
	}}
	keySchema := []types.KeySchemaElement{{
		AttributeName: &schema.partitionKey, KeyType: types.KeyTypeHash,
	}}

	if schema.sortKey != "" {
		attrDefs = append(attrDefs, types.AttributeDefinition{
			AttributeName: &schema.sortKey,
			AttributeType: schema.sortKeyType,
		})
		keySchema = append(keySchema, types.KeySchemaElement{
			AttributeName: &schema.sortKey, KeyType: types.KeyTypeRange,
		})
	}

	input := &dynamodb.CreateTableInput{
		TableName:            &tableName,
		AttributeDefinitions: attrDefs,
		KeySchema:            keySchema,
		BillingMode:          types.BillingModePayPerRequest,
	}
	if _, err = db.Client.CreateTable(ctx, input); err != nil {
		err = fmt.Errorf("failed to create db table %s: %w",
			tableName, ops.AwsError(err))
	}
	return
}

func (db *DynamoDb) WaitForTable(
	ctx context.Context, tableName string, maxAttempts int, sleep func(),
) error {
	if maxAttempts <= 0 {
		const errFmt = "maxAttempts to wait for db table must be >= 0, got: %d"
		return fmt.Errorf(errFmt, maxAttempts)
	}

	for current := 0; ; {
		td, err := db.describeTable(ctx, tableName)

		if err == nil && td.TableStatus == types.TableStatusActive {
			return nil
		} else if current++; current == maxAttempts {
			const errFmt = "db table %s not active after " +
				"%d attempts to check; last error: %s"
			return fmt.Errorf(errFmt, tableName, maxAttempts, err)
		}
		sleep()
	}
}

func (db *DynamoDb) describeTable(
	ctx context.Context, tableName string,
) (td *types.TableDescription, err error) {
	input := &dynamodb.DescribeTableInput{TableName: &tableName}
	output, descErr := db.Client.DescribeTable(ctx, input)

	if descErr != nil {
		const errFmt = "failed to describe db table %s: %w"
		err = fmt.Errorf(errFmt, tableName, ops.AwsError(descErr))
	} else {
		td = output.Table
	}
	return
}

// DeleteTables removes all four tables, for test environment teardown.
func (db *DynamoDb) DeleteTables(ctx context.Context) error {
	for tableName := range db.tableSchemas() {
		input := &dynamodb.DeleteTableInput{TableName: &tableName}
		if _, err := db.Client.DeleteTable(ctx, input); err != nil {
			return fmt.Errorf("failed to delete db table %s: %w",
				tableName, ops.AwsError(err))
		}
	}
	return nil
}
