package db

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/civimail/sesbounce/ops"
	"github.com/civimail/sesbounce/verp"
)

type DynamoDbClient interface {
	CreateTable(
		context.Context, *dynamodb.CreateTableInput, ...func(*dynamodb.Options),
	) (*dynamodb.CreateTableOutput, error)

	DescribeTable(
		context.Context,
		*dynamodb.DescribeTableInput,
		...func(*dynamodb.Options),
	) (*dynamodb.DescribeTableOutput, error)

	DeleteTable(
		context.Context, *dynamodb.DeleteTableInput, ...func(*dynamodb.Options),
	) (*dynamodb.DeleteTableOutput, error)

	GetItem(
		context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options),
	) (*dynamodb.GetItemOutput, error)

	PutItem(
		context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options),
	) (*dynamodb.PutItemOutput, error)

	UpdateItem(
		context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options),
	) (*dynamodb.UpdateItemOutput, error)
}

// TableNames collects the four tables backing the registry, event store, and
// contact directory.
type TableNames struct {
	Queue      string
	Events     string
	Contacts   string
	Categories string
}

// DynamoDb implements MailingRegistry, EventStore, and ContactDirectory over
// DynamoDB tables.
//
// https://docs.aws.amazon.com/amazondynamodb/latest/developerguide/WorkingWithItems.html
type DynamoDb struct {
	Client DynamoDbClient
	Tables TableNames
}

func NewDynamoDb(cfg aws.Config, tables TableNames) *DynamoDb {
	return &DynamoDb{Client: dynamodb.NewFromConfig(cfg), Tables: tables}
}

type (
	dbString     = types.AttributeValueMemberS
	dbNumber     = types.AttributeValueMemberN
	dbBool       = types.AttributeValueMemberBOOL
	dbAttributes = map[string]types.AttributeValue
)

func dbId(value int64) *dbNumber {
	return &dbNumber{Value: strconv.FormatInt(value, 10)}
}

func queueEntryKey(queueId int64) dbAttributes {
	return dbAttributes{"queue_id": dbId(queueId)}
}

// VerifyRef compares the inbound reference against the stored queue entry.
// The hash comparison is constant time; a missing entry or mismatched field
// is a plain false verdict, never an error.
func (db *DynamoDb) VerifyRef(
	ctx context.Context, ref verp.Ref,
) (verified bool, err error) {
	entry, err := db.getQueueEntry(ctx, ref.QueueId)

	if errors.Is(err, ErrQueueEntryNotFound) {
		err = nil
	} else if err != nil {
		return
	} else {
		verified = entry.JobId == ref.JobId &&
			hmac.Equal([]byte(entry.Hash), []byte(ref.Hash))
	}
	return
}

func (db *DynamoDb) ContactForQueueEntry(
	ctx context.Context, queueId int64,
) (contactId string, err error) {
	entry, err := db.getQueueEntry(ctx, queueId)

	if err != nil {
		return
	} else if entry.ContactId == "" {
		err = fmt.Errorf("%w: queue entry %d has no contact",
			ErrContactNotFound, queueId)
	} else {
		contactId = entry.ContactId
	}
	return
}

func (db *DynamoDb) getQueueEntry(
	ctx context.Context, queueId int64,
) (entry *QueueEntry, err error) {
	input := &dynamodb.GetItemInput{
		Key: queueEntryKey(queueId), TableName: &db.Tables.Queue,
	}
	var output *dynamodb.GetItemOutput

	if output, err = db.Client.GetItem(ctx, input); err != nil {
		err = fmt.Errorf("failed to get queue entry %d: %w",
			queueId, ops.AwsError(err))
	} else if len(output.Item) == 0 {
		err = ErrQueueEntryNotFound
	} else {
		entry, err = parseQueueEntry(output.Item)
	}
	return
}

func parseQueueEntry(attrs dbAttributes) (entry *QueueEntry, err error) {
	e := &QueueEntry{}

	if e.QueueId, err = getInt(attrs, "queue_id"); err != nil {
		return
	} else if e.JobId, err = getInt(attrs, "job_id"); err != nil {
		return
	} else if e.Hash, err = getString(attrs, "hash"); err != nil {
		return
	}

	// contact_id and email are optional on queue entries.
	if _, ok := attrs["contact_id"]; ok {
		if e.ContactId, err = getString(attrs, "contact_id"); err != nil {
			return
		}
	}
	if _, ok := attrs["email"]; ok {
		if e.Email, err = getString(attrs, "email"); err != nil {
			return
		}
	}
	entry = e
	return
}

// PutQueueEntry exists for the table setup CLI and tests; in production the
// outgoing mail system writes queue entries.
func (db *DynamoDb) PutQueueEntry(
	ctx context.Context, entry *QueueEntry,
) (err error) {
	item := dbAttributes{
		"queue_id": dbId(entry.QueueId),
		"job_id":   dbId(entry.JobId),
		"hash":     &dbString{Value: entry.Hash},
	}
	if entry.ContactId != "" {
		item["contact_id"] = &dbString{Value: entry.ContactId}
	}
	if entry.Email != "" {
		item["email"] = &dbString{Value: entry.Email}
	}

	input := &dynamodb.PutItemInput{Item: item, TableName: &db.Tables.Queue}
	if _, err = db.Client.PutItem(ctx, input); err != nil {
		err = fmt.Errorf("failed to put queue entry %d: %w",
			entry.QueueId, ops.AwsError(err))
	}
	return
}

func (db *DynamoDb) LookupCategoryId(
	ctx context.Context, name string,
) (id string, err error) {
	input := &dynamodb.GetItemInput{
		Key:       dbAttributes{"name": &dbString{Value: name}},
		TableName: &db.Tables.Categories,
	}
	var output *dynamodb.GetItemOutput

	if output, err = db.Client.GetItem(ctx, input); err != nil {
		err = fmt.Errorf("failed to get category %s: %w",
			name, ops.AwsError(err))
	} else if len(output.Item) == 0 {
		err = fmt.Errorf("%w: %s", ErrCategoryNotFound, name)
	} else {
		id, err = getString(output.Item, "id")
	}
	return
}

// PutCategory registers a taxonomy label's id, for table seeding and tests.
func (db *DynamoDb) PutCategory(
	ctx context.Context, name, id string,
) (err error) {
	input := &dynamodb.PutItemInput{
		Item: dbAttributes{
			"name": &dbString{Value: name},
			"id":   &dbString{Value: id},
		},
		TableName: &db.Tables.Categories,
	}
	if _, err = db.Client.PutItem(ctx, input); err != nil {
		err = fmt.Errorf("failed to put category %s: %w",
			name, ops.AwsError(err))
	}
	return
}

func (db *DynamoDb) PutBounceEvent(
	ctx context.Context, event *BounceEvent,
) (err error) {
	item := dbAttributes{
		"queue_id":  dbId(event.QueueId),
		"event_id":  &dbString{Value: event.EventId.String()},
		"job_id":    dbId(event.JobId),
		"hash":      &dbString{Value: event.Hash},
		"reason":    &dbString{Value: event.Reason},
		"timestamp": dbId(event.Timestamp.Unix()),
	}
	if event.CategoryId != "" {
		item["category_id"] = &dbString{Value: event.CategoryId}
	}
	if event.Body != "" {
		item["body"] = &dbString{Value: event.Body}
	}

	input := &dynamodb.PutItemInput{Item: item, TableName: &db.Tables.Events}
	if _, err = db.Client.PutItem(ctx, input); err != nil {
		err = fmt.Errorf("failed to put bounce event for queue entry %d: %w",
			event.QueueId, ops.AwsError(err))
	}
	return
}

// SetOptOut marks the contact as opted out. The update is idempotent, which
// keeps duplicate complaint notifications safe.
func (db *DynamoDb) SetOptOut(
	ctx context.Context, contactId string,
) (err error) {
	key := dbAttributes{"contact_id": &dbString{Value: contactId}}
	input := &dynamodb.UpdateItemInput{
		Key:                       key,
		TableName:                 &db.Tables.Contacts,
		ExpressionAttributeNames:  map[string]string{"#o": "is_opt_out"},
		ExpressionAttributeValues: dbAttributes{":t": &dbBool{Value: true}},
		UpdateExpression:          aws.String("SET #o = :t"),
	}
	if _, err = db.Client.UpdateItem(ctx, input); err != nil {
		err = fmt.Errorf("failed to opt out contact %s: %w",
			contactId, ops.AwsError(err))
	}
	return
}

func getString(attrs dbAttributes, name string) (string, error) {
	return getAttribute(name, attrs, func(attr *dbString) (string, error) {
		return attr.Value, nil
	})
}

func getInt(attrs dbAttributes, name string) (int64, error) {
	return getAttribute(name, attrs, func(attr *dbNumber) (int64, error) {
		return strconv.ParseInt(attr.Value, 10, 64)
	})
}

func getAttribute[T any, V any](
	name string, attrs dbAttributes, parse func(T) (V, error),
) (value V, err error) {
	if attr, ok := attrs[name]; !ok {
		err = fmt.Errorf("attribute '%s' not in: %+v", name, attrs)
	} else if dbAttr, ok := attr.(T); !ok {
		// Inspired by: https://stackoverflow.com/a/72626548
		const errFmt = "attribute '%s' is of type %T, not %T: %+v"
		err = fmt.Errorf(errFmt, name, attr, new(T), attr)
	} else if value, err = parse(dbAttr); err != nil {
		value = *new(V)
		const errFmt = "failed to parse '%s' from: %+v: %s"
		err = fmt.Errorf(errFmt, name, dbAttr, err)
	}
	return
}
