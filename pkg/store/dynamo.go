package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Dynamo persists records in a single DynamoDB table with a composite key:
// pk is the collection, sk is the record key. Conditional expressions carry
// the optimistic-lock guarantees, so concurrent writers across processes
// resolve at the table.
type Dynamo struct {
	client *dynamodb.Client
	table  string
}

// NewDynamo wraps an existing DynamoDB client. Useful when the caller
// manages AWS configuration, endpoints, or credentials itself.
func NewDynamo(client *dynamodb.Client, table string) *Dynamo {
	return &Dynamo{client: client, table: table}
}

// OpenDynamo builds a client from the default AWS configuration chain
// (environment, shared config, instance role) and verifies the table is
// reachable.
func OpenDynamo(ctx context.Context, table string) (*Dynamo, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	d := NewDynamo(dynamodb.NewFromConfig(cfg), table)
	if err := d.Ping(ctx); err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	return d, nil
}

// Get retrieves a record by key.
func (d *Dynamo) Get(ctx context.Context, collection, key string) (*Record, error) {
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            d.itemKey(collection, key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return recordFromItem(key, out.Item)
}

// Insert stores a new record. The attribute_not_exists condition makes the
// put fail when another writer created the key first.
func (d *Dynamo) Insert(ctx context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	now := time.Now().UTC()
	item, err := d.buildItem(collection, rec.Key, rec.Data, 1, now, now)
	if err != nil {
		return nil, err
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrAlreadyExists
		}
		return nil, errors.Join(ErrMarshal, err)
	}

	out := rec.Clone()
	out.Version = 1
	out.CreatedAt = now
	out.UpdatedAt = now
	return out, nil
}

// Update replaces an existing record. A non-zero incoming version becomes a
// conditional expression on the stored version.
func (d *Dynamo) Update(ctx context.Context, collection string, rec *Record) (*Record, error) {
	if rec.Key == "" {
		return nil, ErrEmptyKey
	}

	cur, err := d.Get(ctx, collection, rec.Key)
	if err != nil {
		return nil, err
	}
	if rec.Version > 0 && rec.Version != cur.Version {
		return nil, ErrVersionMismatch
	}

	now := time.Now().UTC()
	item, err := d.buildItem(collection, rec.Key, rec.Data, cur.Version+1, cur.CreatedAt, now)
	if err != nil {
		return nil, err
	}

	// Condition on the version read above, so a concurrent writer between
	// the read and this put still loses cleanly.
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.table),
		Item:                item,
		ConditionExpression: aws.String("version = :v"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(cur.Version, 10)},
		},
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return nil, ErrVersionMismatch
		}
		return nil, errors.Join(ErrMarshal, err)
	}

	out := rec.Clone()
	out.Version = cur.Version + 1
	out.CreatedAt = cur.CreatedAt
	out.UpdatedAt = now
	return out, nil
}

// Delete removes a record by key.
func (d *Dynamo) Delete(ctx context.Context, collection, key string) error {
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(d.table),
		Key:                 d.itemKey(collection, key),
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrNotFound
		}
		return errors.Join(ErrMarshal, err)
	}
	return nil
}

// List returns all records of a collection in key order, paging through the
// partition.
func (d *Dynamo) List(ctx context.Context, collection string) ([]*Record, error) {
	paginator := dynamodb.NewQueryPaginator(d.client, &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: collection},
		},
	})

	var out []*Record
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Join(ErrUnmarshal, err)
		}
		for _, item := range page.Items {
			key := ""
			if sk, ok := item["sk"].(*types.AttributeValueMemberS); ok {
				key = sk.Value
			}
			rec, err := recordFromItem(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}
	}
	return out, nil
}

// Increment adds a delta to a numeric field in a single UpdateItem, so the
// arithmetic happens at the table instead of read-modify-write.
func (d *Dynamo) Increment(ctx context.Context, collection, key, field string, delta float64) (float64, error) {
	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(d.table),
		Key:       d.itemKey(collection, key),
		UpdateExpression: aws.String(
			"SET #d.#f = if_not_exists(#d.#f, :zero) + :delta, version = version + :one, updated_at = :now",
		),
		ConditionExpression: aws.String("attribute_exists(pk)"),
		ExpressionAttributeNames: map[string]string{
			"#d": "data",
			"#f": field,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":delta": &types.AttributeValueMemberN{Value: strconv.FormatFloat(delta, 'f', -1, 64)},
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":now":   &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, ErrNotFound
		}
		return 0, errors.Join(ErrMarshal, err)
	}

	var data map[string]any
	if err := attributevalue.Unmarshal(out.Attributes["data"], &data); err != nil {
		return 0, errors.Join(ErrUnmarshal, err)
	}
	next, err := asFloat(data[field])
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Ping verifies the table exists and is reachable.
func (d *Dynamo) Ping(ctx context.Context) error {
	_, err := d.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(d.table),
	})
	return err
}

// Close is a no-op: the underlying HTTP client needs no teardown.
func (d *Dynamo) Close() error { return nil }

func (d *Dynamo) itemKey(collection, key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: collection},
		"sk": &types.AttributeValueMemberS{Value: key},
	}
}

func (d *Dynamo) buildItem(collection, key string, data map[string]any, version int64, createdAt, updatedAt time.Time) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(map[string]any{"data": data})
	if err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	item := map[string]types.AttributeValue{
		"pk":         &types.AttributeValueMemberS{Value: collection},
		"sk":         &types.AttributeValueMemberS{Value: key},
		"data":       av["data"],
		"version":    &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)},
		"created_at": &types.AttributeValueMemberS{Value: createdAt.Format(time.RFC3339Nano)},
		"updated_at": &types.AttributeValueMemberS{Value: updatedAt.Format(time.RFC3339Nano)},
	}
	return item, nil
}

func recordFromItem(key string, item map[string]types.AttributeValue) (*Record, error) {
	rec := &Record{Key: key}

	if err := attributevalue.Unmarshal(item["data"], &rec.Data); err != nil {
		return nil, errors.Join(ErrUnmarshal, err)
	}
	if v, ok := item["version"].(*types.AttributeValueMemberN); ok {
		n, err := strconv.ParseInt(v.Value, 10, 64)
		if err != nil {
			return nil, errors.Join(ErrUnmarshal, err)
		}
		rec.Version = n
	}
	if v, ok := item["created_at"].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return nil, errors.Join(ErrUnmarshal, err)
		}
		rec.CreatedAt = t
	}
	if v, ok := item["updated_at"].(*types.AttributeValueMemberS); ok {
		t, err := time.Parse(time.RFC3339Nano, v.Value)
		if err != nil {
			return nil, errors.Join(ErrUnmarshal, err)
		}
		rec.UpdatedAt = t
	}
	return rec, nil
}

var (
	_ Store       = (*Dynamo)(nil)
	_ Incrementer = (*Dynamo)(nil)
	_ Pinger      = (*Dynamo)(nil)
)
