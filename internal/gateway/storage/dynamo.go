// Package storage adapts the DynamoDB table holding user-query records.
// This gateway exclusively owns the table; nothing else writes to it.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/albertshoes/support/backend/internal/model/query"
)

// ErrNotFound signals an absent record on a point lookup. Callers treat it
// as a valid outcome, not a failure.
var ErrNotFound = errors.New("record not found")

// DynamoAPI is the slice of the DynamoDB client this gateway uses.
type DynamoAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store persists user-query records in a single DynamoDB table keyed by id.
type Store struct {
	client DynamoAPI
	table  string
	log    zerolog.Logger
}

// New creates a store over the given DynamoDB client and table name.
func New(client DynamoAPI, table string, log zerolog.Logger) *Store {
	return &Store{client: client, table: table, log: log}
}

// EnsureTable provisions the table if it does not exist yet. Safe to call on
// every startup: an existing table is left untouched, and any describe error
// other than "not found" is fatal.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", s.table, err)
	}

	s.log.Info().Str("table", s.table).Msg("table missing, creating")
	_, err = s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("id"), KeyType: types.KeyTypeHash},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		ProvisionedThroughput: &types.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(5),
			WriteCapacityUnits: aws.Int64(5),
		},
	})
	if err != nil {
		// Another process may have created it between the two calls.
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

// Put writes the record, replacing any existing item with the same id.
func (s *Store) Put(ctx context.Context, record query.Record) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.ID, err)
	}

	s.log.Debug().Str("id", record.ID).Msg("putting record")
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put record %s: %w", record.ID, err)
	}
	return nil
}

// Get performs a point lookup by id.
func (s *Store) Get(ctx context.Context, id string) (query.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return query.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	if out.Item == nil {
		return query.Record{}, ErrNotFound
	}

	var record query.Record
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return query.Record{}, fmt.Errorf("unmarshal record %s: %w", id, err)
	}
	return record, nil
}

// Scan reads every record in the table. Order is whatever the storage
// returns; callers must not rely on it.
func (s *Store) Scan(ctx context.Context) ([]query.Record, error) {
	records := make([]query.Record, 0)
	var startKey map[string]types.AttributeValue

	for {
		out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan table %s: %w", s.table, err)
		}

		var page []query.Record
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshal scan page: %w", err)
		}
		records = append(records, page...)

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	return records, nil
}
