package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"booking-engine/internal/data/entity"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// DynamoPutter is the slice of the DynamoDB client the audit sink needs.
type DynamoPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

type auditLogItem struct {
	ID        string `dynamodbav:"id"`
	Action    string `dynamodbav:"action"`
	Actor     string `dynamodbav:"actor"`
	Outcome   string `dynamodbav:"outcome"`
	Details   string `dynamodbav:"details,omitempty"`
	CreatedAt string `dynamodbav:"created_at"`
}

// Table requirements:
//   - PK: id (string)
type dynamoAuditLogRepository struct {
	ddb       DynamoPutter
	tableName string
	log       *zap.Logger
}

func NewDynamoAuditLogRepository(ddb DynamoPutter, tableName string, log *zap.Logger) AuditLogRepository {
	return &dynamoAuditLogRepository{
		ddb:       ddb,
		tableName: tableName,
		log:       log.With(zap.String("repository", "audit_log_dynamodb")),
	}
}

func (r *dynamoAuditLogRepository) Append(ctx context.Context, entry *entity.AuditLog) error {
	item := auditLogItem{
		ID:        entry.ID.String(),
		Action:    entry.Action,
		Actor:     entry.Actor,
		Outcome:   string(entry.Outcome),
		CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if len(entry.Details) > 0 {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
		item.Details = string(raw)
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshal audit item: %w", err)
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		r.log.Error("Failed to append audit log", zap.Error(err), zap.String("action", entry.Action))
		return fmt.Errorf("append audit log %s: %w", entry.Action, err)
	}
	return nil
}
