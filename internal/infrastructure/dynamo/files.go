package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jobboard-api/internal/domain"
)

// FileRepo provides typed DynamoDB operations for the files table.
type FileRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewFileRepo(client *dynamodb.Client, tableName string) *FileRepo {
	return &FileRepo{client: client, tableName: tableName}
}

func (r *FileRepo) Put(ctx context.Context, f *domain.File) error {
	item, err := attributevalue.MarshalMap(f)
	if err != nil {
		return fmt.Errorf("marshal file: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *FileRepo) Get(ctx context.Context, fileID string) (*domain.File, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("file_id", fileID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("file not found: %w", domain.ErrNotFound)
	}
	var f domain.File
	if err := attributevalue.UnmarshalMap(out.Item, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FileRepo) Update(ctx context.Context, fileID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("file_id", fileID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *FileRepo) SoftDelete(ctx context.Context, fileID string) error {
	return r.Update(ctx, fileID, map[string]interface{}{fieldEnable: false})
}

// QueryByOwner returns a page of the owner's active files via the owner_id GSI.
// fileType optionally narrows the page to one category (image, document, ...).
func (r *FileRepo) QueryByOwner(ctx context.Context, ownerID, fileType string, limit int32, cursor string) ([]domain.File, string, error) {
	filter := "#en = :t"
	values := map[string]types.AttributeValue{
		":o": &types.AttributeValueMemberS{Value: ownerID},
		":t": &types.AttributeValueMemberBOOL{Value: true},
	}
	if fileType != "" {
		filter += " AND file_type = :ft"
		values[":ft"] = &types.AttributeValueMemberS{Value: fileType}
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("owner_id-index"),
		KeyConditionExpression:    aws.String("owner_id = :o"),
		FilterExpression:          aws.String(filter),
		ExpressionAttributeNames:  map[string]string{"#en": fieldEnable},
		ExpressionAttributeValues: values,
		Limit:                     aws.Int32(limit),
	}
	if cursor != "" {
		fileID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"file_id":  &types.AttributeValueMemberS{Value: fileID},
			"owner_id": &types.AttributeValueMemberS{Value: ownerID},
		}
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var files []domain.File
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &files); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["file_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return files, nextCursor, nil
}
