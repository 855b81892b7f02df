package dynamo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jobboard-api/internal/domain"
)

// JobRepo provides typed DynamoDB operations for the jobs table.
type JobRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewJobRepo(client *dynamodb.Client, tableName string) *JobRepo {
	return &JobRepo{client: client, tableName: tableName}
}

func (r *JobRepo) Put(ctx context.Context, j *domain.Job) error {
	item, err := attributevalue.MarshalMap(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *JobRepo) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("job_id", jobID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("job not found: %w", domain.ErrNotFound)
	}
	var j domain.Job
	if err := attributevalue.UnmarshalMap(out.Item, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *JobRepo) Update(ctx context.Context, jobID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("job_id", jobID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *JobRepo) SoftDelete(ctx context.Context, jobID string) error {
	return r.Update(ctx, jobID, map[string]interface{}{fieldEnable: false})
}

// ScanPage translates the listing filters into a filter expression over active
// jobs. query matches a case-sensitive substring of the title or description
// (DynamoDB contains); the remaining filters are equality checks.
func (r *JobRepo) ScanPage(ctx context.Context, f domain.JobFilter, limit int32, cursor string) ([]domain.Job, string, error) {
	expr, names, values := buildJobFilterExpr(f)
	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		Limit:                     aws.Int32(limit),
	}
	if cursor != "" {
		jobID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("job_id", jobID)
	}

	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var jobs []domain.Job
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &jobs); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["job_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return jobs, nextCursor, nil
}

// buildJobFilterExpr builds the ScanPage filter expression. enable and
// location are DynamoDB reserved words and go through attribute-name aliases.
func buildJobFilterExpr(f domain.JobFilter) (string, map[string]string, map[string]types.AttributeValue) {
	names := map[string]string{"#en": fieldEnable}
	values := map[string]types.AttributeValue{
		":t": &types.AttributeValueMemberBOOL{Value: true},
	}
	conds := []string{"#en = :t"}

	if f.Query != "" {
		conds = append(conds, "(contains(title, :q) OR contains(description, :q))")
		values[":q"] = &types.AttributeValueMemberS{Value: f.Query}
	}
	if f.Location != "" {
		names["#loc"] = "location"
		conds = append(conds, "contains(#loc, :loc)")
		values[":loc"] = &types.AttributeValueMemberS{Value: f.Location}
	}
	if f.EmploymentType != "" {
		conds = append(conds, "employment_type = :et")
		values[":et"] = &types.AttributeValueMemberS{Value: f.EmploymentType}
	}
	if f.ExperienceLevel != "" {
		conds = append(conds, "experience_level = :el")
		values[":el"] = &types.AttributeValueMemberS{Value: f.ExperienceLevel}
	}
	if f.RemoteOnly {
		conds = append(conds, "remote_work = :t")
	}
	if f.CompanyID != "" {
		conds = append(conds, "company_id = :cid")
		values[":cid"] = &types.AttributeValueMemberS{Value: f.CompanyID}
	}
	return strings.Join(conds, " AND "), names, values
}
