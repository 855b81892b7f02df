package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jobboard-api/internal/domain"
)

// ApplicationRepo provides typed DynamoDB operations for the job_applications table.
type ApplicationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewApplicationRepo(client *dynamodb.Client, tableName string) *ApplicationRepo {
	return &ApplicationRepo{client: client, tableName: tableName}
}

func (r *ApplicationRepo) Put(ctx context.Context, a *domain.JobApplication) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ApplicationRepo) Get(ctx context.Context, applicationID string) (*domain.JobApplication, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("application_id", applicationID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("application not found: %w", domain.ErrNotFound)
	}
	var a domain.JobApplication
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByJobAndApplicant reports whether the applicant already has an
// application on file for the job.
func (r *ApplicationRepo) GetByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*domain.JobApplication, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("job_id-index"),
		KeyConditionExpression: aws.String("job_id = :j"),
		FilterExpression:       aws.String("applicant_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":j": &types.AttributeValueMemberS{Value: jobID},
			":a": &types.AttributeValueMemberS{Value: applicantID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("application not found: %w", domain.ErrNotFound)
	}
	var a domain.JobApplication
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ApplicationRepo) ListByJob(ctx context.Context, jobID string) ([]domain.JobApplication, error) {
	return r.queryGSI(ctx, "job_id-index", "job_id", jobID)
}

func (r *ApplicationRepo) ListByApplicant(ctx context.Context, applicantID string) ([]domain.JobApplication, error) {
	return r.queryGSI(ctx, "applicant_id-index", "applicant_id", applicantID)
}

func (r *ApplicationRepo) Update(ctx context.Context, applicationID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("application_id", applicationID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *ApplicationRepo) queryGSI(ctx context.Context, index, attr, value string) ([]domain.JobApplication, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(index),
		KeyConditionExpression:   aws.String("#a = :v"),
		ExpressionAttributeNames: map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
		},
	})
	if err != nil {
		return nil, err
	}
	var apps []domain.JobApplication
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}
