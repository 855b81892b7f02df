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

// OTPRepo manages the one-time-code ledger. Rows are append-only from the
// application's point of view: supersession and consumption flip the used flag,
// table TTL on expires_at eventually removes dead rows.
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// IssueCode marks every unused record for the email as used and inserts the
// new record, all inside a single TransactWriteItems call. Two concurrent
// issues for the same email therefore cannot both leave their predecessor
// unused — the transactions serialize on the shared ledger rows.
func (r *OTPRepo) IssueCode(ctx context.Context, rec *domain.EmailOTP) error {
	prior, err := r.listUnused(ctx, rec.Email)
	if err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}

	tx := make([]types.TransactWriteItem, 0, len(prior)+1)
	for _, p := range prior {
		tx = append(tx, types.TransactWriteItem{
			Update: &types.Update{
				TableName:        aws.String(r.tableName),
				Key:              strKey("otp_id", p.OTPID),
				UpdateExpression: aws.String("SET used = :t"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":t": &types.AttributeValueMemberBOOL{Value: true},
				},
			},
		})
	}
	tx = append(tx, types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(r.tableName),
			Item:      item,
		},
	})

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: tx,
	})
	return err
}

// FindUnused returns the newest unused record matching (email, code), or
// ErrNotFound when no such record exists.
func (r *OTPRepo) FindUnused(ctx context.Context, email, code string) (*domain.EmailOTP, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-index"),
		KeyConditionExpression: aws.String("email = :e"),
		FilterExpression:       aws.String("code = :c AND used = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":c": &types.AttributeValueMemberS{Value: code},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}

	var records []domain.EmailOTP
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, err
	}
	// ULIDs sort by creation time, so the lexicographically largest id is the
	// most recently issued record.
	newest := &records[0]
	for i := range records[1:] {
		if records[i+1].OTPID > newest.OTPID {
			newest = &records[i+1]
		}
	}
	return newest, nil
}

// MarkUsed flips a single record's used flag. Terminal: nothing ever flips it back.
func (r *OTPRepo) MarkUsed(ctx context.Context, otpID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("otp_id", otpID),
		UpdateExpression: aws.String("SET used = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	return err
}

func (r *OTPRepo) listUnused(ctx context.Context, email string) ([]domain.EmailOTP, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-index"),
		KeyConditionExpression: aws.String("email = :e"),
		FilterExpression:       aws.String("used = :f"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":e": &types.AttributeValueMemberS{Value: email},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return nil, err
	}
	var records []domain.EmailOTP
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &records); err != nil {
		return nil, err
	}
	return records, nil
}
