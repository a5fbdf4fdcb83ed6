package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/donkcry/B--Blog/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
//
// Email and username uniqueness is enforced with marker items in a separate
// uniques table, written in the same TransactWriteItems as the account item.
// A plain existence check before the write would be check-then-create and
// lose races; the conditional put on the marker cannot.
type AccountRepo struct {
	client       *dynamodb.Client
	tableName    string
	uniquesTable string
	codesTable   string
}

func NewAccountRepo(client *dynamodb.Client, tableName, uniquesTable, codesTable string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName, uniquesTable: uniquesTable, codesTable: codesTable}
}

func emailMarker(email string) string       { return "email#" + strings.ToLower(email) }
func usernameMarker(username string) string { return "username#" + username }

// Create persists the account together with its email and username
// uniqueness markers in one transaction. Exactly one of two concurrent
// creates for the same email can succeed; the other observes
// ErrDuplicateEmail (likewise for usernames).
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                item,
				ConditionExpression: aws.String("attribute_not_exists(account_id)"),
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.uniquesTable),
				Item:                uniqueItem(emailMarker(a.Email), a.AccountID),
				ConditionExpression: aws.String("attribute_not_exists(#v)"),
				ExpressionAttributeNames: map[string]string{"#v": "value"},
			}},
			{Put: &types.Put{
				TableName:           aws.String(r.uniquesTable),
				Item:                uniqueItem(usernameMarker(a.Username), a.AccountID),
				ConditionExpression: aws.String("attribute_not_exists(#v)"),
				ExpressionAttributeNames: map[string]string{"#v": "value"},
			}},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			// Item order above: 0=account, 1=email marker, 2=username marker.
			for i, reason := range tce.CancellationReasons {
				if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
					continue
				}
				switch i {
				case 1:
					return domain.ErrDuplicateEmail
				case 2:
					return domain.ErrDuplicateUsername
				}
			}
			return domain.ErrConflict
		}
		return fmt.Errorf("create account: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

func (r *AccountRepo) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("account_id", accountID),
	})
	if err != nil {
		return nil, fmt.Errorf("get account: %w", domain.ErrStorageUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail looks the address up in lowercase, matching how accounts store
// it; the uniqueness markers use the same normalization.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.queryGSI(ctx, "email-index", "email", strings.ToLower(email))
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.queryGSI(ctx, "username-index", "username", username)
}

// ExistsByEmail reports whether any account holds the email.
func (r *AccountRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// ExistsByUsername reports whether any account holds the username.
func (r *AccountRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

func (r *AccountRepo) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("account_id", accountID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("update account: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

// ChangeEmail swaps the account's email and its uniqueness marker in one
// transaction. The conditional put on the new marker re-checks uniqueness at
// commit time, closing the gap between code issue and code consumption.
func (r *AccountRepo) ChangeEmail(ctx context.Context, accountID, oldEmail, newEmail string) error {
	update, names, values, err := buildUpdateExpr(map[string]interface{}{
		"email":      newEmail,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.uniquesTable),
				Item:                uniqueItem(emailMarker(newEmail), accountID),
				ConditionExpression: aws.String("attribute_not_exists(#v)"),
				ExpressionAttributeNames: map[string]string{"#v": "value"},
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.uniquesTable),
				Key:       strKey("value", emailMarker(oldEmail)),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       strKey("account_id", accountID),
				UpdateExpression:          aws.String(update),
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			}},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for i, reason := range tce.CancellationReasons {
				if i == 0 && reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return domain.ErrDuplicateEmail
				}
			}
			return domain.ErrConflict
		}
		return fmt.Errorf("change email: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

// ChangeUsername swaps the account's username and its uniqueness marker in
// one transaction, mirroring ChangeEmail.
func (r *AccountRepo) ChangeUsername(ctx context.Context, accountID, oldUsername, newUsername string) error {
	update, names, values, err := buildUpdateExpr(map[string]interface{}{
		"username":   newUsername,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:           aws.String(r.uniquesTable),
				Item:                uniqueItem(usernameMarker(newUsername), accountID),
				ConditionExpression: aws.String("attribute_not_exists(#v)"),
				ExpressionAttributeNames: map[string]string{"#v": "value"},
			}},
			{Delete: &types.Delete{
				TableName: aws.String(r.uniquesTable),
				Key:       strKey("value", usernameMarker(oldUsername)),
			}},
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       strKey("account_id", accountID),
				UpdateExpression:          aws.String(update),
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			}},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			for i, reason := range tce.CancellationReasons {
				if i == 0 && reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
					return domain.ErrDuplicateUsername
				}
			}
			return domain.ErrConflict
		}
		return fmt.Errorf("change username: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

// HardDelete removes the account, both uniqueness markers and every
// outstanding verification code addressed to it in one transaction, freeing
// the email and username for reuse. Either the account disappears together
// with its codes or nothing does.
func (r *AccountRepo) HardDelete(ctx context.Context, a *domain.Account) error {
	items := []types.TransactWriteItem{
		{Delete: &types.Delete{
			TableName: aws.String(r.tableName),
			Key:       strKey("account_id", a.AccountID),
		}},
		{Delete: &types.Delete{
			TableName: aws.String(r.uniquesTable),
			Key:       strKey("value", emailMarker(a.Email)),
		}},
		{Delete: &types.Delete{
			TableName: aws.String(r.uniquesTable),
			Key:       strKey("value", usernameMarker(a.Username)),
		}},
	}
	for _, p := range domain.AllPurposes {
		items = append(items, types.TransactWriteItem{Delete: &types.Delete{
			TableName: aws.String(r.codesTable),
			Key:       compositeKey("destination", a.Email, "purpose", string(p)),
		}})
	}
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		return fmt.Errorf("delete account: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

func uniqueItem(value, accountID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"value":      &types.AttributeValueMemberS{Value: value},
		"account_id": &types.AttributeValueMemberS{Value: accountID},
	}
}

func (r *AccountRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", domain.ErrStorageUnavailable)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}
