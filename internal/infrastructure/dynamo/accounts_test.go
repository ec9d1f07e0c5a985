package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cartify-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAPI struct{ mock.Mock }

func (m *mockAPI) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}
func (m *mockAPI) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}
func (m *mockAPI) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func sampleAccount() *domain.Account {
	return &domain.Account{
		AccountID:    "01HX",
		Email:        "a@x.com",
		PasswordHash: "$argon2id$...",
		Role:         domain.RoleCustomer,
		FirstName:    "Ann",
		LastName:     "Lee",
	}
}

func TestAccountRepo_Put_Conditional(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.PutItemInput) bool {
		_, hasPhone := in.Item["phone"]
		return *in.TableName == "users" &&
			*in.ConditionExpression == "attribute_not_exists(#id)" &&
			in.ExpressionAttributeNames["#id"] == "user_id" &&
			!hasPhone
	})).Return(&dynamodb.PutItemOutput{}, nil)

	require.NoError(t, NewAccountRepo(api, "users").Put(context.Background(), sampleAccount()))
	api.AssertExpectations(t)
}

func TestAccountRepo_Put_ExistingIsConflict(t *testing.T) {
	api := &mockAPI{}
	api.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	err := NewAccountRepo(api, "users").Put(context.Background(), sampleAccount())
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestAccountRepo_Get(t *testing.T) {
	item, err := attributevalue.MarshalMap(sampleAccount())
	require.NoError(t, err)

	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: item}, nil)

	a, err := NewAccountRepo(api, "users").Get(context.Background(), "01HX")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", a.Email)
	assert.Equal(t, "$argon2id$...", a.PasswordHash)
	assert.Nil(t, a.Phone)
}

func TestAccountRepo_Get_Missing(t *testing.T) {
	api := &mockAPI{}
	api.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

	_, err := NewAccountRepo(api, "users").Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccountRepo_GetByEmail_NormalisesAndQueriesIndex(t *testing.T) {
	item, err := attributevalue.MarshalMap(sampleAccount())
	require.NoError(t, err)

	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		v, _ := in.ExpressionAttributeValues[":v"].(*types.AttributeValueMemberS)
		return *in.IndexName == "email-index" && v != nil && v.Value == "a@x.com"
	})).Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}, nil)

	a, err := NewAccountRepo(api, "users").GetByEmail(context.Background(), " A@X.com")
	require.NoError(t, err)
	assert.Equal(t, "01HX", a.AccountID)
	api.AssertExpectations(t)
}

func TestAccountRepo_GetByPhone_Missing(t *testing.T) {
	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.MatchedBy(func(in *dynamodb.QueryInput) bool {
		return *in.IndexName == "phone-index"
	})).Return(&dynamodb.QueryOutput{}, nil)

	_, err := NewAccountRepo(api, "users").GetByPhone(context.Background(), "+15550001")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccountRepo_Query_StoreError(t *testing.T) {
	api := &mockAPI{}
	api.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	_, err := NewAccountRepo(api, "users").GetByEmail(context.Background(), "a@x.com")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestAccountRepo_UpdatePasswordHash(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.MatchedBy(func(in *dynamodb.UpdateItemInput) bool {
		return *in.UpdateExpression == "SET #f0 = :v0, #f1 = :v1" &&
			in.ExpressionAttributeNames["#f0"] == "password_hash" &&
			in.ExpressionAttributeNames["#f1"] == "updated_at" &&
			*in.ConditionExpression == "attribute_exists(#id)"
	})).Return(&dynamodb.UpdateItemOutput{}, nil)

	repo := NewAccountRepo(api, "users")
	repo.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	require.NoError(t, repo.UpdatePasswordHash(context.Background(), "01HX", "newhash"))
	api.AssertExpectations(t)
}

func TestAccountRepo_UpdatePasswordHash_Vanished(t *testing.T) {
	api := &mockAPI{}
	api.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

	err := NewAccountRepo(api, "users").UpdatePasswordHash(context.Background(), "gone", "h")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
