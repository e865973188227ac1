package users

import (
	"context"
	"errors"
	"testing"

	"github.com/aristath/aitrader/internal/domain"
	testingpkg "github.com/aristath/aitrader/internal/testing"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubExchange returns a fixed KRW balance per access key
type stubExchange struct {
	krw decimal.Decimal
	err error
}

func (e stubExchange) Accounts(ctx context.Context) ([]domain.Balance, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []domain.Balance{{Currency: "KRW", Balance: e.krw}}, nil
}

func (e stubExchange) BuyMarket(ctx context.Context, market string, price decimal.Decimal) (*domain.Order, error) {
	return nil, errors.New("not supported")
}

func (e stubExchange) SellMarket(ctx context.Context, market string, volume decimal.Decimal) (*domain.Order, error) {
	return nil, errors.New("not supported")
}

func stubFactory(accounts map[string]stubExchange) domain.ExchangeFactory {
	return func(accessKey, secretKey string) domain.Exchange {
		if ex, ok := accounts[accessKey]; ok {
			return ex
		}
		return stubExchange{err: errors.New("invalid_access_key")}
	}
}

// krwValuer values only the KRW balance
type krwValuer struct{}

func (krwValuer) TotalBalance(ctx context.Context, balances []domain.Balance) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Balance)
	}
	return total, nil
}

func newTestService(t *testing.T, accounts map[string]stubExchange) (*Service, *Repository) {
	t.Helper()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(testingpkg.NewTestDB(t), log)
	return NewService(repo, stubFactory(accounts), krwValuer{}, log), repo
}

func trader(userID, channelID, key string, initial int64) domain.User {
	return domain.User{
		UserID:         userID,
		ServerID:       "guild",
		ChannelID:      channelID,
		Nickname:       "nick-" + userID,
		InitialBalance: decimal.NewFromInt(initial),
		UpbitAccessKey: key,
		UpbitSecretKey: "secret-" + key,
	}
}

func TestUpsertUser_RejectsInvalidKeys(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	err := svc.UpsertUser(ctx, trader("u1", "c1", "bad", 1000000))
	require.Error(t, err)
	assert.Equal(t, InvalidAPIKeyMessage, domain.DisplayMessage(err))

	user, err := svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, user, "nothing stored on rejection")
}

func TestUpsertUser_WithoutKeysSkipsValidation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.UpsertUser(ctx, domain.User{UserID: "u1", ChannelID: "c1", Nickname: "alice", InitialBalance: decimal.NewFromInt(1000000)}))

	user, err := svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Nickname)
	assert.False(t, user.HasCredentials())
	assert.Equal(t, "1000000", user.InitialBalance.String())
}

func TestUpsertUser_BlankKeysKeepStoredKeys(t *testing.T) {
	svc, _ := newTestService(t, map[string]stubExchange{"key1": {krw: decimal.NewFromInt(1)}})
	ctx := context.Background()

	require.NoError(t, svc.UpsertUser(ctx, trader("u1", "c1", "key1", 1000000)))

	update := trader("u1", "c2", "", 2000000)
	update.UpbitSecretKey = ""
	require.NoError(t, svc.UpsertUser(ctx, update))

	user, err := svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c2", user.ChannelID)
	assert.Equal(t, "key1", user.UpbitAccessKey)
	assert.Equal(t, "secret-key1", user.UpbitSecretKey)
	assert.Equal(t, "2000000", user.InitialBalance.String())
}

func TestDeleteUser(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()

	require.NoError(t, svc.UpsertUser(ctx, domain.User{UserID: "u1"}))
	require.NoError(t, svc.DeleteUser(ctx, "u1"))

	user, err := svc.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestGetTradeUserChannels(t *testing.T) {
	accounts := map[string]stubExchange{"k1": {}, "k2": {}, "k3": {}}
	svc, repo := newTestService(t, accounts)
	ctx := context.Background()

	require.NoError(t, svc.UpsertUser(ctx, trader("u1", "c2", "k1", 1)))
	require.NoError(t, svc.UpsertUser(ctx, trader("u2", "c2", "k2", 1)))
	require.NoError(t, svc.UpsertUser(ctx, trader("u3", "c1", "k3", 1)))
	require.NoError(t, repo.Upsert(ctx, domain.User{UserID: "u4", ChannelID: "c3"}))

	channels, err := svc.GetTradeUserChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, channels)
}

func TestGetTradingList_RanksByRate(t *testing.T) {
	accounts := map[string]stubExchange{
		"ka": {krw: decimal.NewFromInt(1100000)},
		"kb": {krw: decimal.NewFromInt(950000)},
		"kc": {krw: decimal.NewFromInt(1100000)},
		"kd": {krw: decimal.NewFromInt(500000)},
	}
	svc, repo := newTestService(t, accounts)
	ctx := context.Background()

	require.NoError(t, svc.UpsertUser(ctx, trader("ub", "c1", "kb", 1000000)))
	require.NoError(t, svc.UpsertUser(ctx, trader("uc", "c1", "kc", 1000000)))
	require.NoError(t, svc.UpsertUser(ctx, trader("ua", "c1", "ka", 1000000)))
	require.NoError(t, svc.UpsertUser(ctx, trader("ud", "c1", "kd", 0)))
	require.NoError(t, svc.UpsertUser(ctx, trader("other", "c2", "ka", 1000000)))
	// Keys revoked after registration
	require.NoError(t, repo.Upsert(ctx, trader("ue", "c1", "revoked", 1000000)))

	rankings, err := svc.GetTradingList(ctx, "c1")
	require.NoError(t, err)

	ids := make([]string, 0, len(rankings))
	for _, r := range rankings {
		ids = append(ids, r.User.UserID)
	}
	assert.Equal(t, []string{"ua", "uc", "ud", "ub"}, ids)
	assert.Equal(t, "10", rankings[0].Rate.String())
	assert.Equal(t, "1100000", rankings[0].TotalBalance.String())
	assert.True(t, rankings[2].Rate.IsZero(), "non-positive initial balance ranks at zero")
	assert.Equal(t, "-5", rankings[3].Rate.String())
}

func TestReturnRate(t *testing.T) {
	tests := []struct {
		total, initial string
		want           string
	}{
		{"1123456", "1000000", "12.35"},
		{"1000000", "1000000", "0"},
		{"666666", "1000000", "-33.33"},
		{"500", "0", "0"},
		{"500", "-1", "0"},
	}

	for _, tt := range tests {
		got := ReturnRate(decimal.RequireFromString(tt.total), decimal.RequireFromString(tt.initial))
		assert.Equal(t, tt.want, got.String(), "%s/%s", tt.total, tt.initial)
	}
}
