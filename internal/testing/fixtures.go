package testing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/aristath/aitrader/internal/domain"
)

// NewUserFixture returns a registered user with exchange keys derived from userID
func NewUserFixture(userID, channelID string, initialBalance int64) domain.User {
	return domain.User{
		UserID:         userID,
		ServerID:       "guild",
		ChannelID:      channelID,
		Nickname:       "nick-" + userID,
		InitialBalance: decimal.NewFromInt(initialBalance),
		UpbitAccessKey: "access-" + userID,
		UpbitSecretKey: "secret-" + userID,
	}
}

// NewTradeFixture returns a trade record for userID on the given schedule
func NewTradeFixture(userID, cronTime string) domain.TradeRecord {
	return domain.TradeRecord{
		UserID:      userID,
		UserMessage: fmt.Sprintf("%s의 포트폴리오를 관리해줘", userID),
		CronTime:    cronTime,
		Model:       "gpt",
	}
}
