package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote currency every KRW market is priced in
const QuoteCurrencyKRW = "KRW"

// TradeRecord is a user's AI trading configuration.
// At most one record exists per UserID.
type TradeRecord struct {
	ID            string         `db:"id" json:"id"`
	UserID        string         `db:"user_id" json:"user_id"`
	SystemMessage string         `db:"system_message" json:"system_message,omitempty"`
	UserMessage   string         `db:"user_message" json:"user_message"`
	CronTime      string         `db:"cron_time" json:"cron_time,omitempty"` // Empty means no automatic schedule
	Model         string         `db:"model" json:"model"`
	LastMessages  []HistoryEntry `db:"-" json:"last_messages,omitempty"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// HasSchedule reports whether the record carries a schedule expression
func (t *TradeRecord) HasSchedule() bool {
	return t.CronTime != ""
}

// User is a registered Discord member.
// Exchange credentials are optional; without them only test trading is possible.
type User struct {
	UserID         string          `db:"user_id" json:"user_id"` // Discord user id
	ServerID       string          `db:"server_id" json:"server_id"`
	ChannelID      string          `db:"channel_id" json:"channel_id"`
	Nickname       string          `db:"nickname" json:"nickname"`
	InitialBalance decimal.Decimal `db:"initial_balance" json:"initial_balance"`
	UpbitAccessKey string          `db:"upbit_access_key" json:"-"`
	UpbitSecretKey string          `db:"upbit_secret_key" json:"-"`
}

// HasCredentials reports whether both exchange keys are registered
func (u *User) HasCredentials() bool {
	return u.UpbitAccessKey != "" && u.UpbitSecretKey != ""
}

// Mention renders the Discord mention for the user
func (u *User) Mention() string {
	return Mention(u.UserID)
}

// Mention renders a Discord user mention
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// Balance is a single currency position held at the exchange
type Balance struct {
	Currency     string          `json:"currency"`
	UnitCurrency string          `json:"unit_currency"`
	Balance      decimal.Decimal `json:"balance"`
	Locked       decimal.Decimal `json:"locked"`
	AvgBuyPrice  decimal.Decimal `json:"avg_buy_price"`
}

// AccountSnapshot is a point-in-time view of a user's exchange balances
type AccountSnapshot struct {
	Balances  []Balance `json:"balances"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Find returns the balance for a currency
func (a AccountSnapshot) Find(currency string) (Balance, bool) {
	for _, b := range a.Balances {
		if b.Currency == currency {
			return b, true
		}
	}
	return Balance{}, false
}

// History entry types
const (
	HistoryMessage    = "message"
	HistoryToolCall   = "tool_call"
	HistoryToolResult = "tool_result"
)

// HistoryEntry is one step of an agent trading session
type HistoryEntry struct {
	Type      string `json:"type" msgpack:"type"`
	Role      string `json:"role,omitempty" msgpack:"role,omitempty"`
	Content   string `json:"content,omitempty" msgpack:"content,omitempty"`
	Tool      string `json:"tool,omitempty" msgpack:"tool,omitempty"`
	ToolCall  string `json:"tool_call_id,omitempty" msgpack:"tool_call_id,omitempty"`
	Arguments string `json:"arguments,omitempty" msgpack:"arguments,omitempty"`
}

// TradeResult is the outcome of one trading session
type TradeResult struct {
	LastMessageContent string
	Account            AccountSnapshot
	History            []HistoryEntry
}

// Ranking is a leaderboard row
type Ranking struct {
	User         User
	TotalBalance decimal.Decimal
	Rate         decimal.Decimal // Percentage return relative to InitialBalance
}

// ChannelType classifies Discord channels the bot cares about
type ChannelType int

const (
	ChannelTypeOther ChannelType = iota
	ChannelTypeText
	ChannelTypeThread
)

// Channel is a Discord text channel or thread
type Channel struct {
	ID       string
	GuildID  string
	ParentID string
	Name     string
	Type     ChannelType
}

// IsText reports whether messages and threads can be created in the channel
func (c *Channel) IsText() bool {
	return c != nil && c.Type == ChannelTypeText
}

// Message is a posted Discord message
type Message struct {
	ID        string
	ChannelID string
	Content   string
}

// Market is a tradable exchange market (e.g. KRW-BTC)
type Market struct {
	Market      string `json:"market"`
	KoreanName  string `json:"korean_name"`
	EnglishName string `json:"english_name"`
}

// Ticker is the latest trade information for a market
type Ticker struct {
	Market           string          `json:"market"`
	TradePrice       decimal.Decimal `json:"trade_price"`
	SignedChangeRate decimal.Decimal `json:"signed_change_rate"`
	AccTradePrice24h decimal.Decimal `json:"acc_trade_price_24h"`
}

// Candle is a minute candle
type Candle struct {
	Market               string          `json:"market"`
	CandleDateTimeKST    string          `json:"candle_date_time_kst"`
	OpeningPrice         decimal.Decimal `json:"opening_price"`
	HighPrice            decimal.Decimal `json:"high_price"`
	LowPrice             decimal.Decimal `json:"low_price"`
	TradePrice           decimal.Decimal `json:"trade_price"`
	CandleAccTradeVolume decimal.Decimal `json:"candle_acc_trade_volume"`
	CandleAccTradePrice  decimal.Decimal `json:"candle_acc_trade_price"`
}

// Order states
const (
	OrderStateWait   = "wait"
	OrderStateDone   = "done"
	OrderStateCancel = "cancel"
)

// Order is an exchange order
type Order struct {
	UUID           string          `json:"uuid"`
	Side           string          `json:"side"`
	OrdType        string          `json:"ord_type"`
	State          string          `json:"state"`
	Market         string          `json:"market"`
	Price          decimal.Decimal `json:"price"`
	Volume         decimal.Decimal `json:"volume"`
	ExecutedVolume decimal.Decimal `json:"executed_volume"`
	ExecutedFunds  decimal.Decimal `json:"executed_funds"`
}
