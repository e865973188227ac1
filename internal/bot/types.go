package bot

import (
	"context"

	"github.com/aristath/aitrader/internal/domain"
)

// Message commands
const (
	CommandStart        = "트레이딩시작할래!"
	CommandLiveTrading  = "진짜트레이딩할래!"
	CommandTestTrading  = "테스트트레이딩할래!"
	CommandLocalTrading = "로컬트레이딩할래!"
	commandAccountInfo  = "투자정보!"
)

// Component and modal ids
const (
	ButtonOpenUserSetting   = "open_user_setting_modal"
	ButtonOpenPromptSetting = "open_prompt_setting_modal"
	ButtonRemoveUserSetting = "remove_user_setting"
	ModalUserSetting        = "user_setting_modal"
	ModalPromptSetting      = "prompt_setting_modal"
)

// Modal field ids
const (
	FieldAccessKey      = "upbit_access_key"
	FieldSecretKey      = "upbit_secret_key"
	FieldInitialBalance = "initial_balance"
	FieldAgree          = "agree"
	FieldSystemMessage  = "system_message"
	FieldUserMessage    = "user_message"
	FieldCron           = "cron"
	FieldModel          = "model"
)

// Button is a clickable message component
type Button struct {
	CustomID string
	Label    string
	Danger   bool
}

// Attachment is a file sent with a reply
type Attachment struct {
	Name string
	Data []byte
}

// Reply is a message the bot sends back
type Reply struct {
	Content   string
	Ephemeral bool // Interaction replies only
	Buttons   []Button
	Files     []Attachment
}

// TextField is one input of a modal
type TextField struct {
	CustomID    string
	Label       string
	Value       string
	Placeholder string
	Paragraph   bool
	Required    bool
	MinLength   int
	MaxLength   int
}

// Modal is a form shown in response to a button
type Modal struct {
	CustomID string
	Title    string
	Fields   []TextField
}

// Message is an incoming guild message
type Message struct {
	AuthorID  string
	GuildID   string
	ChannelID string
	Content   string
	Mentions  []string // Mentioned user ids in order
}

// InteractionKind distinguishes button clicks from modal submissions
type InteractionKind int

const (
	InteractionButton InteractionKind = iota
	InteractionModalSubmit
)

// Interaction is a button click or modal submission
type Interaction struct {
	Kind      InteractionKind
	CustomID  string
	UserID    string
	Username  string
	GuildID   string
	ChannelID string
	Fields    map[string]string // Modal values by field id
}

// Field returns a submitted modal value
func (i Interaction) Field(id string) string {
	return i.Fields[id]
}

// MessageResponder replies to a message and edits that reply
type MessageResponder interface {
	Reply(ctx context.Context, reply Reply) (*domain.Message, error)
	Edit(ctx context.Context, msg *domain.Message, reply Reply) error
}

// InteractionResponder answers an interaction exactly once
type InteractionResponder interface {
	Respond(ctx context.Context, reply Reply) error
	ShowModal(ctx context.Context, modal Modal) error
}

// UserService manages registrations
type UserService interface {
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpsertUser(ctx context.Context, user domain.User) error
	DeleteUser(ctx context.Context, userID string) error
}

// TradingService manages trade records and runs sessions
type TradingService interface {
	GetTradeByUserID(ctx context.Context, userID string) (*domain.TradeRecord, error)
	UpsertTradeInfo(ctx context.Context, rec domain.TradeRecord) (*domain.TradeRecord, error)
	RemoveTradeInfoByUserID(ctx context.Context, userID string) error
	ExecuteTrading(ctx context.Context, tradeID string, isTest bool) (*domain.TradeResult, error)
	GetTradeAccount(ctx context.Context, userID string) (*domain.AccountSnapshot, error)
}

// TradeScheduler keeps the in-memory schedule in step with trade records
type TradeScheduler interface {
	ValidateCronTime(expr string) bool
	AddTradeCron(tradeID, expr string) error
	RemoveTradeCronByUserID(ctx context.Context, userID string) error
}

// AccountReporter renders a valued account snapshot
type AccountReporter interface {
	Report(ctx context.Context, snapshot domain.AccountSnapshot) (string, error)
}
