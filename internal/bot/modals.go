package bot

import (
	"strings"

	"github.com/aristath/aitrader/internal/agent"
	"github.com/aristath/aitrader/internal/domain"
)

const upbitKeyLength = 40

// UserSettingModal builds the registration form, prefilled for known users
func UserSettingModal(user *domain.User) Modal {
	title := "유저 정보 등록"
	accessKey, secretKey, initial := "", "", defaultInitialBalance
	if user != nil {
		title = "유저 정보 수정"
		accessKey, secretKey = user.UpbitAccessKey, user.UpbitSecretKey
		if user.InitialBalance.IsPositive() {
			initial = user.InitialBalance.String()
		}
	}

	return Modal{
		CustomID: ModalUserSetting,
		Title:    title,
		Fields: []TextField{
			{
				CustomID:  FieldAccessKey,
				Label:     "(선택) 업비트 Access Key (허용 IP 등록 필요)",
				Value:     accessKey,
				MinLength: upbitKeyLength,
				MaxLength: upbitKeyLength,
			},
			{
				CustomID:  FieldSecretKey,
				Label:     "(선택) 업비트 Secret Key",
				Value:     secretKey,
				MinLength: upbitKeyLength,
				MaxLength: upbitKeyLength,
			},
			{
				CustomID: FieldInitialBalance,
				Label:    "시작 자산 (KRW) 순위를 매길 때 필요합니다.",
				Value:    initial,
				Required: true,
			},
			{
				CustomID:  FieldAgree,
				Label:     "투자에 대한 책임을 인지했습니다. ('동의함' 입력)",
				Required:  true,
				MinLength: 3,
				MaxLength: 4,
			},
		},
	}
}

// PromptSettingModal builds the prompt form, prefilled from an existing record
func PromptSettingModal(rec *domain.TradeRecord) Modal {
	title := "프롬프트 & 매매 등록"
	var systemMessage, userMessage, cronTime, model string
	if rec != nil {
		title = "프롬프트 & 매매 수정"
		systemMessage, userMessage, cronTime, model = rec.SystemMessage, rec.UserMessage, rec.CronTime, rec.Model
	}
	if model == "" {
		model = agent.ModelGPT
	}

	return Modal{
		CustomID: ModalPromptSetting,
		Title:    title,
		Fields: []TextField{
			{
				CustomID:  FieldSystemMessage,
				Label:     "시스템 프롬프트",
				Value:     systemMessage,
				Paragraph: true,
				MaxLength: 300,
			},
			{
				CustomID:  FieldUserMessage,
				Label:     "사용자 프롬프트",
				Value:     userMessage,
				Paragraph: true,
				Required:  true,
				MaxLength: 3000,
			},
			{
				CustomID:    FieldCron,
				Label:       "자동 매매 시간 (콤마로 구분, 업비트 API 필요)",
				Value:       CronToHours(cronTime),
				Placeholder: DefaultHours,
			},
			{
				CustomID:    FieldModel,
				Label:       "모델 (" + strings.Join(agent.ModelIDs(), ", ") + ")",
				Value:       model,
				Placeholder: agent.ModelGPT,
				MaxLength:   20,
			},
		},
	}
}
