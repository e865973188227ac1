package agent

import "strings"

// BasePrompt frames every trading session
const BasePrompt = `당신은 업비트 원화(KRW) 마켓에서 가상화폐를 거래하는 트레이딩 에이전트입니다.

- 거래 전에 get_my_account 로 현재 계좌를 확인하세요.
- 시세 판단에는 get_markets 와 get_minutes_candles 를 사용하세요. 분봉 결과에는 RSI 와 이동평균이 포함될 수 있습니다.
- 매수는 buy_coin, 매도는 sell_coin 으로 시장가 주문합니다. 최소 주문 금액은 5000원입니다.
- 도구 호출이 실패하면 오류 내용을 확인하고 필요하면 다른 방법을 시도하세요.
- 마지막 답변에는 실행한 거래와 그 이유를 한국어로 간결하게 정리하세요.`

// SystemPrompt joins the base prompt with a user's own instructions
func SystemPrompt(custom string) string {
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return BasePrompt
	}
	return BasePrompt + "\n\n" + custom
}
