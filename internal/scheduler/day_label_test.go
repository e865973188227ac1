package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayLabel(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"saturday morning", time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), "2026년 10월 17일 토요일"},
		{"crosses midnight in zone", time.Date(2026, 10, 17, 15, 30, 0, 0, time.UTC), "2026년 10월 18일 일요일"},
		{"single digit month", time.Date(2026, 1, 5, 3, 0, 0, 0, time.UTC), "2026년 1월 5일 월요일"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DayLabel(tt.at, seoul))
		})
	}
}

func TestThreadName(t *testing.T) {
	assert.Equal(t, "트레이딩 2026년 10월 17일 토요일", ThreadName("2026년 10월 17일 토요일"))
}
