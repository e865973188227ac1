package scheduler

import (
	"fmt"
	"time"
)

var koreanWeekdays = [...]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}

// DayLabel renders t's calendar date in loc as a Korean full date,
// e.g. "2026년 10월 17일 토요일". Threads are named after it.
func DayLabel(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return fmt.Sprintf("%d년 %d월 %d일 %s", t.Year(), int(t.Month()), t.Day(), koreanWeekdays[t.Weekday()])
}

// ThreadName is the name of the daily trading thread for a day label
func ThreadName(dayLabel string) string {
	return "트레이딩 " + dayLabel
}
