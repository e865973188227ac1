package bot

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aristath/aitrader/internal/domain"
)

// DefaultHours prefills the schedule field of the prompt modal
const DefaultHours = "0,6,12,18"

// InvalidHoursMessage is shown when the schedule field cannot be parsed
const InvalidHoursMessage = "올바른 시간이 아닙니다. 다시 입력해주세요."

var dailyHoursExpr = regexp.MustCompile(`^0 0 ([\d,]+) \* \* \*$`)

// HoursToCron turns "9, 21" into "0 0 9,21 * * *". Blank input means no
// schedule and yields "".
func HoursToCron(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", nil
	}

	parts := strings.Split(input, ",")
	hours := make([]string, 0, len(parts))
	for _, p := range parts {
		h, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || h < 0 || h > 23 {
			return "", domain.NewUserError(InvalidHoursMessage)
		}
		hours = append(hours, strconv.Itoa(h))
	}
	return "0 0 " + strings.Join(hours, ",") + " * * *", nil
}

// CronToHours extracts the hour list from a daily expression for the modal.
// Other expressions are returned unchanged; blank yields DefaultHours.
func CronToHours(expr string) string {
	if expr == "" {
		return DefaultHours
	}
	if m := dailyHoursExpr.FindStringSubmatch(expr); m != nil {
		return m[1]
	}
	return expr
}
