package domain

import (
	"errors"
	"strings"
)

// UnknownErrorMessage is shown when an error carries no displayable text
const UnknownErrorMessage = "알 수 없는 오류가 발생했습니다."

// AccountReportFailedMessage replaces the account summary when valuation fails after a trade
const AccountReportFailedMessage = "계좌 정보를 불러오지 못했습니다."

// UserError is an error whose message is safe to show to Discord users
type UserError struct {
	Msg string
	Err error
}

// NewUserError creates a displayable error
func NewUserError(msg string) *UserError {
	return &UserError{Msg: msg}
}

// WrapUserError attaches a displayable message to an internal error
func WrapUserError(msg string, err error) *UserError {
	return &UserError{Msg: msg, Err: err}
}

func (e *UserError) Error() string {
	return e.Msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// DisplayMessage returns the text shown to users for err.
// UserError messages win; otherwise the error text, or the generic fallback when empty.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	var userErr *UserError
	if errors.As(err, &userErr) && userErr.Msg != "" {
		return userErr.Msg
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return UnknownErrorMessage
}
