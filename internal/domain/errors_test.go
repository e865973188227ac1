package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayMessage(t *testing.T) {
	assert.Equal(t, "", DisplayMessage(nil))
	assert.Equal(t, "insufficient funds", DisplayMessage(errors.New("insufficient funds")))
	assert.Equal(t, UnknownErrorMessage, DisplayMessage(errors.New("")))

	wrapped := fmt.Errorf("execute trade: %w", NewUserError("업비트 API 키가 등록되지 않았습니다."))
	assert.Equal(t, "업비트 API 키가 등록되지 않았습니다.", DisplayMessage(wrapped))
}

func TestWrapUserError_Unwraps(t *testing.T) {
	cause := errors.New("401 unauthorized")
	err := WrapUserError("bad key", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "bad key", err.Error())
}

func TestUser_HasCredentials(t *testing.T) {
	u := User{UserID: "1", UpbitAccessKey: "a"}
	assert.False(t, u.HasCredentials())
	u.UpbitSecretKey = "b"
	assert.True(t, u.HasCredentials())
	assert.Equal(t, "<@1>", u.Mention())
}
