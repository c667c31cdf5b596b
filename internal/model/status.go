package model

import (
	"net/http"

	"github.com/frankli0324/go-transporter/internal/errors"
)

const UnknownStatus = "Unknown Status"

// StatusMessage returns the reason phrase registered for code.
func StatusMessage(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return UnknownStatus
}

func NewStatus(code int) Status {
	return Status{Code: code, Message: StatusMessage(code)}
}

// Successful reports whether code lies in [200, 300).
func Successful(code int) bool {
	return code >= 200 && code < 300
}

// CheckStatus returns an errors.HTTPStatusError unless code is a success code.
func CheckStatus(url string, code int) error {
	if Successful(code) {
		return nil
	}
	return errors.HTTPStatusError{URL: url, Code: code, Message: StatusMessage(code)}
}
