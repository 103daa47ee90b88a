package shared

import (
	apperrors "github.com/dietcompass/planner/pkg/errors"
)

// Warning is a recoverable problem recorded during a reconciliation pass
type Warning struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Subject string              `json:"subject,omitempty"`
}

// NewWarning builds a warning from an application error
func NewWarning(err *apperrors.AppError, subject string) Warning {
	msg := err.Message
	if err.Details != "" {
		msg = err.Details
	}
	return Warning{Code: err.Code, Message: msg, Subject: subject}
}

// Warnings is an ordered list of warnings
type Warnings []Warning

// Count returns how many warnings carry the code
func (ws Warnings) Count(code apperrors.ErrorCode) int {
	n := 0
	for _, w := range ws {
		if w.Code == code {
			n++
		}
	}
	return n
}
