package event

import (
	"context"
	"fmt"
)

// Channel names. Per-record channels carry the record's public id so
// subscribers can scope to one request or one borrower.
const (
	ChannelNewRequest = "loan_request.new"
)

func RequestUpdatedChannel(requestID string) string {
	return fmt.Sprintf("loan_request.updated.%s", requestID)
}

func InterestReceivedChannel(borrowerID string) string {
	return fmt.Sprintf("loan_interest.received.%s", borrowerID)
}

// Bus fans lifecycle events out to subscribers, at-least-once, ordered
// within one channel. Publish is fire-and-forget: implementations log
// failures and never surface them, so a dropped notification can't roll
// back the record mutation that triggered it.
type Bus interface {
	Publish(ctx context.Context, channel string, payload any)
}
