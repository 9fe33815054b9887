// Package delivery hands inbound messages to the configured mail transport.
//
// Delivery never fails with an error: every transport fault is captured in
// an Outcome so the caller can persist it alongside the message.
package delivery

import "github.com/xraph/smsrelay/message"

// DetailSent is the outcome detail reported for accepted messages.
const DetailSent = "Email sent successfully"

// Outcome is the structured result of one delivery attempt.
type Outcome struct {
	// Status is message.StatusSent or message.StatusFailed.
	Status message.Status `json:"status"`

	// Detail is a human-readable description of the result.
	Detail string `json:"message"`
}

// Sent reports whether the transport accepted the message.
func (o Outcome) Sent() bool { return o.Status == message.StatusSent }

func sent() Outcome {
	return Outcome{Status: message.StatusSent, Detail: DetailSent}
}

func failed(detail string) Outcome {
	return Outcome{Status: message.StatusFailed, Detail: detail}
}
