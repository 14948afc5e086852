// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package models

// Forward message delivery states reported by the gateway.
var forwardStates = []string{
	"SUBMITTED",
	"DELIVERED",
	"ERROR",
	"FAILED_DELIVERY",
	"TIMED_OUT",
	"CANCELLED",
	"WAITING",
	"TRANSMITTED",
}

// Gateway error codes attached to failed forward deliveries.
var forwardErrorNames = map[int]string{
	0:     "NO_ERROR",
	12309: "TIMED_OUT",
	17678: "TOO_LONG",
	21809: "LOW_POWER_RETRY_EXHAUSTED",
	21830: "QUEUE_FULL",
}

// MessageForward is a mobile-terminated message submitted through a
// mailbox. Delivery progress arrives asynchronously via status polls that
// update state, stateTimeUtc, and isClosed.
type MessageForward struct {
	Category             string         `json:"category"`
	Subcategory          string         `json:"subcategory"`
	MessageID            int64          `json:"messageId"`
	UserMessageID        *int64         `json:"userMessageId"`
	MobileID             string         `json:"mobileId"`
	MailboxID            string         `json:"mailboxId"`
	ReferenceNumber      *int64         `json:"referenceNumber"`
	PayloadRaw           []int          `json:"payloadRaw"`
	PayloadJSON          map[string]any `json:"payloadJson"`
	MailboxTimeUtc       string         `json:"mailboxTimeUtc"`
	State                int            `json:"state"`
	StateTimeUtc         string         `json:"stateTimeUtc"`
	ErrorID              int            `json:"errorId"`
	Error                string         `json:"error"`
	MobileWakeupPeriod   int            `json:"mobileWakeupPeriod"`
	ScheduledSendTimeUtc *string        `json:"scheduledSendTimeUtc"`
	IsClosed             bool           `json:"isClosed"`
	Size                 int            `json:"size"`
}

// NewMessageForward builds a forward message submission record.
func NewMessageForward(messageID int64, mobileID string, mailboxID any, payloadRaw []int) *MessageForward {
	m := &MessageForward{
		Category:       CategoryMessageForward,
		Subcategory:    "forward",
		MessageID:      messageID,
		MobileID:       mobileID,
		MailboxID:      MailboxIDString(mailboxID),
		PayloadRaw:     payloadRaw,
		MailboxTimeUtc: EpochTimeUtc,
		StateTimeUtc:   EpochTimeUtc,
		Size:           len(payloadRaw),
	}
	m.Error = m.StateReason()
	return m
}

// StateName returns the human-readable delivery state.
func (m *MessageForward) StateName() string {
	if m.State < 0 || m.State >= len(forwardStates) {
		return "UNKNOWN"
	}
	return forwardStates[m.State]
}

// StateReason returns the human-readable name of the gateway error code.
func (m *MessageForward) StateReason() string {
	if name, ok := forwardErrorNames[m.ErrorID]; ok {
		return name
	}
	return "UNKNOWN"
}
