// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package models

// MessageReturn is a mobile-originated message retrieved from a mailbox.
// messageId is assigned by the network and unique within the category;
// receiveTimeUtc guards against stale out-of-order updates.
type MessageReturn struct {
	Category        string         `json:"category"`
	Subcategory     string         `json:"subcategory"`
	MessageID       int64          `json:"messageId"`
	MobileID        string         `json:"mobileId"`
	MailboxID       string         `json:"mailboxId"`
	CodecServiceID  *int           `json:"codecServiceId"`
	CodecMessageID  *int           `json:"codecMessageId"`
	PayloadRaw      []int          `json:"payloadRaw"`
	PayloadJSON     map[string]any `json:"payloadJson"`
	MailboxTimeUtc  string         `json:"mailboxTimeUtc"`
	ReceiveTimeUtc  *string        `json:"receiveTimeUtc"`
	SatelliteRegion *string        `json:"satelliteRegion"`
	Size            int            `json:"size"`
}

// NewMessageReturn builds a return message from decoded gateway data. The
// codec ids are derived from the raw payload when present.
func NewMessageReturn(messageID int64, mobileID string, mailboxID any, payloadRaw []int, mailboxTimeUtc string) *MessageReturn {
	m := &MessageReturn{
		Category:       CategoryMessageReturn,
		Subcategory:    "return",
		MessageID:      messageID,
		MobileID:       mobileID,
		MailboxID:      MailboxIDString(mailboxID),
		PayloadRaw:     payloadRaw,
		MailboxTimeUtc: mailboxTimeUtc,
		Size:           len(payloadRaw),
	}
	if len(payloadRaw) > 1 {
		sin, min := payloadRaw[0], payloadRaw[1]
		m.CodecServiceID = &sin
		m.CodecMessageID = &min
	}
	return m
}
