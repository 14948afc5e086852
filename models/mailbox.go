// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"strconv"
)

// Mailbox is a gateway account whose messages a poller owns. The gateway
// identifies mailboxes numerically in some responses and textually in
// others; the model always carries the id as a string.
type Mailbox struct {
	Category             string `json:"category"`
	MailboxID            string `json:"mailboxId"`
	Name                 string `json:"name"`
	AccessID             string `json:"accessId"`
	EncryptedPassword    string `json:"encryptedPassword"`
	SatelliteGatewayName string `json:"satelliteGatewayName"`
	Enabled              bool   `json:"enabled"`
}

// NewMailbox builds a mailbox for a gateway account. mailboxID may be a
// string or a number.
func NewMailbox(mailboxID any, name, accessID, satelliteGatewayName string) *Mailbox {
	return &Mailbox{
		Category:             CategoryMailbox,
		MailboxID:            MailboxIDString(mailboxID),
		Name:                 name,
		AccessID:             accessID,
		SatelliteGatewayName: satelliteGatewayName,
		Enabled:              true,
	}
}

// SetPassword stores the gateway credential encrypted.
func (m *Mailbox) SetPassword(c Crypter, password string) error {
	encrypted, err := c.Encrypt(password)
	if err != nil {
		return fmt.Errorf("encrypt mailbox %s password: %w", m.MailboxID, err)
	}
	m.EncryptedPassword = encrypted
	return nil
}

// Password recovers the gateway credential.
func (m *Mailbox) Password(c Crypter) (string, error) {
	password, err := c.Decrypt(m.EncryptedPassword)
	if err != nil {
		return "", fmt.Errorf("decrypt mailbox %s password: %w", m.MailboxID, err)
	}
	return password, nil
}

// MailboxIDString normalizes a mailbox identifier to its string form.
func MailboxIDString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
