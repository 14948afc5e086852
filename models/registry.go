// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package models

import (
	"fmt"
	"time"

	"github.com/Inmarsat/isatdatapro-microservices/entitydb"
)

// Default retention horizons. Call-log entries age out quickly; messages
// are kept long enough to cover gateway retrieval windows and audits.
const (
	DefaultMessageTTL = 90 * 24 * time.Hour
	DefaultCallLogTTL = 7 * 24 * time.Hour
)

// RegistryOptions overrides the retention horizons. Zero values take the
// defaults.
type RegistryOptions struct {
	MessageTTL time.Duration
	CallLogTTL time.Duration
}

// NewRegistry declares the category schemas for every persisted model.
// The column layouts are the versioned source of truth for relational
// backends; document backends only read the key metadata.
func NewRegistry(opts *RegistryOptions) (*entitydb.Registry, error) {
	messageTTL := DefaultMessageTTL
	callLogTTL := DefaultCallLogTTL
	if opts != nil {
		if opts.MessageTTL > 0 {
			messageTTL = opts.MessageTTL
		}
		if opts.CallLogTTL > 0 {
			callLogTTL = opts.CallLogTTL
		}
	}

	registry := entitydb.NewRegistry()
	specs := []entitydb.CategorySpec{
		{
			Category:  CategoryMailbox,
			UniqueKey: "mailboxId",
			Columns: []entitydb.ColumnSpec{
				{Name: "mailboxId", Type: entitydb.ColText, Length: 50, NotNull: true},
				entitydb.TextColumn("name"),
				entitydb.TextColumn("accessId"),
				{Name: "encryptedPassword", Type: entitydb.ColText, Length: 150},
				entitydb.TextColumn("satelliteGatewayName"),
				{Name: "enabled", Type: entitydb.ColBool, NotNull: true},
			},
		},
		{
			Category:  CategoryMobile,
			UniqueKey: "mobileId",
			Columns: []entitydb.ColumnSpec{
				{Name: "mobileId", Type: entitydb.ColText, Length: 50, NotNull: true},
				entitydb.TextColumn("description"),
				entitydb.TextColumn("mailboxId"),
				entitydb.TextColumn("satelliteRegion"),
				{Name: "lastRegistrationTimeUtc", Type: entitydb.ColTimestamp},
				{Name: "lastMessageReceivedTimeUtc", Type: entitydb.ColTimestamp},
				entitydb.TextColumn("lastResetReason"),
				entitydb.TextColumn("operatorTxState"),
				entitydb.TextColumn("userTxState"),
				entitydb.TextColumn("mobileWakeupPeriod"),
				{Name: "version", Type: entitydb.ColJSON},
				{Name: "location", Type: entitydb.ColJSON},
				{Name: "broadcastIdCount", Type: entitydb.ColInteger},
				{Name: "broadcastIds", Type: entitydb.ColJSON},
			},
		},
		{
			Category:    CategoryMessageReturn,
			UniqueKey:   "messageId",
			NewestField: "receiveTimeUtc",
			TTL:         messageTTL,
			Columns: []entitydb.ColumnSpec{
				entitydb.TextColumn("subcategory"),
				{Name: "messageId", Type: entitydb.ColBigInt, NotNull: true},
				entitydb.TextColumn("mobileId"),
				entitydb.TextColumn("mailboxId"),
				{Name: "codecServiceId", Type: entitydb.ColInteger},
				{Name: "codecMessageId", Type: entitydb.ColInteger},
				{Name: "payloadRaw", Type: entitydb.ColJSON},
				{Name: "payloadJson", Type: entitydb.ColJSON},
				{Name: "mailboxTimeUtc", Type: entitydb.ColTimestamp},
				{Name: "receiveTimeUtc", Type: entitydb.ColTimestamp},
				entitydb.TextColumn("satelliteRegion"),
				{Name: "size", Type: entitydb.ColInteger},
			},
		},
		{
			Category:  CategoryMessageForward,
			UniqueKey: "messageId",
			TTL:       messageTTL,
			Columns: []entitydb.ColumnSpec{
				entitydb.TextColumn("subcategory"),
				{Name: "messageId", Type: entitydb.ColBigInt, NotNull: true},
				{Name: "userMessageId", Type: entitydb.ColBigInt},
				entitydb.TextColumn("mobileId"),
				entitydb.TextColumn("mailboxId"),
				{Name: "referenceNumber", Type: entitydb.ColBigInt},
				{Name: "payloadRaw", Type: entitydb.ColJSON},
				{Name: "payloadJson", Type: entitydb.ColJSON},
				{Name: "mailboxTimeUtc", Type: entitydb.ColTimestamp},
				{Name: "state", Type: entitydb.ColInteger},
				{Name: "stateTimeUtc", Type: entitydb.ColTimestamp},
				{Name: "errorId", Type: entitydb.ColInteger},
				entitydb.TextColumn("error"),
				{Name: "mobileWakeupPeriod", Type: entitydb.ColInteger},
				{Name: "scheduledSendTimeUtc", Type: entitydb.ColTimestamp},
				{Name: "isClosed", Type: entitydb.ColBool},
				{Name: "size", Type: entitydb.ColInteger},
			},
		},
		{
			Category:    CategorySatelliteGateway,
			UniqueKey:   "name",
			NewestField: "aliveChangeTimeUtc",
			Columns: []entitydb.ColumnSpec{
				entitydb.TextColumn("name"),
				entitydb.TextColumn("url"),
				{Name: "alive", Type: entitydb.ColBool, NotNull: true},
				{Name: "aliveChangeTimeUtc", Type: entitydb.ColTimestamp},
			},
		},
		{
			Category:  entitydb.CategoryAPICallLog,
			UniqueKey: "callTimeUtc",
			TTL:       callLogTTL,
			AgedKey:   "callTimeUtc",
			Columns: []entitydb.ColumnSpec{
				entitydb.TextColumn("operation"),
				entitydb.TextColumn("satelliteGatewayName"),
				entitydb.TextColumn("mailboxId"),
				{Name: "callTimeUtc", Type: entitydb.ColTimestamp, NotNull: true},
				{Name: "completed", Type: entitydb.ColBool, NotNull: true},
				{Name: "errorId", Type: entitydb.ColInteger},
				entitydb.TextColumn("error"),
				{Name: "nextStartId", Type: entitydb.ColBigInt},
				// Empty string means "no cursor"; kept textual so the
				// high-water-mark exclude filter can match it.
				{Name: "nextStartTimeUtc", Type: entitydb.ColText, Length: 50},
				{Name: "messageCount", Type: entitydb.ColInteger},
			},
		},
	}
	for _, spec := range specs {
		if err := registry.Register(spec); err != nil {
			return nil, fmt.Errorf("register %s: %w", spec.Category, err)
		}
	}
	return registry, nil
}
