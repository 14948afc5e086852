// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package models

import "github.com/Inmarsat/isatdatapro-microservices/entitydb"

// APICallLog records one gateway API call per mailbox and operation. The
// high-water-mark tracker reads the latest completed entry to derive the
// next poll cursor; retention sweeping ages entries out on callTimeUtc.
type APICallLog struct {
	Category             string `json:"category"`
	Operation            string `json:"operation"`
	SatelliteGatewayName string `json:"satelliteGatewayName"`
	MailboxID            string `json:"mailboxId"`
	CallTimeUtc          string `json:"callTimeUtc"`
	Completed            bool   `json:"completed"`
	ErrorID              int    `json:"errorId"`
	Error                string `json:"error"`
	NextStartID          int64  `json:"nextStartId"`
	NextStartTimeUtc     string `json:"nextStartTimeUtc"`
	MessageCount         int    `json:"messageCount"`
}

// NewAPICallLog builds a call-log entry for one API operation.
func NewAPICallLog(operation, satelliteGatewayName string, mailboxID any, callTimeUtc string) *APICallLog {
	return &APICallLog{
		Category:             entitydb.CategoryAPICallLog,
		Operation:            operation,
		SatelliteGatewayName: satelliteGatewayName,
		MailboxID:            MailboxIDString(mailboxID),
		CallTimeUtc:          callTimeUtc,
		NextStartID:          -1,
	}
}

// Success reports whether the call completed without a gateway error.
func (l *APICallLog) Success() bool {
	return l.Completed && l.ErrorID == 0
}
