// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package models

// MobileVersion describes the modem hardware and firmware.
type MobileVersion struct {
	Hardware  string `json:"hardware"`
	Firmware  string `json:"firmware"`
	ProductID string `json:"productId"`
}

// MobileLocation is the last reported GNSS fix.
type MobileLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AltitudeM float64 `json:"altitude_m"`
	SpeedKph  float64 `json:"speed_kph"`
	Heading   float64 `json:"heading"`
	Timestamp int64   `json:"timestamp"`
	FixStatus int     `json:"fixStatus"`
}

// Mobile represents a satellite modem and the asset it is attached to.
// Nil pointer fields mean "no opinion" on upsert and never overwrite
// stored values.
type Mobile struct {
	Category                   string          `json:"category"`
	MobileID                   string          `json:"mobileId"`
	Description                *string         `json:"description"`
	MailboxID                  string          `json:"mailboxId"`
	SatelliteRegion            *string         `json:"satelliteRegion"`
	LastRegistrationTimeUtc    *string         `json:"lastRegistrationTimeUtc"`
	LastMessageReceivedTimeUtc *string         `json:"lastMessageReceivedTimeUtc"`
	LastResetReason            *string         `json:"lastResetReason"`
	OperatorTxState            *string         `json:"operatorTxState"`
	UserTxState                *string         `json:"userTxState"`
	MobileWakeupPeriod         string          `json:"mobileWakeupPeriod"`
	Version                    *MobileVersion  `json:"version"`
	Location                   *MobileLocation `json:"location"`
	BroadcastIDCount           int             `json:"broadcastIdCount"`
	BroadcastIDs               []int           `json:"broadcastIds"`
}

// NewMobile builds a modem entry assigned to a mailbox.
func NewMobile(mobileID string, mailboxID any) *Mobile {
	return &Mobile{
		Category:           CategoryMobile,
		MobileID:           mobileID,
		MailboxID:          MailboxIDString(mailboxID),
		MobileWakeupPeriod: "None",
		BroadcastIDs:       []int{},
	}
}
