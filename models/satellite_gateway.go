// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package models

// SatelliteGateway is a satellite messaging network API endpoint. alive
// flips on observed failures and recoveries; aliveChangeTimeUtc guards
// against out-of-order health updates.
type SatelliteGateway struct {
	Category           string `json:"category"`
	Name               string `json:"name"`
	URL                string `json:"url"`
	Alive              bool   `json:"alive"`
	AliveChangeTimeUtc string `json:"aliveChangeTimeUtc"`
}

// NewSatelliteGateway builds a gateway entry, assumed alive on creation.
func NewSatelliteGateway(name, url string) *SatelliteGateway {
	return &SatelliteGateway{
		Category:           CategorySatelliteGateway,
		Name:               name,
		URL:                url,
		Alive:              true,
		AliveChangeTimeUtc: EpochTimeUtc,
	}
}
