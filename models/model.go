// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

// Package models defines the persisted domain models of the satellite
// messaging system and the category registry describing how each one is
// stored, diffed, and retained.
package models

import (
	"encoding/json"
	"fmt"
)

// Category tags. One tag partitions all stored records of one model.
const (
	CategoryMailbox          = "mailbox"
	CategoryMobile           = "mobile"
	CategoryMessageReturn    = "message_return"
	CategoryMessageForward   = "message_forward"
	CategorySatelliteGateway = "satellite_gateway"
)

// EpochTimeUtc is the placeholder timestamp for never-observed events.
const EpochTimeUtc = "1970-01-01T00:00:00Z"

// Crypter encrypts and decrypts stored credentials. The implementation is
// an external collaborator; the models only carry its ciphertext.
type Crypter interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// MergeNonNull overlays src's non-null fields onto dst, leaving dst's
// values in place wherever src has no opinion. Both must be models of the
// same shape. Useful for folding a partial gateway response into a
// previously fetched entity before an upsert.
func MergeNonNull(dst, src any) error {
	var dstFields, srcFields map[string]any
	raw, err := json.Marshal(dst)
	if err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if err := json.Unmarshal(raw, &dstFields); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if raw, err = json.Marshal(src); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if err := json.Unmarshal(raw, &srcFields); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	for name, value := range srcFields {
		if value == nil {
			continue
		}
		dstFields[name] = value
	}
	if raw, err = json.Marshal(dstFields); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("merge: %w", err)
	}
	return nil
}
