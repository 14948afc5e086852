// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStorageNameRoundTrip(t *testing.T) {
	tests := []struct {
		domain  string
		storage string
	}{
		{"mailboxId", "mailbox_id"},
		{"receiveTimeUtc", "receive_time_utc"},
		{"nextStartId", "next_start_id"},
		{"name", "name"},
		{"url", "url"},
		{"satelliteGatewayName", "satellite_gateway_name"},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			require.Equal(t, tt.storage, ToStorageName(tt.domain))
			require.Equal(t, tt.domain, FromStorageName(tt.storage))
		})
	}
}

func TestCodecStructuredRoundTrip(t *testing.T) {
	codec := NewCodec(false, true)
	value := map[string]any{
		"latitude":  45.5,
		"longitude": -75.6,
		"tags":      []any{"a", "b"},
	}

	storageName, storageValue, err := codec.ToStorage("location", value)
	require.NoError(t, err)
	require.Equal(t, "location", storageName)
	require.IsType(t, "", storageValue, "structured value must serialize to text")

	name, restored, err := codec.FromStorage(storageName, storageValue)
	require.NoError(t, err)
	require.Equal(t, "location", name)
	require.Equal(t, value, restored)
}

func TestCodecPlainTextFallback(t *testing.T) {
	codec := NewCodec(false, true)
	name, value, err := codec.FromStorage("description", "pump station 7")
	require.NoError(t, err)
	require.Equal(t, "description", name)
	require.Equal(t, "pump station 7", value)
}

func TestCodecNaiveDatetime(t *testing.T) {
	codec := NewCodec(true, true)

	_, stored, err := codec.ToStorage("receiveTimeUtc", "2024-01-02T03:04:05Z")
	require.NoError(t, err)
	require.Equal(t, "2024-01-02 03:04:05", stored)

	name, restored, err := codec.FromStorage("receive_time_utc", "2024-01-02 03:04:05")
	require.NoError(t, err)
	require.Equal(t, "receiveTimeUtc", name)
	require.Equal(t, "2024-01-02T03:04:05Z", restored)
}

func TestCodecEmptyTimeSurvives(t *testing.T) {
	codec := NewCodec(true, true)
	_, stored, err := codec.ToStorage("nextStartTimeUtc", "")
	require.NoError(t, err)
	require.Equal(t, "", stored)

	_, restored, err := codec.FromStorage("next_start_time_utc", "")
	require.NoError(t, err)
	require.Equal(t, "", restored)
}

func TestCodecTimeValueFormatted(t *testing.T) {
	codec := NewCodec(false, false)
	when := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	name, value, err := codec.FromStorage("call_time_utc", when)
	require.NoError(t, err)
	require.Equal(t, "callTimeUtc", name)
	require.Equal(t, "2024-05-06T07:08:09Z", value)
}

func TestCodecStringKeyNormalization(t *testing.T) {
	codec := NewCodec(false, true)

	// A numeric id read back from storage stays textual on the domain side.
	_, value, err := codec.FromStorage("mailbox_id", "590")
	require.NoError(t, err)
	require.Equal(t, "590", value)

	_, value, err = codec.FromStorage("mailbox_id", float64(590))
	require.NoError(t, err)
	require.Equal(t, "590", value)
}

func TestCodecFieldsRoundTrip(t *testing.T) {
	codec := NewCodec(false, true)
	fields := map[string]any{
		"mobileId":         "01459438SKYEE3D",
		"mailboxId":        "590",
		"broadcastIdCount": float64(0),
		"broadcastIds":     []any{},
		"enabled":          true,
		"location": map[string]any{
			"latitude":  45.5,
			"fixStatus": float64(1),
		},
		"description": nil,
	}

	encoded, err := codec.EncodeFields(fields)
	require.NoError(t, err)
	require.Contains(t, encoded, "mobile_id")
	require.Contains(t, encoded, "broadcast_id_count")

	decoded, err := codec.DecodeFields(encoded)
	require.NoError(t, err)
	require.Equal(t, fields, decoded)
}

func TestCodecEncodeFilter(t *testing.T) {
	codec := NewCodec(true, true)
	filter, err := codec.EncodeFilter(Filter{
		"mailboxId":   "590",
		"completed":   true,
		"callTimeUtc": "2024-01-02T03:04:05Z",
	})
	require.NoError(t, err)
	require.Equal(t, Filter{
		"mailbox_id":    "590",
		"completed":     true,
		"call_time_utc": "2024-01-02 03:04:05",
	}, filter)

	nilFilter, err := codec.EncodeFilter(nil)
	require.NoError(t, err)
	require.Nil(t, nilFilter)
}
