// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"context"
	"fmt"
)

// CategoryAPICallLog tags the call-log records the high-water-mark tracker
// reads. Pollers write one record per gateway API call.
const CategoryAPICallLog = "api_call_log"

// Gateway API operation names recorded in the call log.
const (
	OpGetReturnMessages     = "getReturnMessages"
	OpSubmitForwardMessages = "submitForwardMessages"
	OpGetForwardStatuses    = "getForwardStatuses"
	OpGetForwardMessages    = "getForwardMessages"
	OpGetMobiles            = "getMobiles"
)

// cursorOperations are the incremental-poll operations a cursor can be
// derived for.
var cursorOperations = []string{OpGetReturnMessages, OpGetForwardStatuses}

// Cursor is the next-poll starting point derived from the most recent
// successful call: a forward sequence id when the gateway supplied one,
// otherwise a forward timestamp.
type Cursor struct {
	StartID      int64
	StartTimeUtc string
}

// Highwatermark derives the poll cursor for a (mailbox, operation) pair
// from the latest completed call-log record. With no usable prior call the
// cursor falls back to now minus the configured lookback window, bounding
// the first poll to recent history. Read-only.
func (s *Store) Highwatermark(ctx context.Context, mailboxID, operation string) (Cursor, error) {
	if err := s.ready(); err != nil {
		return Cursor{}, err
	}
	supported := false
	for _, op := range cursorOperations {
		if op == operation {
			supported = true
			break
		}
	}
	if !supported {
		return Cursor{}, fmt.Errorf("operation %s must be one of %v", operation, cursorOperations)
	}
	include := Filter{
		"operation": operation,
		"mailboxId": mailboxID,
		"completed": true,
	}
	exclude := Filter{"nextStartTimeUtc": ""}
	calls, err := s.Find(ctx, CategoryAPICallLog, include, exclude, &Options{
		Limit: 1,
		Desc:  SortByUpdated,
	})
	if err != nil {
		return Cursor{}, fmt.Errorf("highwatermark %s %s: %w", mailboxID, operation, err)
	}
	if len(calls) > 0 {
		last := calls[0].Fields
		if id := asInt64(last["nextStartId"]); id > 0 {
			s.logger.Debug("found next start id",
				"mailbox", mailboxID, "operation", operation, "start_id", id)
			return Cursor{StartID: id}, nil
		}
		if t, _ := last["nextStartTimeUtc"].(string); t != "" {
			s.logger.Debug("found next start time",
				"mailbox", mailboxID, "operation", operation, "start_time", t)
			return Cursor{StartTimeUtc: t}, nil
		}
	}
	fallback := s.now().UTC().Add(-s.config.Lookback).Format(isoLayout)
	s.logger.Debug("no previous call log, using lookback window",
		"mailbox", mailboxID, "operation", operation, "start_time", fallback)
	return Cursor{StartTimeUtc: fallback}, nil
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}
