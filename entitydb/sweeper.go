// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package entitydb

import (
	"context"
	"errors"
	"fmt"
)

// RemoveAged sweeps every category with a retention horizon, deleting the
// records whose aged key is strictly older than now minus the TTL. A record
// sitting exactly on the boundary survives. Individual find or delete
// failures are logged and skipped so one bad record cannot abort the whole
// sweep; the joined failures come back alongside the per-category counts.
func (s *Store) RemoveAged(ctx context.Context) (map[string]int, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	var sweepErrs []error
	for _, spec := range s.registry.Aged() {
		counts[spec.Category] = 0
		agedKey := spec.AgedKey
		if agedKey == "" {
			agedKey = SortByUpdated
		}
		cutoff := s.now().UTC().Add(-spec.TTL)
		aged, err := s.findStored(ctx, spec.Category, nil, nil, &Options{
			OlderThan: &AgeBound{Field: agedKey, Cutoff: cutoff},
		})
		if err != nil {
			s.logger.Error("retention sweep find failed",
				"category", spec.Category, "error", err)
			sweepErrs = append(sweepErrs, fmt.Errorf("sweep %s: %w", spec.Category, err))
			continue
		}
		for _, rec := range aged {
			removed, err := s.adapter.DeleteRaw(ctx, rec.ID, spec.Category)
			if err != nil {
				s.logger.Warn("retention sweep delete failed",
					"category", spec.Category, "id", rec.ID, "error", err)
				sweepErrs = append(sweepErrs, fmt.Errorf("sweep %s %s: %w", spec.Category, rec.ID, err))
				continue
			}
			if removed {
				counts[spec.Category]++
			}
		}
		s.logger.Info("retention sweep",
			"category", spec.Category, "cutoff", cutoff, "removed", counts[spec.Category])
	}
	return counts, errors.Join(sweepErrs...)
}
