// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package audit

import (
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/pebbledb"
	"github.com/prometheus/client_golang/prometheus"

	tcplog "github.com/luxfi/tcpcore/log"
)

// OpenFile opens (or creates) a pebble-backed, on-disk audit log at
// dir and returns both the Log and the underlying database.Database so
// the caller can Close it when done. This is the durable counterpart
// to audit.New(memdb.New()), used by the verify-log operator command
// and by any deployment wiring a real (non-test) audit sink.
func OpenFile(dir string) (*Log, database.Database, error) {
	db, err := pebbledb.New(dir, nil, tcplog.NewNoOpLogger(), "tcpaudit", prometheus.NewRegistry())
	if err != nil {
		return nil, nil, fmt.Errorf("audit: opening %s: %w", dir, err)
	}
	return New(db), db, nil
}
