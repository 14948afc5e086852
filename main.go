// Copyright 2025 Inmarsat
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
)

func main() {
	fmt.Println("🛰  isatdatapro-microservices - Satellite Messaging Entity Store")
	fmt.Println("================================================================")
	fmt.Println()
	fmt.Println("A conflict-aware persistence layer for IsatData Pro gateway pollers:")
	fmt.Println("category-tagged entities, field-level reconciliation, retention")
	fmt.Println("sweeping, and poll-cursor tracking over SQLite or PostgreSQL.")
	fmt.Println()

	fmt.Println("📚 Available Examples:")
	fmt.Println()
	fmt.Println("1. 📡 Mailbox Poller Example (examples/poller/)")
	fmt.Println("   One simulated poll cycle: cursor derivation, message reconciliation,")
	fmt.Println("   modem sightings, and call logging")
	fmt.Println("   Run: cd examples/poller && go run .")
	fmt.Println()

	fmt.Println("2. 🧹 Maintenance Example (examples/maintenance/)")
	fmt.Println("   Retention sweeping as a standalone job, one-shot or on an interval")
	fmt.Println("   Run: cd examples/maintenance && go run .")
	fmt.Println()

	fmt.Println("Configuration is read from the environment (or a local .env file):")
	fmt.Println("  DB_TYPE=document|relational, SQLITE_FILE, DATABASE_URL,")
	fmt.Println("  DB_TTL_DAYS, DB_TTL_DAYS_API, SATELLITE_HISTORY_HOURS, LOG_LEVEL")
}
