// Package main prints the cost report for a journey session.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gorm.io/gorm/logger"

	"github.com/leo-guinan/pathofgreatness/internal/costs"
	dbgorm "github.com/leo-guinan/pathofgreatness/internal/db/gorm"
)

func main() {
	dbPath := flag.String("db", "data/journey.db", "Path to the SQLite database")
	sessionID := flag.String("session", "", "Session ID (required)")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	if *sessionID == "" {
		fmt.Fprintln(os.Stderr, "--session is required")
		flag.Usage()
		os.Exit(2)
	}

	store, err := dbgorm.NewStore(dbgorm.Config{
		Path:     *dbPath,
		LogLevel: logger.Silent,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ledger := costs.NewLedger(dbgorm.NewCostStore(store))
	report, err := ledger.BuildReport(context.Background(), *sessionID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build report: %v\n", err)
		os.Exit(1)
	}

	fmt.Print(costs.FormatReport(report))
}
