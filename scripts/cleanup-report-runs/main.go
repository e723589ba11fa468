// cleanup-report-runs removes old report runs and their stored sheet rows
// from the Postgres run registry.
//
// Usage: go run ./scripts/cleanup-report-runs [-days=90] [-dry-run=false]
//
// Database connection: Uses standard PG* environment variables
//
// Flags:
//
//	-days      Retention period in days (default: 90)
//	-dry-run   Show what would be deleted without actually deleting (default: true)
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tradeunity/salesintel/pkg/database"
	"github.com/tradeunity/salesintel/pkg/logging"
	"github.com/tradeunity/salesintel/pkg/repositories"
	"github.com/tradeunity/salesintel/pkg/services"
)

// listLimit caps how many runs a dry run inspects.
const listLimit = 1000

func main() {
	days := flag.Int("days", services.DefaultRetentionDays, "Retention period in days")
	dryRun := flag.Bool("dry-run", true, "Show what would be deleted without actually deleting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logging.New(getEnvOrDefault("ENVIRONMENT", "local"), "info")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	db, err := database.NewConnection(ctx, &database.Config{URL: buildConnString()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	runs := repositories.NewReportRunRepository(db)

	if *dryRun {
		fmt.Println("DRY RUN - no changes will be made")
		fmt.Println("Run with -dry-run=false to actually delete runs")
		fmt.Println()

		count, err := listExpired(ctx, runs, *days)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error listing runs: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nTotal runs that would be deleted: %d\n", count)
		return
	}

	deleted, err := services.NewRetentionService(runs, logger).Prune(ctx, *days)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning runs: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nTotal runs deleted: %d\n", deleted)
	_ = logger.Sync()
}

// listExpired prints the runs a prune with the same retention would delete.
func listExpired(ctx context.Context, runs repositories.ReportRunRepository, days int) (int, error) {
	if days <= 0 {
		days = services.DefaultRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	list, err := runs.List(ctx, listLimit)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, run := range list {
		if !run.StartedAt.Before(cutoff) {
			continue
		}
		count++
		fmt.Printf("  %s  started %s  status %s  lines %d\n",
			run.ID, run.StartedAt.Format(time.RFC3339), run.Status, run.SalesLines)
	}
	if count == 0 {
		fmt.Printf("  No runs started before %s\n", cutoff.Format(time.DateOnly))
	}
	return count, nil
}

func buildConnString() string {
	host := getEnvOrDefault("PGHOST", "localhost")
	port := getEnvOrDefault("PGPORT", "5432")
	user := getEnvOrDefault("PGUSER", "salesintel")
	password := os.Getenv("PGPASSWORD")
	dbname := getEnvOrDefault("PGDATABASE", "salesintel")

	connStr := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
		host, port, user, dbname)
	if password != "" {
		connStr += fmt.Sprintf(" password=%s", password)
	}
	return connStr
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
