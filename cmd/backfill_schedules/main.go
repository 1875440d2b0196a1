package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/wellspring/maternal-backend/internal/db"
	"github.com/wellspring/maternal-backend/internal/logger"
	"github.com/wellspring/maternal-backend/internal/repos"
	"github.com/wellspring/maternal-backend/internal/services"
)

func main() {
	var childFlag string
	var dryRun bool
	var recreate bool
	flag.StringVar(&childFlag, "child", "", "restrict backfill to one child id")
	flag.BoolVar(&dryRun, "dry-run", false, "report planned changes and roll back")
	flag.BoolVar(&recreate, "recreate", false, "delete DUE rows before regenerating (DONE/MISSED untouched)")
	flag.Parse()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	childRepo := repos.NewChildProfileRepo(thePG, log)
	templateRepo := repos.NewMasterTemplateRepo(thePG, log)
	scheduleRepo := repos.NewScheduleEntryRepo(thePG, log)
	backfillService := services.NewBackfillService(thePG, log, childRepo, templateRepo, scheduleRepo)

	opts := services.BackfillOptions{DryRun: dryRun, Recreate: recreate}
	if childFlag != "" {
		childID, err := uuid.Parse(strings.TrimSpace(childFlag))
		if err != nil || childID == uuid.Nil {
			fmt.Println("invalid -child value, expected a uuid")
			os.Exit(1)
		}
		opts.ChildID = &childID
	}

	result, err := backfillService.Run(context.Background(), opts)
	if err != nil {
		fmt.Printf("backfill failed: %v\n", err)
		os.Exit(1)
	}

	mode := "applied"
	if dryRun {
		mode = "dry run, rolled back"
	}
	fmt.Printf("backfill (%s): children=%d created=%d updated=%d deleted=%d skipped=%d\n",
		mode, result.ChildrenSeen, result.Created, result.Updated, result.Deleted, result.Skipped)
}
