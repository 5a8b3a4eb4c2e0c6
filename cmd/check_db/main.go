// check_db prints a data integrity report for the journal database and can
// rebuild stale streak projections.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"journal-backend/internal/config"
	"journal-backend/internal/database"
	"journal-backend/internal/datekey"
	"journal-backend/internal/store"
	"journal-backend/internal/streak"
)

var CLI struct {
	Repair bool   `help:"Recompute streak projections that drifted from check history."`
	TZ     string `name:"tz" help:"Time zone used for 'today' when recomputing streaks."`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("check_db"),
		kong.Description("Journal database integrity report"),
		kong.UsageOnError(),
	)

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	// Database connection
	db, err := database.Connect(config.DatabaseFromEnv())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close(db)

	fmt.Println("✅ Connected to database")
	fmt.Println()

	// Table row counts
	fmt.Println("📊 Row counts:")
	for _, table := range []string{"users", "habits", "habit_checks", "habit_streaks", "events", "journal_entries"} {
		var n int64
		if err := db.Table(table).Count(&n).Error; err != nil {
			fmt.Printf("  - %s: ❌ %v\n", table, err)
			continue
		}
		fmt.Printf("  - %s: %d\n", table, n)
	}
	fmt.Println()

	// Duplicate (habit, date) checks; the unique index should make this 0
	var dupChecks int64
	query := `
		SELECT COUNT(*) FROM (
			SELECT user_id, habit_id, date
			FROM habit_checks
			GROUP BY user_id, habit_id, date
			HAVING COUNT(*) > 1
		) d
	`
	if err := db.Raw(query).Scan(&dupChecks).Error; err != nil {
		log.Fatal("Failed to check duplicate habit checks:", err)
	}

	var dupEntries int64
	query = `
		SELECT COUNT(*) FROM (
			SELECT user_id, date
			FROM journal_entries
			GROUP BY user_id, date
			HAVING COUNT(*) > 1
		) d
	`
	if err := db.Raw(query).Scan(&dupEntries).Error; err != nil {
		log.Fatal("Failed to check duplicate journal entries:", err)
	}

	// Checks whose habit no longer exists
	var orphanChecks int64
	query = `
		SELECT COUNT(*)
		FROM habit_checks c
		LEFT JOIN habits h ON h.id = c.habit_id AND h.user_id = c.user_id
		WHERE h.id IS NULL
	`
	if err := db.Raw(query).Scan(&orphanChecks).Error; err != nil {
		log.Fatal("Failed to check orphan habit checks:", err)
	}

	fmt.Println("🔎 Integrity:")
	fmt.Printf("  - Duplicate habit checks: %d\n", dupChecks)
	fmt.Printf("  - Duplicate journal entries: %d\n", dupEntries)
	fmt.Printf("  - Orphan habit checks: %d\n", orphanChecks)
	fmt.Println()

	// Streak projections vs. check history
	loc, err := datekey.LoadLocation(CLI.TZ)
	if err != nil {
		log.Fatalf("Invalid --tz: %v", err)
	}
	today := datekey.Today(loc)

	type habitRow struct {
		ID     string
		UserID string
		Name   string
	}
	var habits []habitRow
	if err := db.Raw(`SELECT id, user_id, name FROM habits ORDER BY created_at`).Scan(&habits).Error; err != nil {
		log.Fatal("Failed to list habits:", err)
	}

	st := store.NewGormStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	drifted, repaired := 0, 0
	for _, h := range habits {
		checks, err := st.ChecksForHabit(ctx, h.UserID, h.ID, nil)
		if err != nil {
			log.Fatalf("Failed to load checks for %s: %v", h.ID, err)
		}
		want := streak.Compute(h.ID, checks, today, 0)

		got, err := st.GetStreak(ctx, h.UserID, h.ID)
		switch {
		case err == nil && got.CurrentStreak == want.CurrentStreak && got.LongestStreak >= want.LongestStreak:
			continue
		case err != nil && !errors.Is(err, store.ErrNotFound):
			log.Fatalf("Failed to load streak for %s: %v", h.ID, err)
		}

		drifted++
		if got == nil {
			fmt.Printf("  - %s (%s): missing projection, expected current=%d longest=%d\n",
				h.Name, h.ID, want.CurrentStreak, want.LongestStreak)
		} else {
			fmt.Printf("  - %s (%s): current %d→%d, longest %d→%d\n",
				h.Name, h.ID, got.CurrentStreak, want.CurrentStreak, got.LongestStreak, want.LongestStreak)
		}

		if CLI.Repair {
			previous := 0
			if got != nil {
				previous = got.LongestStreak
			}
			fixed := streak.Compute(h.ID, checks, today, previous)
			fixed.UserID = h.UserID
			if err := st.SaveStreak(ctx, &fixed); err != nil {
				log.Fatalf("Failed to save streak for %s: %v", h.ID, err)
			}
			repaired++
		}
	}

	fmt.Println()
	fmt.Printf("📈 Streak projections: %d habits, %d drifted", len(habits), drifted)
	if CLI.Repair {
		fmt.Printf(", %d repaired", repaired)
	}
	fmt.Println()
	if drifted > 0 && !CLI.Repair {
		fmt.Println("⚠️  Run with --repair to rebuild drifted projections")
	}
}
