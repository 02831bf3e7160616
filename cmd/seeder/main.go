package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/ammerola/boxwise-be/internal/adapters/db"
	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/services"
	"github.com/ammerola/boxwise-be/internal/pkg/logger"
)

// seederState tracks what earlier runs wrote so reruns top up instead of duplicating
type seederState struct {
	SeededCount int       `json:"seeded_count"`
	Seed        uint64    `json:"seed"`
	Sources     []string  `json:"sources"`
	LastUpdate  time.Time `json:"last_update"`
}

func loadState(path string) seederState {
	var state seederState
	if data, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(data, &state)
	}
	return state
}

func saveState(path string, state seederState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// loadSheet reads items from an export or import workbook
func loadSheet(path string) ([]domain.Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return services.ParseItemsWorkbook(data)
}

func main() {
	// Parse flags
	var (
		count     = flag.Int("count", 250, "Number of items the database should hold after seeding")
		seed      = flag.Uint64("seed", 42, "Random seed for generated items")
		sheet     = flag.String("from", "", "Seed from an items workbook instead of generating")
		stateFile = flag.String("state", "./.seed_state.json", "State file for tracking progress")
		logLevel  = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun    = flag.Bool("dry-run", false, "Preview changes without modifying database")
		force     = flag.Bool("force", false, "Ignore the state file and seed the full count")
	)
	flag.Parse()

	log := logger.SetupLogger(*logLevel, "text", "boxwise-seeder").Logger

	state := seederState{Seed: *seed}
	if !*force {
		state = loadState(*stateFile)
	}

	var (
		items  []domain.Item
		source string
	)
	if *sheet != "" {
		var err error
		items, err = loadSheet(*sheet)
		if err != nil {
			log.Error("Failed to load workbook", slog.String("error", err.Error()))
			os.Exit(1)
		}
		source = *sheet
		for _, s := range state.Sources {
			if s == source {
				log.Info("Workbook already seeded, use -force to load it again", slog.String("file", source))
				return
			}
		}
	} else {
		missing := *count - state.SeededCount
		if missing <= 0 {
			log.Info("Nothing to seed", slog.Int("seeded", state.SeededCount), slog.Int("count", *count))
			return
		}
		// Offsetting the seed keeps top-up runs from repeating earlier serials
		gen := NewGenerator(*seed + uint64(state.SeededCount))
		items = gen.Items(missing, state.SeededCount)
		source = "generated"
	}

	fmt.Printf("PROGRESS: Seeding %d items from %s\n", len(items), source)

	if *dryRun {
		for i, item := range items {
			if i == 10 {
				fmt.Printf("  ... and %d more\n", len(items)-10)
				break
			}
			fmt.Printf("  - %s %s (%s, %s) x%d $%s\n",
				item.AssetID, item.Name, refName(item.Location), refName(item.Category),
				item.Quantity, item.PurchasePrice.StringFixed(2))
		}
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	ctx := context.Background()

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               getEnv("DB_HOST", "localhost"),
		Port:               getEnv("DB_PORT", "5432"),
		User:               getEnv("DB_USER", "boxwise"),
		Password:           getEnv("DB_PASSWORD", "boxwise_dev"),
		Database:           getEnv("DB_NAME", "boxwise"),
		SSLMode:            getEnv("DB_SSL_MODE", "disable"),
		MaxConnections:     4,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    5 * time.Minute,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     10 * time.Second,
		StatementCacheMode: "describe",
		ConnectRetries:     3,
	}, log)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	itemService := services.NewItemService(db.NewItemRepository(database, log), nil, 0, log)

	start := time.Now()
	saved, err := itemService.ImportItems(ctx, items)
	state.SeededCount += saved
	state.LastUpdate = time.Now()
	if *sheet != "" && err == nil {
		state.Sources = append(state.Sources, source)
	}
	if serr := saveState(*stateFile, state); serr != nil {
		log.Warn("Failed to save state", slog.String("error", serr.Error()))
	}
	if err != nil {
		log.Error("Failed to save items",
			slog.Int("saved", saved),
			slog.String("error", err.Error()))
		fmt.Printf("ERROR: Saved %d of %d items - %v\n", saved, len(items), err)
		os.Exit(1)
	}

	// Summary
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Source:        %s\n", source)
	fmt.Printf("Items Created: %d\n", saved)
	fmt.Printf("Total Seeded:  %d\n", state.SeededCount)
	fmt.Printf("Duration:      %s\n", time.Since(start).Round(time.Millisecond))

	log.Info("Seed operation completed",
		slog.Int("items_created", saved),
		slog.Int("total_seeded", state.SeededCount),
		slog.String("source", source))
}

func refName(r *domain.Ref) string {
	if r == nil {
		return "-"
	}
	return r.Name
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
