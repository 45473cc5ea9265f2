// cmd/nutrition-plan/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mcp-nutrition-plan/internal/config"
	"mcp-nutrition-plan/internal/models"
	"mcp-nutrition-plan/internal/planner"
	"mcp-nutrition-plan/internal/server"
	"mcp-nutrition-plan/internal/storage"
	"mcp-nutrition-plan/internal/tabular"
)

var (
	configPath  = flag.String("config", "", "Path to a YAML config file")
	mode        = flag.String("mode", "", "Run mode: solve or serve")
	clients     = flag.String("clients", "", "Clients CSV path")
	mealSlots   = flag.String("meals", "", "Client meals CSV path")
	ingredients = flag.String("ingredients", "", "Meal ingredients CSV path")
	output      = flag.String("output", "", "Output path (.xlsx or .csv)")
	template    = flag.String("template", "", "XLSX template with a data sheet")
	dbPath      = flag.String("db-path", "", "Database path")
	transport   = flag.String("transport", "", "Transport mode for serve: http or stdio")
	fromDB      = flag.Bool("from-db", false, "Read inputs from the database instead of CSV")
	importCSV   = flag.Bool("import", false, "Store the CSV inputs in the database before solving")
	host        = flag.String("host", "", "Host address")
	port        = flag.Int("port", 0, "Port for HTTP transport")
	workers     = flag.Int("workers", 0, "Clients solved concurrently")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("mcp-nutrition-plan version %s\n", server.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	switch cfg.Mode {
	case config.ModeServe:
		serve(cfg)
	default:
		if err := solve(cfg); err != nil {
			log.Fatalf("Failed to solve plans: %v", err)
		}
	}
}

// applyFlags overrides config values with flags that were set explicitly.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "clients":
			cfg.Inputs.Clients = *clients
		case "meals":
			cfg.Inputs.MealSlots = *mealSlots
		case "ingredients":
			cfg.Inputs.Ingredients = *ingredients
		case "output":
			cfg.Output = *output
		case "template":
			cfg.Template = *template
		case "db-path":
			cfg.DBPath = *dbPath
		case "transport":
			cfg.Transport = *transport
		case "import":
			cfg.Import = *importCSV
		case "from-db":
			cfg.FromDB = *fromDB
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "workers":
			cfg.Workers = *workers
		}
	})
}

func solve(cfg *config.Config) error {
	var stor *storage.SQLiteStorage
	if cfg.DBPath != "" {
		var err error
		if stor, err = storage.NewSQLiteStorage(cfg.DBPath); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer stor.Close()
	}

	in, err := loadInputs(cfg, stor)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	lines, err := planner.New(planner.WithWorkers(cfg.Workers)).Solve(ctx, in)
	if err != nil {
		return err
	}
	summary := planner.Summarize(lines)

	if err := tabular.WriteFile(cfg.Output, cfg.Template, lines); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	log.Printf("Wrote %d lines to %s", summary.Lines, cfg.Output)

	if stor != nil {
		run := &models.PlanRun{
			Lines:         summary.Lines,
			Meals:         summary.Meals,
			UnsolvedMeals: summary.UnsolvedMeals,
		}
		if err := stor.SaveRun(run, lines); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		log.Printf("Saved plan run %s", run.ID)
	}

	log.Printf("Solved %d meals for %d clients in %s (%d unsolved)",
		summary.Meals, len(in.Clients), time.Since(start).Round(time.Millisecond), summary.UnsolvedMeals)
	if summary.UnsolvedMeals > 0 {
		log.Printf("Warning: %d meals could not be balanced within 0-5 units per ingredient", summary.UnsolvedMeals)
	}
	return nil
}

func loadInputs(cfg *config.Config, stor *storage.SQLiteStorage) (models.Inputs, error) {
	if cfg.FromDB {
		in, err := stor.LoadInputs()
		if err != nil {
			return models.Inputs{}, fmt.Errorf("failed to load stored inputs: %w", err)
		}
		log.Printf("Loaded %d clients from %s", len(in.Clients), cfg.DBPath)
		return in, nil
	}

	in, err := tabular.LoadInputs(cfg.Inputs)
	if err != nil {
		return models.Inputs{}, err
	}
	log.Printf("Loaded %d clients, %d meal slots and %d ingredients",
		len(in.Clients), len(in.MealSlots), len(in.Ingredients))

	if cfg.Import {
		if err := in.Validate(); err != nil {
			return models.Inputs{}, fmt.Errorf("invalid inputs: %w", err)
		}
		if err := stor.ReplaceInputs(in); err != nil {
			return models.Inputs{}, err
		}
		log.Printf("Imported inputs into %s", cfg.DBPath)
	}
	return in, nil
}

func serve(cfg *config.Config) {
	srv, err := server.NewPlanServer(&server.Config{
		Transport: cfg.Transport,
		Host:      cfg.Host,
		Port:      cfg.Port,
		DBPath:    cfg.DBPath,
		Workers:   cfg.Workers,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-sigCh:
		log.Println("Received shutdown signal")
	case err := <-errCh:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down...")
	cancel()
	if err := srv.Stop(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
