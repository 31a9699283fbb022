package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/lifeos/core/internal/auth"
	"github.com/lifeos/core/internal/cache"
	"github.com/lifeos/core/internal/domain/entities"
	"github.com/lifeos/core/internal/infrastructure/config"
	"github.com/lifeos/core/internal/infrastructure/logger"
	"github.com/lifeos/core/internal/infrastructure/server"
	"github.com/lifeos/core/internal/notify"
	syncclient "github.com/lifeos/core/internal/sync"
	"github.com/lifeos/core/internal/transfer"
	"github.com/lifeos/core/internal/weather"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the LifeOS backend adapter",
		Long:  "Start the HTTP adapter that serves the uniform GET/POST sync contract against the configured database backend",
		Run: func(cmd *cobra.Command, args []string) {
			runServer()
		},
	}
}

// NewNotifyCommand creates the notify command
func NewNotifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Run the task deadline notifier",
		Long:  "Enable notifications and scan the task collection on a fixed cadence, alerting once per task per day",
		Run: func(cmd *cobra.Command, args []string) {
			runNotifier()
		},
	}
}

// NewSyncCommand creates the sync command
func NewSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull every collection, warming the local cache",
		Run: func(cmd *cobra.Command, args []string) {
			runSync()
		},
	}
}

// NewSeedCommand creates the seed command
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write a small sample data set through the sync client",
		Run: func(cmd *cobra.Command, args []string) {
			runSeed()
		},
	}
}

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Unlock the dashboard with the configured password",
		Run: func(cmd *cobra.Command, args []string) {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				log.Fatal("Password is required")
			}
			runLogin(password)
		},
	}
	loginCmd.Flags().String("password", "", "Gate password (required)")
	return loginCmd
}

// NewWeatherCommand creates the weather command
func NewWeatherCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "weather",
		Short: "Show current conditions for the configured location",
		Run: func(cmd *cobra.Command, args []string) {
			runWeather()
		},
	}
}

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the user config record",
		Long:  "Show the config record, or move it between devices as a transfer token",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current config record",
		Run: func(cmd *cobra.Command, args []string) {
			runConfigShow()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Encode the config record as a transfer token and copy it to the clipboard",
		Run: func(cmd *cobra.Command, args []string) {
			runConfigExport()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "import [token]",
		Short: "Merge a pasted transfer token into the config record and save it",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			runConfigImport(args[0])
		},
	})

	return configCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print LifeOS version",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			fmt.Printf("%s %s\n", cfg.App.Name, cfg.App.Version)
		},
	}
}

func runServer() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	srv, err := server.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize server", "error", err)
	}

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := srv.Start(address); err != nil {
			appLogger.Info("Server stopped", "error", err)
		}
	}()

	waitForSignal()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Graceful shutdown failed", "error", err)
	}
}

func runNotifier() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	client, store := buildClient(cfg, appLogger)
	sender := notify.NewDesktopSender(appLogger)
	notifier := notify.New(store, client, sender, client, cfg.Notify.Interval, appLogger)

	if _, err := notifier.Enable(context.Background()); err != nil {
		appLogger.Fatal("Notifications could not be enabled", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Deadline notifier running", "interval", cfg.Notify.Interval.String())
	if err := notifier.Run(ctx); err != nil && ctx.Err() == nil {
		appLogger.Error("Notifier stopped", "error", err)
	}
}

func runSync() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	client, _ := buildClient(cfg, appLogger)
	ctx := context.Background()

	for _, col := range entities.Collections() {
		records := client.GetAll(ctx, col)
		fmt.Printf("%-8s %d records\n", col.String(), len(records))
	}
}

func runSeed() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	client, _ := buildClient(cfg, appLogger)
	ctx := context.Background()
	today := time.Now().Format("2006-01-02")

	notes, err := entities.EncodeRecords([]entities.Note{
		{ID: entities.NewID(), Title: "Welcome", Content: "LifeOS is ready.", Date: today},
	})
	if err != nil {
		appLogger.Fatal("Failed to encode seed notes", "error", err)
	}
	tasks, err := entities.EncodeRecords([]entities.Task{
		{ID: entities.NewID(), Title: "Review the week", Description: "Plan upcoming work", DueDate: today, Priority: entities.PriorityMedium, Status: entities.StatusTodo},
	})
	if err != nil {
		appLogger.Fatal("Failed to encode seed tasks", "error", err)
	}
	events, err := entities.EncodeRecords([]entities.CalendarEvent{
		{ID: entities.NewID(), Title: "Weekly review", Description: "", Start: today + "T17:00", End: today + "T17:30", IsRecurring: true},
	})
	if err != nil {
		appLogger.Fatal("Failed to encode seed events", "error", err)
	}

	client.SaveAll(ctx, entities.CollectionNotes, notes)
	client.SaveAll(ctx, entities.CollectionTasks, tasks)
	client.SaveAll(ctx, entities.CollectionEvents, events)
	fmt.Println("Seed data written")
}

func runLogin(password string) {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	_, store := buildClient(cfg, appLogger)
	gate := auth.NewGate(cfg.Auth, store, appLogger)

	if err := gate.Login(password); err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	fmt.Println("Session stored")
}

func runWeather() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	client, _ := buildClient(cfg, appLogger)
	location := client.Settings().WeatherLocation

	current, err := weather.New(appLogger).Current(context.Background(), location)
	if err != nil {
		log.Fatalf("Weather fetch failed: %v", err)
	}
	fmt.Printf("%s: %.0f°C, %s\n", current.City, current.Temperature, current.Description)
}

func runConfigShow() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	client, _ := buildClient(cfg, appLogger)
	out, err := json.MarshalIndent(client.Settings(), "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode settings: %v", err)
	}
	fmt.Println(string(out))
}

func runConfigExport() {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	client, _ := buildClient(cfg, appLogger)
	token, err := transfer.Encode(client.Settings())
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	if err := clipboard.WriteAll(token); err != nil {
		appLogger.Warnw("Clipboard unavailable, printing token only", "error", err)
	}
	fmt.Println(token)
}

func runConfigImport(token string) {
	cfg, appLogger := bootstrap()
	defer appLogger.Close()

	client, _ := buildClient(cfg, appLogger)
	merged, err := transfer.Import(client.Settings(), token)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	client.SaveSettings(merged)
	fmt.Println("Config imported")
}

func bootstrap() (*config.Config, *logger.Logger) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	return cfg, appLogger
}

func buildClient(cfg *config.Config, appLogger *logger.Logger) (*syncclient.Client, *cache.Cache) {
	store, err := cache.New(cfg.Client.DataDir, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open local cache", "error", err)
	}
	return syncclient.New(cfg.Client.APIURL, cfg.Client.Timeout, store, appLogger), store
}

func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
}
