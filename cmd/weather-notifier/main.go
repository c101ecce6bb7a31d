package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-notifier/config"
	"weather-notifier/internal/api"
	"weather-notifier/internal/mqtt"
	"weather-notifier/internal/notifier"
	"weather-notifier/internal/notify"
	"weather-notifier/internal/storage"
	"weather-notifier/internal/weather"

	"github.com/spf13/cobra"
)

var (
	configFile string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "weather-notifier",
		Short:         "AccuWeather desktop notifier",
		Long:          "Polls AccuWeather current conditions and raises desktop notifications for severe weather, high UV and polluted air",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !verbose {
				log.SetFlags(log.LstdFlags)
				return
			}
			log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(testCmd())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newWeatherClient(cfg *config.Config) *weather.Client {
	return weather.NewClient(cfg.Weather.APIKey, cfg.Weather.Timeout).
		WithBaseURL(cfg.Weather.BaseURL)
}

// newSink picks the desktop daemon when enabled and falls back to printing on
// out otherwise. Verbose runs print as well.
func newSink(cfg *config.Config, out io.Writer) (notify.Sink, func()) {
	console := consoleSink{out: out}
	if !cfg.Notifier.Desktop {
		return console, func() {}
	}

	desktop := notify.NewDesktop(cfg.Notifier.AppName, cfg.Notifier.Icon)
	closeFn := func() {
		if err := desktop.Close(); err != nil {
			log.Printf("Error closing session bus: %v", err)
		}
	}
	if verbose {
		return notify.Multi{desktop, console}, closeFn
	}
	return desktop, closeFn
}

type consoleSink struct {
	out io.Writer
}

func (c consoleSink) Notify(_ context.Context, summary, body string) error {
	_, err := fmt.Fprintf(c.out, "[%s]\n%s\n", summary, body)
	return err
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the notifier loop",
		Long:  "Check the weather every interval and notify, optionally with the MQTT publisher, state database and status API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, cmd.OutOrStdout())
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, out io.Writer) error {
	sink, closeSink := newSink(cfg, out)
	defer closeSink()

	loopCfg := notifier.Config{
		Provider:    newWeatherClient(cfg),
		Sink:        sink,
		LocationKey: cfg.Weather.LocationKey,
		Interval:    cfg.Notifier.Interval,
	}

	var db *storage.Database
	if cfg.Database.Enabled {
		var err error
		db, err = storage.NewDatabase(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		log.Printf("Database opened at %s", cfg.Database.Path)
		loopCfg.Store = db
	}

	if cfg.MQTT.Enabled {
		publisher, err := mqtt.NewPublisher(mqtt.PublisherConfig{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
			Location:    cfg.Weather.LocationKey,
			Enabled:     true,
		})
		if err != nil {
			log.Printf("Warning: MQTT connection failed: %v", err)
		} else {
			defer publisher.Close()
			log.Printf("MQTT connected to %s", cfg.MQTT.Broker)
			if err := publisher.PublishHomeAssistantDiscovery(); err != nil {
				log.Printf("Error publishing Home Assistant discovery: %v", err)
			}
			loopCfg.Publisher = publisher
		}
	}

	loop, err := notifier.NewLoop(loopCfg)
	if err != nil {
		return err
	}

	if cfg.API.Enabled {
		srvCfg := api.ServerConfig{Address: cfg.API.Address, Loop: loop}
		if db != nil {
			srvCfg.Store = db
		}
		server := api.NewServer(srvCfg)

		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("API server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				log.Printf("API server shutdown error: %v", err)
			}
		}()
	}

	log.Println("Weather notifier started. Press Ctrl+C to stop.")
	return loop.Run(ctx)
}

func fetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch current conditions once",
		Long:  "Fetch the current conditions once and print them with the conditions they trigger, without notifying",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			report, err := newWeatherClient(cfg).Fetch(cmd.Context(), cfg.Weather.LocationKey)
			if err != nil {
				return fmt.Errorf("failed to fetch weather data: %w", err)
			}

			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func printReport(out io.Writer, report *weather.Report) error {
	conditions := make([]string, 0, 3)
	for _, c := range weather.Evaluate(report) {
		conditions = append(conditions, string(c))
	}

	output, err := json.MarshalIndent(struct {
		Report     *weather.Report `json:"report"`
		Conditions []string        `json:"conditions"`
	}{report, conditions}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(output))
	return err
}

func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Run a single check",
		Long:  "Run one fetch-evaluate-notify cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Testing location %s...\n", cfg.Weather.LocationKey)
			return runOnce(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func runOnce(ctx context.Context, cfg *config.Config, out io.Writer) error {
	sink, closeSink := newSink(cfg, out)
	defer closeSink()

	loop, err := notifier.NewLoop(notifier.Config{
		Provider:    newWeatherClient(cfg),
		Sink:        sink,
		LocationKey: cfg.Weather.LocationKey,
		Interval:    cfg.Notifier.Interval,
	})
	if err != nil {
		return err
	}

	result := loop.RunCycle(ctx)
	if result.Err != nil {
		fmt.Fprintf(out, "Check FAILED: %v\n", result.Err)
		return result.Err
	}

	fmt.Fprintf(out, "Check SUCCESS! %d notification(s) sent, %d failed\n", result.Delivered, result.Failed)
	return nil
}
