package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/0xnevsweb/mitanda-chain/offchain/cranker"
	"github.com/0xnevsweb/mitanda-chain/sdk"
)

// Config holds the application configuration
type Config struct {
	GatewayURL    string        `json:"gateway_url"`
	PollInterval  time.Duration `json:"poll_interval"`
	SyncInterval  time.Duration `json:"sync_interval"`
	SubmitterType string        `json:"submitter_type"` // "mock" or "gateway"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		GatewayURL:    "http://localhost:8080",
		PollInterval:  5 * time.Second,
		SyncInterval:  time.Minute,
		SubmitterType: "gateway",
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	gatewayURL := flag.String("gateway", "", "REST gateway base URL")
	pollInterval := flag.Duration("poll-interval", 0, "Due-payout sweep interval")
	submitterType := flag.String("submitter", "", "Submitter type (mock or gateway)")
	flag.Parse()

	config, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *gatewayURL != "" {
		config.GatewayURL = *gatewayURL
	}
	if *pollInterval > 0 {
		config.PollInterval = *pollInterval
	}
	if *submitterType != "" {
		config.SubmitterType = *submitterType
	}

	log.Println("=== MiTanda Payout Cranker ===")
	log.Printf("Gateway: %s", config.GatewayURL)
	log.Printf("Poll Interval: %v", config.PollInterval)
	log.Printf("Sync Interval: %v", config.SyncInterval)
	log.Printf("Submitter: %s", config.SubmitterType)
	log.Println("==============================")

	var submitter cranker.PayoutSubmitter
	switch config.SubmitterType {
	case "mock":
		submitter = cranker.NewMockSubmitter()
	default:
		submitter = cranker.NewGatewaySubmitter(&cranker.GatewaySubmitterConfig{
			GatewayURL:    config.GatewayURL,
			RetryAttempts: 3,
			RetryDelay:    time.Second,
		})
	}

	source := cranker.NewGatewaySource(config.GatewayURL)

	crankerConfig := &cranker.Config{
		GatewayURL:   config.GatewayURL,
		PollInterval: config.PollInterval,
		SyncInterval: config.SyncInterval,
		EventBuffer:  1000,
	}
	c := cranker.NewCranker(crankerConfig, source, submitter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := c.Start(ctx); err != nil {
		log.Fatalf("Failed to start cranker: %v", err)
	}

	// Subscribe to the global pool channel so due payouts are cranked
	// as soon as the chain announces them.
	go streamEvents(ctx, config.GatewayURL, c)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	log.Println("Cranker is running. Press Ctrl+C to stop.")

	for {
		select {
		case sig := <-sigCh:
			log.Printf("Received signal: %v", sig)
			cancel()
			if err := c.Stop(); err != nil {
				log.Printf("Error stopping cranker: %v", err)
			}
			log.Println("Cranker stopped")
			return
		case <-statsTicker.C:
			stats := c.GetStats()
			log.Printf("Stats: Tracked=%d, PendingEvents=%d, Submissions=%d, Failed=%d",
				stats.TrackedPools, stats.PendingEvents, stats.Submissions, stats.FailedAttempts)
		}
	}
}

// streamEvents forwards gateway WebSocket events into the cranker,
// reconnecting with backoff when the stream drops.
func streamEvents(ctx context.Context, gatewayURL string, c *cranker.Cranker) {
	client := sdk.NewClient(&sdk.Options{BaseURL: gatewayURL, Timeout: 10 * time.Second})
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stream, err := client.SubscribeEvents(ctx, "pools")
		if err != nil {
			log.Printf("Event stream connect failed: %v (retrying in %v)", err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		log.Println("Subscribed to pool event stream")

		readStream(ctx, stream, c)
		stream.Close()
	}
}

func readStream(ctx context.Context, stream *sdk.EventStream, c *cranker.Cranker) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-stream.Errors():
			log.Printf("Event stream error: %v", err)
			return
		case event, ok := <-stream.Events():
			if !ok {
				return
			}
			c.HandleEvent(cranker.Event{
				Type:      event.Type,
				PoolID:    event.PoolID,
				Timestamp: time.Unix(event.Timestamp, 0),
			})
		}
	}
}
