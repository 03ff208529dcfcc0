package cranker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/0xnevsweb/mitanda-chain/sdk"
)

// PayoutSubmitter defines the interface for submitting payout cranks
type PayoutSubmitter interface {
	// SubmitPayout cranks one due payout for the given pool
	SubmitPayout(ctx context.Context, poolID string) error

	// GetStatus returns the submitter status
	GetStatus() SubmitterStatus
}

// SubmitterStatus represents the status of a submitter
type SubmitterStatus struct {
	Connected         bool
	LastSubmitTime    time.Time
	LastError         string
	TotalSubmissions  int64
	FailedSubmissions int64
}

// MockSubmitter is a mock implementation for testing
type MockSubmitter struct {
	mu              sync.Mutex
	cranked         []string
	status          SubmitterStatus
	simulateFailure bool
}

// NewMockSubmitter creates a new mock submitter
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{
		cranked: make([]string, 0),
		status: SubmitterStatus{
			Connected: true,
		},
	}
}

// SubmitPayout records the crank (mock implementation)
func (s *MockSubmitter) SubmitPayout(ctx context.Context, poolID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.simulateFailure {
		s.status.FailedSubmissions++
		s.status.LastError = "simulated failure"
		return fmt.Errorf("simulated failure")
	}

	s.cranked = append(s.cranked, poolID)
	s.status.TotalSubmissions++
	s.status.LastSubmitTime = time.Now()
	return nil
}

// GetStatus returns the mock submitter status
func (s *MockSubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// GetCranked returns all cranked pool IDs (for testing)
func (s *MockSubmitter) GetCranked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, len(s.cranked))
	copy(result, s.cranked)
	return result
}

// SetSimulateFailure enables or disables failure simulation
func (s *MockSubmitter) SetSimulateFailure(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.simulateFailure = fail
}

// Clear clears all recorded cranks (for testing)
func (s *MockSubmitter) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cranked = make([]string, 0)
}

// GatewaySubmitter cranks payouts through the REST gateway
type GatewaySubmitter struct {
	client        *sdk.Client
	retryAttempts int
	retryDelay    time.Duration

	mu     sync.Mutex
	status SubmitterStatus
}

// GatewaySubmitterConfig holds configuration for GatewaySubmitter
type GatewaySubmitterConfig struct {
	GatewayURL    string
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultGatewaySubmitterConfig returns default configuration
func DefaultGatewaySubmitterConfig() *GatewaySubmitterConfig {
	return &GatewaySubmitterConfig{
		GatewayURL:    "http://localhost:8080",
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// NewGatewaySubmitter creates a new gateway submitter
func NewGatewaySubmitter(config *GatewaySubmitterConfig) *GatewaySubmitter {
	if config == nil {
		config = DefaultGatewaySubmitterConfig()
	}

	return &GatewaySubmitter{
		client: sdk.NewClient(&sdk.Options{
			BaseURL: config.GatewayURL,
			Timeout: 10 * time.Second,
		}),
		retryAttempts: config.RetryAttempts,
		retryDelay:    config.RetryDelay,
		status: SubmitterStatus{
			Connected: true,
		},
	}
}

// SubmitPayout cranks a payout with retry logic. A 4xx rejection
// (payout not due, participants unpaid) is not retried; the poll loop
// will try again next tick.
func (s *GatewaySubmitter) SubmitPayout(ctx context.Context, poolID string) error {
	var lastErr error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		resp, err := s.client.TriggerPayout(ctx, poolID)
		if err == nil {
			s.mu.Lock()
			s.status.TotalSubmissions++
			s.status.LastSubmitTime = time.Now()
			s.mu.Unlock()
			log.Printf("[GatewaySubmitter] Cranked %s cycle %d: %s to %s",
				poolID, resp.Cycle, resp.RecipientAmount, resp.Recipient)
			return nil
		}

		if apiErr, ok := err.(*sdk.APIError); ok && apiErr.StatusCode < 500 {
			s.recordFailure(err)
			return err
		}

		lastErr = err
		log.Printf("Crank attempt %d for %s failed: %v", attempt+1, poolID, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retryDelay):
		}
	}

	s.recordFailure(lastErr)
	return fmt.Errorf("all retry attempts failed: %w", lastErr)
}

func (s *GatewaySubmitter) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.FailedSubmissions++
	if err != nil {
		s.status.LastError = err.Error()
	}
}

// GetStatus returns the submitter status
func (s *GatewaySubmitter) GetStatus() SubmitterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}
