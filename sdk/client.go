// Package sdk provides a Go client for the MiTanda API gateway.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	apitypes "github.com/0xnevsweb/mitanda-chain/api/types"
)

// Client provides programmatic access to the pool registry over the
// REST gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Stats
	totalRequests  int64
	failedRequests int64
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultOptions returns default client options
func DefaultOptions() *Options {
	return &Options{
		BaseURL: "http://localhost:8080",
		Timeout: 10 * time.Second,
	}
}

// NewClient creates a new gateway client
func NewClient(opts *Options) *Client {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Client{
		baseURL:    opts.BaseURL,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

// ============ Reads ============

// ListPools lists pools, optionally filtered by status
func (c *Client) ListPools(ctx context.Context, status string, offset, limit uint64) (*apitypes.PoolListResponse, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("offset", fmt.Sprintf("%d", offset))
	q.Set("limit", fmt.Sprintf("%d", limit))

	var out apitypes.PoolListResponse
	if err := c.get(ctx, "/v1/pools?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPool fetches a single pool
func (c *Client) GetPool(ctx context.Context, poolID string) (*apitypes.PoolDetail, error) {
	var out apitypes.PoolDetail
	if err := c.get(ctx, "/v1/pools/"+poolID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetParticipants fetches the participant roster of a pool
func (c *Client) GetParticipants(ctx context.Context, poolID string) ([]apitypes.ParticipantInfo, error) {
	var out struct {
		Participants []apitypes.ParticipantInfo `json:"participants"`
	}
	if err := c.get(ctx, "/v1/pools/"+poolID+"/participants", &out); err != nil {
		return nil, err
	}
	return out.Participants, nil
}

// GetEvictions fetches the eviction records of a pool
func (c *Client) GetEvictions(ctx context.Context, poolID string) ([]apitypes.EvictionInfo, error) {
	var out struct {
		Evictions []apitypes.EvictionInfo `json:"evictions"`
	}
	if err := c.get(ctx, "/v1/pools/"+poolID+"/evictions", &out); err != nil {
		return nil, err
	}
	return out.Evictions, nil
}

// GetNextPayout fetches the upcoming payout of an active pool
func (c *Client) GetNextPayout(ctx context.Context, poolID string) (*apitypes.NextPayoutInfo, error) {
	var out apitypes.NextPayoutInfo
	if err := c.get(ctx, "/v1/pools/"+poolID+"/next-payout", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMemberPools lists the pools a member participates in
func (c *Client) GetMemberPools(ctx context.Context, address string) ([]*apitypes.PoolSummary, error) {
	var out struct {
		Pools []*apitypes.PoolSummary `json:"pools"`
	}
	if err := c.get(ctx, "/v1/members/"+address+"/pools", &out); err != nil {
		return nil, err
	}
	return out.Pools, nil
}

// GetParams fetches registry parameters
func (c *Client) GetParams(ctx context.Context) (*apitypes.ParamsInfo, error) {
	var out apitypes.ParamsInfo
	if err := c.get(ctx, "/v1/params", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============ Writes ============

// CreatePool creates a new pool
func (c *Client) CreatePool(ctx context.Context, req *apitypes.CreatePoolRequest) (*apitypes.PoolDetail, error) {
	var out apitypes.PoolDetail
	if err := c.post(ctx, "/v1/pools", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// JoinPool enrolls an address into a pool
func (c *Client) JoinPool(ctx context.Context, poolID, address string) (*apitypes.JoinPoolResponse, error) {
	var out apitypes.JoinPoolResponse
	req := &apitypes.JoinPoolRequest{Address: address}
	if err := c.post(ctx, "/v1/pools/"+poolID+"/join", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Contribute pays contributions for one or more cycles
func (c *Client) Contribute(ctx context.Context, poolID, address string, cycles uint32) (*apitypes.PoolDetail, error) {
	var out apitypes.PoolDetail
	req := &apitypes.ContributeRequest{Address: address, Cycles: cycles}
	if err := c.post(ctx, "/v1/pools/"+poolID+"/contribute", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TriggerPayout cranks a due payout. Permissionless.
func (c *Client) TriggerPayout(ctx context.Context, poolID string) (*apitypes.PayoutResponse, error) {
	var out apitypes.PayoutResponse
	if err := c.post(ctx, "/v1/pools/"+poolID+"/payout", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveParticipant evicts a delinquent participant. Creator only.
func (c *Client) RemoveParticipant(ctx context.Context, poolID, creator, address string) (*apitypes.EvictionInfo, error) {
	var out apitypes.EvictionInfo
	req := &apitypes.RemoveParticipantRequest{Creator: creator, Address: address}
	if err := c.post(ctx, "/v1/pools/"+poolID+"/remove", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ============ HTTP plumbing ============

// APIError is a non-2xx gateway response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	atomic.AddInt64(&c.totalRequests, 1)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		atomic.AddInt64(&c.failedRequests, 1)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		atomic.AddInt64(&c.failedRequests, 1)
		var apiErr apitypes.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       apiErr.Error,
			Message:    apiErr.Message,
		}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Stats returns client request statistics
type Stats struct {
	TotalRequests  int64
	FailedRequests int64
}

// GetStats returns current client statistics
func (c *Client) GetStats() Stats {
	return Stats{
		TotalRequests:  atomic.LoadInt64(&c.totalRequests),
		FailedRequests: atomic.LoadInt64(&c.failedRequests),
	}
}

// ============ Event stream ============

// PoolEvent is a lifecycle event received over the WebSocket feed
type PoolEvent struct {
	Seq       uint64 `json:"seq"`
	Type      string `json:"type"`
	PoolID    string `json:"pool_id"`
	Address   string `json:"address,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Cycle     uint32 `json:"cycle,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// EventStream is a live subscription to pool lifecycle events
type EventStream struct {
	conn   *websocket.Conn
	events chan *PoolEvent
	errs   chan error

	closeOnce sync.Once
	done      chan struct{}
}

// SubscribeEvents opens a WebSocket subscription to the given channels
// (e.g. "pools", "pool:tanda-1"). The returned stream delivers events
// until Close is called or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, channels ...string) (*EventStream, error) {
	wsURL, err := toWebSocketURL(c.baseURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL+"/ws", nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	for _, ch := range channels {
		msg := map[string]string{"action": "subscribe", "channel": ch}
		if err := conn.WriteJSON(msg); err != nil {
			conn.Close()
			return nil, fmt.Errorf("subscribe failed: %w", err)
		}
	}

	s := &EventStream{
		conn:   conn,
		events: make(chan *PoolEvent, 256),
		errs:   make(chan error, 1),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Events returns the event channel
func (s *EventStream) Events() <-chan *PoolEvent {
	return s.events
}

// Errors returns the error channel; a received error means the stream
// is dead.
func (s *EventStream) Errors() <-chan error {
	return s.errs
}

// Close terminates the subscription
func (s *EventStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *EventStream) readLoop() {
	defer close(s.events)

	for {
		var msg struct {
			Type    string          `json:"type"`
			Channel string          `json:"channel"`
			Data    json.RawMessage `json:"data"`
		}
		if err := s.conn.ReadJSON(&msg); err != nil {
			select {
			case <-s.done:
			default:
				s.errs <- err
			}
			return
		}

		if msg.Type != "pool_event" {
			continue
		}

		var event PoolEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			continue
		}

		select {
		case s.events <- &event:
		case <-s.done:
			return
		}
	}
}

func toWebSocketURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	return u.String(), nil
}
