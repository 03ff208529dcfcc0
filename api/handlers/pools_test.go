package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0xnevsweb/mitanda-chain/api/types"
	tandatypes "github.com/0xnevsweb/mitanda-chain/x/tanda/types"
)

// stubService returns canned values so the handler layer can be tested
// without a keeper.
type stubService struct {
	pool *types.PoolDetail
	err  error
}

func (s *stubService) ListPools(ctx context.Context, status string, offset, limit uint64) (*types.PoolListResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.PoolListResponse{Pools: []*types.PoolSummary{&s.pool.PoolSummary}, Total: 1, Offset: offset, Limit: limit}, nil
}

func (s *stubService) GetPool(ctx context.Context, poolID string) (*types.PoolDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pool, nil
}

func (s *stubService) GetParticipants(ctx context.Context, poolID string) ([]types.ParticipantInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pool.Participants, nil
}

func (s *stubService) GetEvictions(ctx context.Context, poolID string) ([]types.EvictionInfo, error) {
	return nil, s.err
}

func (s *stubService) GetNextPayout(ctx context.Context, poolID string) (*types.NextPayoutInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.NextPayoutInfo{PoolID: poolID, Cycle: 1}, nil
}

func (s *stubService) GetPendingRandomness(ctx context.Context, poolID string) (*types.RandomnessInfo, error) {
	return nil, s.err
}

func (s *stubService) GetMemberPools(ctx context.Context, address string) ([]*types.PoolSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*types.PoolSummary{&s.pool.PoolSummary}, nil
}

func (s *stubService) GetParams(ctx context.Context) (*types.ParamsInfo, error) {
	return &types.ParamsInfo{CreatorFeeBps: 100, MaxParticipants: 100}, s.err
}

func (s *stubService) CreatePool(ctx context.Context, req *types.CreatePoolRequest) (*types.PoolDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pool, nil
}

func (s *stubService) JoinPool(ctx context.Context, poolID, address string) (*types.JoinPoolResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.JoinPoolResponse{Pool: s.pool, Slot: 0}, nil
}

func (s *stubService) Contribute(ctx context.Context, poolID, address string, cycles uint32) (*types.PoolDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pool, nil
}

func (s *stubService) TriggerPayout(ctx context.Context, poolID string) (*types.PayoutResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.PayoutResponse{PoolID: poolID, Cycle: 1}, nil
}

func (s *stubService) RemoveParticipant(ctx context.Context, poolID, creator, address string) (*types.EvictionInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.EvictionInfo{PoolID: poolID, Address: address}, nil
}

func testPool() *types.PoolDetail {
	return &types.PoolDetail{
		PoolSummary: types.PoolSummary{
			PoolID:             "tanda-1",
			Creator:            "cosmos1creator",
			Denom:              "uusdc",
			ContributionAmount: "100",
			PayoutInterval:     3600,
			ParticipantCount:   3,
			Status:             "open",
		},
	}
}

func poolRequest(method, target, pool string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	r := httptest.NewRequest(method, target, &buf)
	if pool != "" {
		r.Header.Set("X-Pool-ID", pool)
	}
	return r
}

func TestHandlePools(t *testing.T) {
	h := NewPoolHandler(&stubService{pool: testPool()})

	tests := []struct {
		name       string
		method     string
		body       interface{}
		wantStatus int
	}{
		{"list", http.MethodGet, nil, http.StatusOK},
		{"create", http.MethodPost, &types.CreatePoolRequest{Creator: "cosmos1creator"}, http.StatusCreated},
		{"delete rejected", http.MethodDelete, nil, http.StatusMethodNotAllowed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandlePools(w, poolRequest(tc.method, "/v1/pools", "", tc.body))
			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, w.Code)
			}
		})
	}
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"pool not found", tandatypes.ErrPoolNotFound, http.StatusNotFound},
		{"not participant", tandatypes.ErrNotParticipant, http.StatusNotFound},
		{"not creator", tandatypes.ErrNotCreator, http.StatusForbidden},
		{"unauthorized", tandatypes.ErrUnauthorized, http.StatusForbidden},
		{"payout in flight", tandatypes.ErrPayoutInProgress, http.StatusConflict},
		{"domain rule", tandatypes.ErrPayoutNotDue, http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewPoolHandler(&stubService{pool: testPool(), err: tc.err})
			w := httptest.NewRecorder()
			h.GetPool(w, poolRequest(http.MethodGet, "/v1/pools/tanda-1", "tanda-1", nil))
			if w.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, w.Code)
			}

			var resp types.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("invalid error body: %v", err)
			}
			if resp.Error == "" {
				t.Error("error code missing from response")
			}
		})
	}
}

func TestJoinPoolBadBody(t *testing.T) {
	h := NewPoolHandler(&stubService{pool: testPool()})

	r := httptest.NewRequest(http.MethodPost, "/v1/pools/tanda-1/join", bytes.NewBufferString("{not json"))
	r.Header.Set("X-Pool-ID", "tanda-1")
	w := httptest.NewRecorder()
	h.JoinPool(w, r)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestTriggerPayoutNoBody(t *testing.T) {
	h := NewPoolHandler(&stubService{pool: testPool()})

	w := httptest.NewRecorder()
	h.TriggerPayout(w, poolRequest(http.MethodPost, "/v1/pools/tanda-1/payout", "tanda-1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp types.PayoutResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.PoolID != "tanda-1" {
		t.Errorf("expected pool tanda-1, got %s", resp.PoolID)
	}
}

func TestGetMemberPoolsRequiresAddress(t *testing.T) {
	h := NewPoolHandler(&stubService{pool: testPool()})

	w := httptest.NewRecorder()
	h.GetMemberPools(w, poolRequest(http.MethodGet, "/v1/members//pools", "", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r := poolRequest(http.MethodGet, "/v1/members/cosmos1member/pools", "", nil)
	r.Header.Set("X-Member-Address", "cosmos1member")
	h.GetMemberPools(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
