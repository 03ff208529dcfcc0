package cranker

import (
	"context"
	"time"

	"github.com/0xnevsweb/mitanda-chain/sdk"
)

// GatewaySource lists active pools from the REST gateway
type GatewaySource struct {
	client *sdk.Client
}

// NewGatewaySource creates a pool source over the gateway
func NewGatewaySource(gatewayURL string) *GatewaySource {
	return &GatewaySource{
		client: sdk.NewClient(&sdk.Options{
			BaseURL: gatewayURL,
			Timeout: 10 * time.Second,
		}),
	}
}

// ListActivePools implements PoolSource
func (s *GatewaySource) ListActivePools(ctx context.Context) ([]*PoolState, error) {
	resp, err := s.client.ListPools(ctx, "active", 0, 500)
	if err != nil {
		return nil, err
	}

	states := make([]*PoolState, 0, len(resp.Pools))
	for _, summary := range resp.Pools {
		detail, err := s.client.GetPool(ctx, summary.PoolID)
		if err != nil {
			return nil, err
		}
		states = append(states, &PoolState{
			PoolID:         detail.PoolID,
			Status:         detail.Status,
			DueAt:          detail.StartTimestamp + detail.PayoutInterval,
			PayoutInterval: detail.PayoutInterval,
			OrderAssigned:  detail.PayoutOrderAssigned,
			CurrentCycle:   detail.CurrentCycle,
		})
	}
	return states, nil
}
