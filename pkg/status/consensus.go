package status

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/salahayoub/ethup/pkg/config"
	"github.com/salahayoub/ethup/pkg/types"
)

// Beacon REST endpoints, relative to the node's HTTP URL.
const (
	EndpointVersion = "eth/v1/node/version"
	EndpointSyncing = "eth/v1/node/syncing"
	EndpointHealth  = "eth/v1/node/health"
)

// ConsensusStatus queries version, syncing and health concurrently.
func (a *Aggregator) ConsensusStatus(ctx context.Context, cl config.ConsensusConfig) (*ConsensusStatus, error) {
	base := strings.TrimSuffix(cl.HTTPURL(), "/")

	var (
		version types.BeaconResponse[types.BeaconVersion]
		syncing types.BeaconResponse[types.BeaconSyncing]
		health  Health
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.get(gctx, base, EndpointVersion, &version) })
	g.Go(func() error { return a.get(gctx, base, EndpointSyncing, &syncing) })
	g.Go(func() error {
		var err error
		health, err = a.probeHealth(gctx, base)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	headSlot, err := ParseDecimal("head_slot", syncing.Data.HeadSlot)
	if err != nil {
		return nil, withSource(err, types.Consensus, EndpointSyncing)
	}

	st := &ConsensusStatus{
		Version:      version.Data.Version,
		HeadSlot:     headSlot,
		IsSyncing:    syncing.Data.IsSyncing,
		IsOptimistic: syncing.Data.IsOptimistic,
		ELOffline:    syncing.Data.ELOffline,
		Health:       health,
	}

	if syncing.Data.FinalizedEpoch != nil {
		epoch, err := ParseDecimal("finalized_epoch", *syncing.Data.FinalizedEpoch)
		if err != nil {
			return nil, withSource(err, types.Consensus, EndpointSyncing)
		}
		st.FinalizedEpoch = &epoch
	}
	if syncing.Data.SyncDistance != "" {
		distance, err := ParseDecimal("sync_distance", syncing.Data.SyncDistance)
		if err != nil {
			return nil, withSource(err, types.Consensus, EndpointSyncing)
		}
		st.SyncDistance = &distance
	}

	return st, nil
}

// get fetches a beacon endpoint that must answer 2xx and decodes its JSON body.
func (a *Aggregator) get(ctx context.Context, base, endpoint string, out any) error {
	url := base + "/" + endpoint
	a.log.Debug().Str("url", url).Msg("consensus query")

	resp, err := a.do(ctx, url)
	if err != nil {
		return &TransportError{Role: types.Consensus, Query: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &HTTPStatusError{Role: types.Consensus, Query: endpoint, URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Role: types.Consensus, Query: endpoint, Field: "body", Err: err}
	}
	return nil
}

// probeHealth classifies eth/v1/node/health by status code alone.
func (a *Aggregator) probeHealth(ctx context.Context, base string) (Health, error) {
	url := base + "/" + EndpointHealth

	resp, err := a.do(ctx, url)
	if err != nil {
		return Health{}, &TransportError{Role: types.Consensus, Query: EndpointHealth, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return ClassifyHealth(resp.StatusCode), nil
}

func (a *Aggregator) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return a.client.Do(req)
}
