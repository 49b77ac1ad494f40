// Package backend talks to the catalog service over HTTP. It serves
// tokens, pools, positions and trade history. Amounts coming back are
// display-scale floats; conversion to core types happens at this
// boundary and execution never trusts a backend-derived rate.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"piodex/internal/model"
)

const (
	defaultTimeout    = 10 * time.Second
	defaultMaxElapsed = 30 * time.Second
)

// Client fetches catalog data from the backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxElapsed time.Duration
	logger     *zap.Logger
}

// NewClient builds a client for the given base URL, e.g.
// "https://api.example.com". The "/api" prefix is appended per route.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxElapsed: defaultMaxElapsed,
		logger:     logger,
	}
}

// Tokens returns the full token list. Tokens failing validation are
// dropped with a warning rather than poisoning the whole list.
func (c *Client) Tokens(ctx context.Context) ([]model.Token, error) {
	var dtos []tokenDTO
	if err := c.getJSON(ctx, "/api/tokens", &dtos); err != nil {
		return nil, err
	}

	tokens := make([]model.Token, 0, len(dtos))
	for _, dto := range dtos {
		token, err := dto.toModel()
		if err != nil {
			c.logger.Warn("skipping invalid token", zap.String("address", dto.Address), zap.Error(err))
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

// Token returns a single token by address.
func (c *Client) Token(ctx context.Context, address string) (model.Token, error) {
	var dto tokenDTO
	if err := c.getJSON(ctx, "/api/tokens/"+url.PathEscape(address), &dto); err != nil {
		return model.Token{}, err
	}
	return dto.toModel()
}

// Pools returns all pools, invalid entries dropped.
func (c *Client) Pools(ctx context.Context) ([]model.Pool, error) {
	var dtos []poolDTO
	if err := c.getJSON(ctx, "/api/pools", &dtos); err != nil {
		return nil, err
	}

	pools := make([]model.Pool, 0, len(dtos))
	for _, dto := range dtos {
		pool, err := dto.toModel()
		if err != nil {
			c.logger.Warn("skipping invalid pool", zap.String("id", dto.ID), zap.Error(err))
			continue
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// Pool returns a single pool by ID.
func (c *Client) Pool(ctx context.Context, id string) (model.Pool, error) {
	var dto poolDTO
	if err := c.getJSON(ctx, "/api/pools/"+url.PathEscape(id), &dto); err != nil {
		return model.Pool{}, err
	}
	return dto.toModel()
}

// Positions returns the wallet's liquidity positions.
func (c *Client) Positions(ctx context.Context, wallet string) ([]model.Position, error) {
	var positions []model.Position
	if err := c.getJSON(ctx, "/api/positions/"+url.PathEscape(strings.ToLower(wallet)), &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// Transactions returns the wallet's trade history, newest first.
func (c *Client) Transactions(ctx context.Context, wallet string) ([]model.TransactionRecord, error) {
	var dtos []transactionDTO
	if err := c.getJSON(ctx, "/api/transactions/"+url.PathEscape(strings.ToLower(wallet)), &dtos); err != nil {
		return nil, err
	}

	records := make([]model.TransactionRecord, 0, len(dtos))
	for _, dto := range dtos {
		records = append(records, dto.toModel())
	}
	return records, nil
}

// Stats returns protocol-wide aggregates.
func (c *Client) Stats(ctx context.Context) (ProtocolStats, error) {
	var dto statsDTO
	if err := c.getJSON(ctx, "/api/stats", &dto); err != nil {
		return ProtocolStats{}, err
	}
	return ProtocolStats{
		TotalVolume:    dto.TotalVolume,
		TVL:            dto.TVL,
		TotalSwappers:  dto.TotalSwappers,
		Volume24h:      dto.Volume24h,
		Transactions24: dto.Transactions24,
		ActivePools:    dto.ActivePools,
		UpdatedAt:      dto.UpdatedAt,
	}, nil
}

// Catalog fetches tokens and pools concurrently.
func (c *Client) Catalog(ctx context.Context) ([]model.Token, []model.Pool, error) {
	var (
		tokens []model.Token
		pools  []model.Pool
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		tokens, err = c.Tokens(groupCtx)
		return err
	})
	group.Go(func() error {
		var err error
		pools, err = c.Pools(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, nil, err
	}
	return tokens, pools, nil
}

// getJSON fetches path and decodes the response, retrying transient
// failures with exponential backoff.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return struct{}{}, fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return struct{}{}, backoff.Permanent(fmt.Errorf("GET %s: status %d", path, resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("GET %s: decode: %w", path, err))
		}
		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.maxElapsed),
	)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	return nil
}
