// internal/dex/dexscreener/client.go

package dexscreener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.dexscreener.com/latest/dex"
	rateLimit      = 300 // requests per minute
	requestTimeout = 8 * time.Second
)

// pumpfunDexIDs are matched against the lower-cased dexId of each pair.
var pumpfunDexIDs = []string{"pumpfun", "pump-fun"}

var ErrPairNotFound = errors.New("pump.fun pair not found")

// Response представляет основную структуру ответа
type Response struct {
	SchemaVersion string     `json:"schemaVersion"`
	Pairs         []PairInfo `json:"pairs"`
}

// PairInfo содержит информацию о паре
type PairInfo struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   TokenInfo `json:"baseToken"`
	QuoteToken  TokenInfo `json:"quoteToken"`
	PriceNative string    `json:"priceNative"`
}

// TokenInfo содержит информацию о токене
type TokenInfo struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
}

// IsPumpfun reports whether the pair is listed on the pump.fun bonding curve.
func (p PairInfo) IsPumpfun() bool {
	dexID := strings.ToLower(p.DexID)
	for _, id := range pumpfunDexIDs {
		if strings.Contains(dexID, id) {
			return true
		}
	}
	return false
}

// Client представляет клиент DexScreener API
type Client struct {
	baseURL     string
	client      *http.Client
	logger      *zap.Logger
	rateLimiter *time.Ticker
}

// NewClient создает новый экземпляр клиента
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: requestTimeout,
		},
		logger:      logger.Named("dexscreener"),
		rateLimiter: time.NewTicker(time.Minute / rateLimit),
	}
}

// Close stops the rate limiter.
func (c *Client) Close() {
	c.rateLimiter.Stop()
}

// FindPairAddress returns the bonding curve address of the first pump.fun pair listed for the mint.
func (c *Client) FindPairAddress(ctx context.Context, mint solana.PublicKey) (solana.PublicKey, error) {
	url := fmt.Sprintf("%s/tokens/%s", c.baseURL, mint.String())

	response, err := c.doRequest(ctx, url)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to get token pairs: %w", err)
	}

	for _, pair := range response.Pairs {
		if !pair.IsPumpfun() {
			continue
		}

		addr, err := solana.PublicKeyFromBase58(pair.PairAddress)
		if err != nil {
			return solana.PublicKey{}, fmt.Errorf("invalid pair address %q: %w", pair.PairAddress, err)
		}

		c.logger.Info("found pump.fun pair",
			zap.String("mint", mint.String()),
			zap.String("pair_address", pair.PairAddress),
			zap.String("dex", pair.DexID))
		return addr, nil
	}

	return solana.PublicKey{}, fmt.Errorf("%w for token %s", ErrPairNotFound, mint.String())
}

// doRequest выполняет HTTP запрос с учетом rate limit
func (c *Client) doRequest(ctx context.Context, url string) (*Response, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.rateLimiter.C:
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var response Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &response, nil
}
