package creatorgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultPriceEndpoint = "https://api.coingecko.com/api/v3/simple/price"

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// PriceClient quotes the native asset in USD from a CoinGecko-style
// simple/price endpoint.
type PriceClient struct {
	client   HTTPDoer
	endpoint string
	assetID  string
	logger   *slog.Logger
}

func NewPriceClient(client HTTPDoer, cfg PriceConfig, logger *slog.Logger) *PriceClient {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultPriceEndpoint
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceClient{client: client, endpoint: endpoint, assetID: strings.TrimSpace(cfg.AssetID), logger: logger}
}

// NativeUSD returns the USD price of the native asset. Any failure yields 0.
func (p *PriceClient) NativeUSD(ctx context.Context) float64 {
	price, err := p.fetch(ctx)
	if err != nil {
		p.logger.Warn("price quote unavailable", slog.String("asset", p.assetID), slog.Any("error", err))
		return 0
	}
	return price
}

func (p *PriceClient) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return 0, err
	}
	values := url.Values{}
	values.Set("ids", p.assetID)
	values.Set("vs_currencies", "usd")
	req.URL.RawQuery = values.Encode()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("coingecko: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("coingecko: decode: %w", err)
	}
	price, ok := payload[p.assetID]["usd"]
	if !ok {
		return 0, fmt.Errorf("coingecko: quote missing for %s", p.assetID)
	}
	return price, nil
}
