package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPSource fetches the BTC/USD price from a JSON price API and converts it
// to sats per dollar.
type HTTPSource struct {
	url  string
	http *http.Client
}

// NewHTTPSource builds a source against a price endpoint returning
// {"price_usd": <dollars per BTC>}.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		url:  url,
		http: &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSource) SatsPerUSD(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate endpoint returned status %d", resp.StatusCode)
	}

	var body struct {
		PriceUSD float64 `json:"price_usd"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return 0, fmt.Errorf("read rate response: %w", err)
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return 0, fmt.Errorf("decode rate response: %w", err)
	}
	if body.PriceUSD <= 0 {
		return 0, fmt.Errorf("rate endpoint returned non-positive price %f", body.PriceUSD)
	}

	// price_usd is dollars per BTC; invert into sats per dollar.
	return 100_000_000 / body.PriceUSD, nil
}
