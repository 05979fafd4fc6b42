package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

// The sources share one http.Client; per-lookup deadlines come from the
// racing context, not from the client itself.

type binanceSource struct {
	baseURL string
	client  *http.Client
}

func NewBinanceSource(baseURL string, client *http.Client) Source {
	return &binanceSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *binanceSource) Name() string { return "binance" }

func (s *binanceSource) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%sUSDT", s.baseURL, strings.ToUpper(symbol))
	var body struct {
		Price string `json:"price"`
	}
	if err := getJSON(ctx, s.client, url, &body); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(body.Price)
}

type coinbaseSource struct {
	baseURL string
	client  *http.Client
}

func NewCoinbaseSource(baseURL string, client *http.Client) Source {
	return &coinbaseSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *coinbaseSource) Name() string { return "coinbase" }

func (s *coinbaseSource) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v2/prices/%s-USD/spot", s.baseURL, strings.ToUpper(symbol))
	var body struct {
		Data struct {
			Amount string `json:"amount"`
		} `json:"data"`
	}
	if err := getJSON(ctx, s.client, url, &body); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(body.Data.Amount)
}

type okxSource struct {
	baseURL string
	client  *http.Client
}

func NewOKXSource(baseURL string, client *http.Client) Source {
	return &okxSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *okxSource) Name() string { return "okx" }

func (s *okxSource) Fetch(ctx context.Context, symbol string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/api/v5/market/ticker?instId=%s-USDT", s.baseURL, strings.ToUpper(symbol))
	var body struct {
		Data []struct {
			Last string `json:"last"`
		} `json:"data"`
	}
	if err := getJSON(ctx, s.client, url, &body); err != nil {
		return decimal.Zero, err
	}
	if len(body.Data) == 0 {
		return decimal.Zero, fmt.Errorf("okx: empty ticker for %s", symbol)
	}
	return decimal.NewFromString(body.Data[0].Last)
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ticker fetch failed with status %d", resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
