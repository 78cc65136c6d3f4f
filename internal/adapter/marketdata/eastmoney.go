package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
)

const eastMoneyURL = "https://push2.eastmoney.com/api/qt/stock/get"

// EastMoney reads quotes from the East Money push2 JSON API
type EastMoney struct {
	BaseURL string
	Client  *http.Client
	Now     func() time.Time
}

// NewEastMoney creates an East Money fetcher; a nil client uses a 10s timeout client
func NewEastMoney(client *http.Client) *EastMoney {
	if client == nil {
		client = defaultClient()
	}
	return &EastMoney{BaseURL: eastMoneyURL, Client: client, Now: time.Now}
}

func (e *EastMoney) Name() string { return "eastmoney" }

// secID maps a listing to East Money's "<exchange>.<code>" identifier
func secID(symbol string, market domain.Market) (string, error) {
	switch market {
	case domain.MarketCN:
		if isShanghai(symbol) {
			return "1." + symbol, nil
		}
		return "0." + symbol, nil
	case domain.MarketHK:
		return "116." + symbol, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedMarket, market)
	}
}

// Fetch implements Fetcher. Prices come back as integers: fen for CN, thousandths for HK.
func (e *EastMoney) Fetch(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	id, err := secID(symbol, market)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("secid", id)
	params.Set("fields", "f43,f44,f45,f46,f47,f48,f57,f58,f60,f170,f171")
	params.Set("ut", "fa5fd1943c7b386f172d6893dbbd1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("eastmoney request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eastmoney GET %s: %s", req.URL.Path, resp.Status)
	}

	var body struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode eastmoney response: %w", err)
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("eastmoney %s: %w", id, ErrNoData)
	}

	divisor := decimal.NewFromInt(1000)
	if market == domain.MarketCN {
		divisor = decimal.NewFromInt(100)
	}

	closePx := scaledField(body.Data, "f43", divisor)
	if closePx == nil || !closePx.IsPositive() {
		return nil, fmt.Errorf("eastmoney %s: %w", id, ErrNoData)
	}

	q := &domain.Quote{
		Symbol:    symbol,
		Market:    market,
		TradeDate: today(e.Now()),
		Close:     closePx,
		Open:      scaledField(body.Data, "f46", divisor),
		High:      scaledField(body.Data, "f44", divisor),
		Low:       scaledField(body.Data, "f45", divisor),
	}
	if raw, ok := body.Data["f58"]; ok {
		_ = json.Unmarshal(raw, &q.Name)
	}
	if vol := numberField(body.Data, "f47"); vol != nil {
		v := vol.IntPart()
		q.Volume = &v
	}

	return q, nil
}

// numberField reads a numeric field; "-" and missing values yield nil
func numberField(data map[string]json.RawMessage, key string) *decimal.Decimal {
	raw, ok := data[key]
	if !ok {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return nil
	}
	return &d
}

func scaledField(data map[string]json.RawMessage, key string, divisor decimal.Decimal) *decimal.Decimal {
	d := numberField(data, key)
	if d == nil || d.IsZero() {
		return nil
	}
	v := d.Div(divisor)
	return &v
}
