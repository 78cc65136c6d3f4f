package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/easyasset/eam-backend/internal/domain"
)

const (
	sinaURL     = "https://hq.sinajs.cn/list="
	sinaReferer = "https://finance.sina.com.cn"
)

// Sina reads quotes from the Sina Finance hq endpoint.
// The payload is a GBK encoded JavaScript assignment: var hq_str_sh600519="f0,f1,...";
type Sina struct {
	BaseURL string
	Client  *http.Client
}

// NewSina creates a Sina fetcher; a nil client uses a 10s timeout client
func NewSina(client *http.Client) *Sina {
	if client == nil {
		client = defaultClient()
	}
	return &Sina{BaseURL: sinaURL, Client: client}
}

func (s *Sina) Name() string { return "sina" }

func sinaCode(symbol string, market domain.Market) (string, error) {
	switch market {
	case domain.MarketCN:
		if isShanghai(symbol) {
			return "sh" + symbol, nil
		}
		return "sz" + symbol, nil
	case domain.MarketHK:
		return "hk" + symbol, nil
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedMarket, market)
	}
}

// Fetch implements Fetcher
func (s *Sina) Fetch(ctx context.Context, symbol string, market domain.Market) (*domain.Quote, error) {
	code, err := sinaCode(symbol, market)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+code, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Referer", sinaReferer)
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sina request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sina GET %s: %s", code, resp.Status)
	}

	body, err := io.ReadAll(simplifiedchinese.GBK.NewDecoder().Reader(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to read sina response: %w", err)
	}

	fields, err := sinaFields(string(body))
	if err != nil {
		return nil, fmt.Errorf("sina %s: %w", code, err)
	}

	if market == domain.MarketCN {
		return parseSinaCN(symbol, fields)
	}
	return parseSinaHK(symbol, fields)
}

func sinaFields(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	parts := strings.Split(text, `"`)
	if len(parts) < 2 || parts[1] == "" {
		return nil, ErrNoData
	}
	return strings.Split(parts[1], ","), nil
}

// CN layout: 0 name, 1 open, 3 current, 4 high, 5 low, 8 volume, 30 date
func parseSinaCN(symbol string, f []string) (*domain.Quote, error) {
	if len(f) < 31 {
		return nil, fmt.Errorf("sina CN payload has %d fields: %w", len(f), ErrNoData)
	}

	closePx, err := decimal.NewFromString(f[3])
	if err != nil || !closePx.IsPositive() {
		return nil, ErrNoData
	}
	date, err := time.Parse("2006-01-02", strings.TrimSpace(f[30]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sina date %q: %w", f[30], err)
	}

	return &domain.Quote{
		Symbol:    symbol,
		Market:    domain.MarketCN,
		Name:      f[0],
		TradeDate: date,
		Close:     &closePx,
		Open:      optionalPrice(f[1]),
		High:      optionalPrice(f[4]),
		Low:       optionalPrice(f[5]),
		Volume:    optionalVolume(f[8]),
	}, nil
}

// HK layout: 1 name, 2 open, 4 high, 5 low, 6 current, 11 volume, 17 date (yyyy/mm/dd)
func parseSinaHK(symbol string, f []string) (*domain.Quote, error) {
	if len(f) < 18 {
		return nil, fmt.Errorf("sina HK payload has %d fields: %w", len(f), ErrNoData)
	}

	closePx, err := decimal.NewFromString(f[6])
	if err != nil || !closePx.IsPositive() {
		return nil, ErrNoData
	}
	date, err := time.Parse("2006-01-02", strings.ReplaceAll(strings.TrimSpace(f[17]), "/", "-"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sina date %q: %w", f[17], err)
	}

	return &domain.Quote{
		Symbol:    symbol,
		Market:    domain.MarketHK,
		Name:      f[1],
		TradeDate: date,
		Close:     &closePx,
		Open:      optionalPrice(f[2]),
		High:      optionalPrice(f[4]),
		Low:       optionalPrice(f[5]),
		Volume:    optionalVolume(f[11]),
	}, nil
}

// optionalPrice parses a price field; empty, invalid and non-positive values yield nil
func optionalPrice(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return nil
	}
	return &d
}

func optionalVolume(s string) *int64 {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	v := d.IntPart()
	return &v
}
