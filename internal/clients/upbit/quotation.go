package upbit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/aristath/aitrader/internal/domain"
)

// Markets lists every tradable market
func (c *Client) Markets(ctx context.Context) ([]domain.Market, error) {
	var markets []domain.Market
	query := url.Values{"isDetails": {"false"}}
	if err := c.request(ctx, "GET", "/market/all", query, nil, "", &markets); err != nil {
		return nil, fmt.Errorf("failed to list markets: %w", err)
	}
	return markets, nil
}

// Tickers returns the latest trade of each market
func (c *Client) Tickers(ctx context.Context, markets []string) ([]domain.Ticker, error) {
	if len(markets) == 0 {
		return nil, nil
	}
	var tickers []domain.Ticker
	query := url.Values{"markets": {strings.Join(markets, ",")}}
	if err := c.request(ctx, "GET", "/ticker", query, nil, "", &tickers); err != nil {
		return nil, fmt.Errorf("failed to get tickers: %w", err)
	}
	return tickers, nil
}

// TickersByQuote returns tickers of every market quoted in the given currencies
func (c *Client) TickersByQuote(ctx context.Context, quoteCurrencies []string) ([]domain.Ticker, error) {
	var tickers []domain.Ticker
	query := url.Values{"quoteCurrencies": {strings.Join(quoteCurrencies, ",")}}
	if err := c.request(ctx, "GET", "/ticker/all", query, nil, "", &tickers); err != nil {
		return nil, fmt.Errorf("failed to get tickers: %w", err)
	}
	return tickers, nil
}

// MinuteCandles returns the most recent count candles of unit minutes, newest first
func (c *Client) MinuteCandles(ctx context.Context, unit int, market string, count int) ([]domain.Candle, error) {
	var candles []domain.Candle
	query := url.Values{
		"market": {market},
		"count":  {strconv.Itoa(count)},
	}
	path := "/candles/minutes/" + strconv.Itoa(unit)
	if err := c.request(ctx, "GET", path, query, nil, "", &candles); err != nil {
		return nil, fmt.Errorf("failed to get candles for %s: %w", market, err)
	}
	return candles, nil
}
