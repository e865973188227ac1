package upbit

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aristath/aitrader/internal/domain"
	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
)

// errOrderPending keeps order polling going
var errOrderPending = errors.New("order still pending")

// Exchange is an authenticated view of the API for one user's keys
type Exchange struct {
	client    *Client
	accessKey string
	secretKey string
}

// Exchange returns the private API bound to the given keys
func (c *Client) Exchange(accessKey, secretKey string) *Exchange {
	return &Exchange{client: c, accessKey: accessKey, secretKey: secretKey}
}

// ExchangeFactory adapts Exchange to domain.ExchangeFactory
func (c *Client) ExchangeFactory() domain.ExchangeFactory {
	return func(accessKey, secretKey string) domain.Exchange {
		return c.Exchange(accessKey, secretKey)
	}
}

// Accounts returns every balance of the account
func (e *Exchange) Accounts(ctx context.Context) ([]domain.Balance, error) {
	token, err := signToken(e.accessKey, e.secretKey, "")
	if err != nil {
		return nil, err
	}

	var accounts []accountResponse
	if err := e.client.request(ctx, "GET", "/accounts", nil, nil, token, &accounts); err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}

	balances := make([]domain.Balance, 0, len(accounts))
	for _, a := range accounts {
		balances = append(balances, a.toDomain())
	}
	return balances, nil
}

// BuyMarket spends price KRW on market and waits for the fill
func (e *Exchange) BuyMarket(ctx context.Context, market string, price decimal.Decimal) (*domain.Order, error) {
	return e.placeOrder(ctx, orderRequest{
		Market:  market,
		Side:    sideBid,
		Price:   price.String(),
		OrdType: ordTypePrice,
	})
}

// SellMarket sells volume units of market and waits for the fill
func (e *Exchange) SellMarket(ctx context.Context, market string, volume decimal.Decimal) (*domain.Order, error) {
	return e.placeOrder(ctx, orderRequest{
		Market:  market,
		Side:    sideAsk,
		Volume:  volume.String(),
		OrdType: ordTypeMarket,
	})
}

func (e *Exchange) placeOrder(ctx context.Context, req orderRequest) (*domain.Order, error) {
	token, err := signToken(e.accessKey, e.secretKey, bodyQuery(req))
	if err != nil {
		return nil, err
	}

	var placed domain.Order
	if err := e.client.request(ctx, "POST", "/orders", nil, req, token, &placed); err != nil {
		return nil, fmt.Errorf("failed to place %s order on %s: %w", req.Side, req.Market, err)
	}

	e.client.log.Info().
		Str("market", req.Market).
		Str("side", req.Side).
		Str("uuid", placed.UUID).
		Msg("Order placed")

	return e.waitOrder(ctx, placed.UUID)
}

// waitOrder polls the order until it leaves the wait state
func (e *Exchange) waitOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	operation := func() (*domain.Order, error) {
		order, err := e.getOrder(ctx, orderID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		if order.State == domain.OrderStateWait {
			return nil, errOrderPending
		}
		return order, nil
	}

	order, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(e.client.pollInterval)),
		backoff.WithMaxTries(e.client.maxPolls),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm order %s: %w", orderID, err)
	}
	return order, nil
}

func (e *Exchange) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	query := url.Values{"uuid": {orderID}}
	raw, err := rawQuery(query)
	if err != nil {
		return nil, err
	}
	token, err := signToken(e.accessKey, e.secretKey, raw)
	if err != nil {
		return nil, err
	}

	var order domain.Order
	if err := e.client.request(ctx, "GET", "/order", query, nil, token, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
