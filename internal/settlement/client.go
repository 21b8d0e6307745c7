package settlement

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"reserva/pkg/client"
	apperrors "reserva/pkg/errors"
	"reserva/pkg/logger"
)

// Client submits value transfers to the settlement service. Transient
// failures (network errors, timeouts, 5xx) are retried with capped
// exponential backoff; any 4xx is a permanent upstream rejection.
type Client interface {
	CreateOnChainBooking(ctx context.Context, req *BookingRequest) (*TransactionResult, error)
	ReleaseEscrow(ctx context.Context, req *EscrowReleaseRequest) (*TransactionResult, error)
	InitiateRefund(ctx context.Context, req *RefundRequest) (*TransactionResult, error)
}

type BookingRequest struct {
	ReservationID      int64   `json:"reservationId"`
	PayerWalletAddress string  `json:"payerWalletAddress"`
	PayeeWalletAddress string  `json:"payeeWalletAddress"`
	AmountEth          float64 `json:"amountEth"`
}

type EscrowReleaseRequest struct {
	ReservationID      int64   `json:"reservationId"`
	PayeeWalletAddress string  `json:"payeeWalletAddress"`
	AmountEth          float64 `json:"amountEth"`
}

type RefundRequest struct {
	ReservationID      int64   `json:"reservationId"`
	PayeeWalletAddress string  `json:"payeeWalletAddress"`
	AmountEth          float64 `json:"amountEth"`
}

// TransactionResult mirrors the settlement service response body.
type TransactionResult struct {
	Success         bool    `json:"success"`
	TransactionHash string  `json:"transactionHash"`
	BlockNumber     int64   `json:"blockNumber"`
	GasUsed         float64 `json:"gasUsed"`
	Error           string  `json:"error,omitempty"`
}

type Config struct {
	BaseURL        string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	BackoffCap     time.Duration
}

type httpSettlementClient struct {
	httpClient   *client.HttpClient
	maxRetries   int
	retryBackoff time.Duration
	backoffCap   time.Duration
	log          *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) Client {
	return &httpSettlementClient{
		httpClient:   client.NewHttpClientWithTimeouts(cfg.BaseURL, cfg.ConnectTimeout, cfg.RequestTimeout),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		backoffCap:   cfg.BackoffCap,
		log:          log,
	}
}

func (c *httpSettlementClient) CreateOnChainBooking(ctx context.Context, req *BookingRequest) (*TransactionResult, error) {
	return c.submit(ctx, "/api/v1/transactions/booking", req)
}

func (c *httpSettlementClient) ReleaseEscrow(ctx context.Context, req *EscrowReleaseRequest) (*TransactionResult, error) {
	return c.submit(ctx, "/api/v1/transactions/escrow-release", req)
}

func (c *httpSettlementClient) InitiateRefund(ctx context.Context, req *RefundRequest) (*TransactionResult, error) {
	return c.submit(ctx, "/api/v1/transactions/refund", req)
}

func (c *httpSettlementClient) submit(ctx context.Context, path string, body any) (*TransactionResult, error) {
	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("Retrying settlement request",
				"path", path,
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, apperrors.Upstream("settlement", ctx.Err())
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, c.backoffCap)
		}

		result, retryable, err := c.attempt(ctx, path, body)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, apperrors.Upstream("settlement",
		fmt.Errorf("exhausted %d retries: %w", c.maxRetries, lastErr))
}

// attempt performs one request. The bool reports whether the failure is
// transient and worth retrying.
func (c *httpSettlementClient) attempt(ctx context.Context, path string, body any) (*TransactionResult, bool, error) {
	resp, err := c.httpClient.POST(ctx, path, body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, true, fmt.Errorf("settlement returned status %d: %s",
			resp.StatusCode, client.GetErrorMessage(resp))
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, false, apperrors.Upstream("settlement",
			fmt.Errorf("rejected with status %d: %s", resp.StatusCode, client.GetErrorMessage(resp)))
	}

	var result TransactionResult
	if err := resp.DecodeJSON(&result); err != nil {
		return nil, false, apperrors.Upstream("settlement",
			fmt.Errorf("failed to decode response: %w", err))
	}

	if !result.Success {
		return nil, false, apperrors.Upstream("settlement",
			fmt.Errorf("transaction failed: %s", result.Error))
	}

	return &result, false, nil
}
