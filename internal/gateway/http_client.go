package gateway

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPClient talks to a remote payment gateway over JSON/HTTP
type HTTPClient struct {
	client *resty.Client
	logger *zap.Logger
}

// NewHTTPClient creates a gateway client for baseURL
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &HTTPClient{
		client: client,
		logger: util.GetLogger(),
	}
}

// CreatePayment posts a charge request
func (c *HTTPClient) CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "HTTPClient.CreatePayment")
	defer span.End()

	var result models.PaymentResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/payments")
	if err != nil {
		return nil, fmt.Errorf("payment request failed: %w", err)
	}
	if resp.IsError() {
		c.logger.Warn("Gateway rejected payment request",
			zap.String("reference", req.Reference),
			zap.Int("status_code", resp.StatusCode()))
		return nil, fmt.Errorf("payment request failed: gateway returned %d: %s", resp.StatusCode(), resp.String())
	}

	return &result, nil
}

// VerifyPayment fetches the current state of a prior charge
func (c *HTTPClient) VerifyPayment(ctx context.Context, gatewayTransactionID string) (*models.PaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "HTTPClient.VerifyPayment")
	defer span.End()

	var result models.PaymentResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", gatewayTransactionID).
		SetResult(&result).
		Get("/v1/payments/{id}")
	if err != nil {
		return nil, fmt.Errorf("verify request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("verify request failed: gateway returned %d: %s", resp.StatusCode(), resp.String())
	}

	return &result, nil
}
