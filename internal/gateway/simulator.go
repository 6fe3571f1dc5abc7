package gateway

import (
	"context"
	"math/rand"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Simulator approves a share of charges after a fixed delay
type Simulator struct {
	delay        time.Duration
	approvalRate float64
	logger       *zap.Logger
}

// NewSimulator creates a simulated gateway approving approvalRate (0.0 - 1.0) of charges
func NewSimulator(delay time.Duration, approvalRate float64) *Simulator {
	return &Simulator{
		delay:        delay,
		approvalRate: approvalRate,
		logger:       util.GetLogger(),
	}
}

// CreatePayment simulates a charge
func (s *Simulator) CreatePayment(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "Simulator.CreatePayment")
	defer span.End()

	if err := wait(ctx, s.delay); err != nil {
		return nil, err
	}

	resp := &models.PaymentResponse{
		TransactionID: uuid.New().String(),
		Reference:     req.Reference,
	}
	if rand.Float64() < s.approvalRate {
		resp.Status = models.GatewayStatusApproved
		resp.Message = "Payment approved"
	} else {
		resp.Status = models.GatewayStatusDeclined
		resp.Message = "Payment declined"
	}

	s.logger.Debug("Simulated payment",
		zap.String("reference", req.Reference),
		zap.String("status", string(resp.Status)))
	return resp, nil
}

// VerifyPayment simulates re-confirming a charge
func (s *Simulator) VerifyPayment(ctx context.Context, gatewayTransactionID string) (*models.PaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "Simulator.VerifyPayment")
	defer span.End()

	if err := wait(ctx, s.delay/2); err != nil {
		return nil, err
	}

	return &models.PaymentResponse{
		Status:        models.GatewayStatusApproved,
		Message:       "Transaction verified",
		TransactionID: gatewayTransactionID,
	}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
