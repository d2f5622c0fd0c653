package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
	"github.com/sampleforge/sampleforge-backend/pkg/metrics"

	"github.com/sampleforge/sampleforge-backend/internal/checkout"
	"github.com/sampleforge/sampleforge-backend/internal/fulfillment"
)

type fulfillmentService interface {
	FulfillOrder(ctx context.Context, payment fulfillment.CompletedPayment) error
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
}

// ServiceParams collects the webhook service dependencies.
type ServiceParams struct {
	Fulfillment fulfillmentService
	Metrics     *metrics.PipelineMetrics
	Logger      *logger.Logger
}

// Service routes verified payment events to fulfillment. Callers must have
// checked the event signature already; nothing here trusts the payload
// beyond that.
type Service struct {
	fulfillment fulfillmentService
	metrics     *metrics.PipelineMetrics
	logg        *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Fulfillment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service required")
	}
	return &Service{
		fulfillment: params.Fulfillment,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// HandleEvent processes one verified event. Session completion and expiry
// are the only event types acted on; everything else is acknowledged and
// dropped. Fulfillment failures are logged but not returned: the provider
// already delivered the event successfully, and redelivering it would not
// fix a fulfillment bug.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleSessionCompleted(ctx, event)
	case stripe.EventTypeCheckoutSessionExpired:
		return s.handleSessionExpired(ctx, event)
	default:
		s.metrics.IncWebhookEvent(string(event.Type), "ignored")
		return nil
	}
}

func (s *Service) handleSessionCompleted(ctx context.Context, event *stripe.Event) error {
	sess, orderID, err := s.decodeSession(event)
	if err != nil {
		s.metrics.IncWebhookEvent(string(event.Type), "malformed")
		return err
	}

	var owner *uuid.UUID
	if raw := sess.Metadata[checkout.MetadataOwnerAccountID]; raw != "" {
		if parsed, err := uuid.Parse(raw); err == nil {
			owner = &parsed
		} else if s.logg != nil {
			s.logg.Warn(s.logg.WithSessionRef(ctx, sess.ID), "session carries an unparseable owner reference")
		}
	}

	err = s.fulfillment.FulfillOrder(ctx, fulfillment.CompletedPayment{
		SessionID:      sess.ID,
		OrderID:        orderID,
		OwnerAccountID: owner,
	})
	if err != nil {
		s.metrics.IncWebhookEvent(string(event.Type), "fulfillment_error")
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "fulfillment failed for completed session", err)
		}
		return nil
	}
	s.metrics.IncWebhookEvent(string(event.Type), "processed")
	return nil
}

func (s *Service) handleSessionExpired(ctx context.Context, event *stripe.Event) error {
	_, orderID, err := s.decodeSession(event)
	if err != nil {
		s.metrics.IncWebhookEvent(string(event.Type), "malformed")
		return err
	}

	if err := s.fulfillment.CancelOrder(ctx, orderID); err != nil {
		s.metrics.IncWebhookEvent(string(event.Type), "error")
		if s.logg != nil {
			s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "cancelling order for expired session", err)
		}
		return nil
	}
	s.metrics.IncWebhookEvent(string(event.Type), "processed")
	return nil
}

func (s *Service) decodeSession(event *stripe.Event) (*stripe.CheckoutSession, uuid.UUID, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session event")
	}
	raw := sess.Metadata[checkout.MetadataOrderID]
	if raw == "" {
		return nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata is missing the order reference")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return nil, uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse order reference")
	}
	return &sess, orderID, nil
}
