package grants

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sampleforge/sampleforge-backend/pkg/db/models"
	pkgerrors "github.com/sampleforge/sampleforge-backend/pkg/errors"
	"github.com/sampleforge/sampleforge-backend/pkg/logger"
	"github.com/sampleforge/sampleforge-backend/pkg/metrics"
)

// Signed download links are short-lived; the grant token is the durable
// credential, not the storage URL.
const downloadURLTTL = 5 * time.Minute

type sampleLoader interface {
	GetSample(ctx context.Context, id uuid.UUID) (*models.Sample, error)
}

type assetSigner interface {
	SignedReadURL(bucket, object string, ttl time.Duration) (string, error)
}

// RedeemResult carries the signed storage URL for one permitted download.
type RedeemResult struct {
	DownloadURL        string
	SampleID           uuid.UUID
	RemainingDownloads int
}

// Service redeems download grant tokens.
type Service interface {
	Redeem(ctx context.Context, token string) (*RedeemResult, error)
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.DownloadGrant, error)
}

type service struct {
	repo    GrantRepository
	samples sampleLoader
	signer  assetSigner
	metrics *metrics.PipelineMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// ServiceParams collects the grant service dependencies.
type ServiceParams struct {
	Repo    GrantRepository
	Samples sampleLoader
	Signer  assetSigner
	Metrics *metrics.PipelineMetrics
	Logger  *logger.Logger
}

// NewService builds the grant redemption service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("grant repository required")
	}
	if params.Samples == nil {
		return nil, fmt.Errorf("sample loader required")
	}
	if params.Signer == nil {
		return nil, fmt.Errorf("asset signer required")
	}
	return &service{
		repo:    params.Repo,
		samples: params.Samples,
		signer:  params.Signer,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     time.Now,
	}, nil
}

// Redeem validates the token and, if the grant still has downloads left,
// consumes one and returns a signed URL for the underlying sample. The
// checks run in a fixed order: unknown token, then expiry, then the
// download cap. A grant is usable through the last instant of ExpiresAt.
func (s *service) Redeem(ctx context.Context, token string) (*RedeemResult, error) {
	if token == "" {
		return nil, s.fail(pkgerrors.New(pkgerrors.CodeGrantNotFound, "download grant not found"))
	}

	grant, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, s.fail(pkgerrors.New(pkgerrors.CodeGrantNotFound, "download grant not found"))
		}
		return nil, s.fail(pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading grant"))
	}

	if s.now().After(grant.ExpiresAt) {
		return nil, s.fail(pkgerrors.New(pkgerrors.CodeGrantExpired, "download grant has expired"))
	}

	consumed, err := s.repo.ConsumeDownload(ctx, grant.ID)
	if err != nil {
		return nil, s.fail(pkgerrors.Wrap(pkgerrors.CodeInternal, err, "consuming download"))
	}
	if !consumed {
		return nil, s.fail(pkgerrors.New(pkgerrors.CodeGrantExhausted, "download grant has no downloads remaining"))
	}

	sample, err := s.samples.GetSample(ctx, grant.SampleID)
	if err != nil {
		return nil, s.fail(pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving sample"))
	}

	signedURL, err := s.signer.SignedReadURL("", sample.ObjectPath, downloadURLTTL)
	if err != nil {
		return nil, s.fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "signing download url"))
	}

	s.metrics.IncDownload("success")
	remaining := grant.MaxDownloads - grant.DownloadCount - 1
	if remaining < 0 {
		remaining = 0
	}
	return &RedeemResult{
		DownloadURL:        signedURL,
		SampleID:           grant.SampleID,
		RemainingDownloads: remaining,
	}, nil
}

func (s *service) ListForOrder(ctx context.Context, orderID uuid.UUID) ([]models.DownloadGrant, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	rows, err := s.repo.FindByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing grants")
	}
	return rows, nil
}

func (s *service) fail(err error) error {
	outcome := "error"
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeGrantNotFound:
			outcome = "not_found"
		case pkgerrors.CodeGrantExpired:
			outcome = "expired"
		case pkgerrors.CodeGrantExhausted:
			outcome = "exhausted"
		}
	}
	s.metrics.IncDownload(outcome)
	return err
}
