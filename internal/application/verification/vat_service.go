package verification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/crm/backend/internal/domain/verification"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Sleeper pauses between batch chunks. Tests inject a no-op.
type Sleeper func(ctx context.Context, d time.Duration)

// DefaultSleeper sleeps unless the context is cancelled first
func DefaultSleeper(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// VATServiceConfig tunes the validation pipeline
type VATServiceConfig struct {
	CacheTTL       time.Duration
	FallbackWindow time.Duration
	RequestTimeout time.Duration
	RateLimitKey   string
	ChunkSize      int
	ChunkPause     time.Duration
}

// DefaultVATServiceConfig returns the production defaults: 24h result cache,
// 24h stale-result fallback window, 10s registry timeout, batch chunks of 10
// with a 60s pause between chunks.
func DefaultVATServiceConfig() VATServiceConfig {
	return VATServiceConfig{
		CacheTTL:       24 * time.Hour,
		FallbackWindow: 24 * time.Hour,
		RequestTimeout: 10 * time.Second,
		RateLimitKey:   "vat:registry",
		ChunkSize:      10,
		ChunkPause:     60 * time.Second,
	}
}

// VATService validates EU VAT numbers against the external registry with a
// cache in front and a fixed-window rate limit on outbound calls.
type VATService struct {
	recordRepo verification.VATRecordRepository
	registry   verification.VATRegistry
	cache      verification.ResultCache
	limiter    verification.RateLimiter
	eventRepo  timeline.EventRepository
	audit      shared.AuditLogger
	logger     *zap.Logger
	sleep      Sleeper
	config     VATServiceConfig
}

// NewVATService creates a new VATService
func NewVATService(
	recordRepo verification.VATRecordRepository,
	registry verification.VATRegistry,
	cache verification.ResultCache,
	limiter verification.RateLimiter,
	eventRepo timeline.EventRepository,
	audit shared.AuditLogger,
	logger *zap.Logger,
	config VATServiceConfig,
) *VATService {
	return &VATService{
		recordRepo: recordRepo,
		registry:   registry,
		cache:      cache,
		limiter:    limiter,
		eventRepo:  eventRepo,
		audit:      audit,
		logger:     logger,
		sleep:      DefaultSleeper,
		config:     config,
	}
}

// WithSleeper replaces the inter-chunk pause implementation
func (s *VATService) WithSleeper(sleep Sleeper) *VATService {
	s.sleep = sleep
	return s
}

func cacheKeyVAT(fullNumber string) string {
	return "vat:validation:" + fullNumber
}

// Validate checks one VAT number. An unknown country prefix is a request
// error; a number that fails its country's format produces an INVALID result
// locally with no registry call and no persistence. A cache hit is returned
// unchanged. When the registry is unreachable the most recent result from
// the fallback window is returned tagged SERVICE_UNAVAILABLE; with no such
// record a synthetic degraded result is returned and nothing is persisted.
func (s *VATService) Validate(ctx context.Context, tenantID, actor uuid.UUID, req ValidateVATRequest) (*VATValidationResponse, error) {
	number, err := verification.ParseVATNumber(req.VATNumber)
	if err != nil {
		return nil, err
	}
	if !number.MatchesCountryPattern() {
		return &VATValidationResponse{
			VATNumber:   number.Full(),
			CountryCode: number.CountryCode,
			Status:      string(verification.VATStatusInvalid),
			ValidatedAt: time.Now(),
			Note:        "Number does not match the " + number.CountryCode + " format",
		}, nil
	}

	if cached, ok := s.cacheGet(ctx, cacheKeyVAT(number.Full())); ok {
		return cached, nil
	}

	allowed, err := s.limiter.Allow(ctx, s.config.RateLimitKey)
	if err != nil {
		s.logger.Warn("rate limiter unavailable, allowing request", zap.Error(err))
	} else if !allowed {
		return nil, shared.ErrRateLimited
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	result, err := s.registry.CheckVAT(callCtx, number.CountryCode, number.LocalNumber)
	if err != nil {
		s.logger.Warn("vat registry unreachable",
			zap.String("vat_number", number.Full()),
			zap.Error(err))
		return s.fallback(ctx, tenantID, number)
	}

	status := verification.VATStatusInvalid
	if result.Valid {
		status = verification.VATStatusValid
	}
	record := verification.NewVATValidationRecord(tenantID, number, status, result.Valid, result, s.config.CacheTTL)
	if req.ClientID != nil {
		if err := record.LinkClient(*req.ClientID); err != nil {
			return nil, err
		}
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	response := ToVATValidationResponse(record, false, "")
	s.cacheSet(ctx, cacheKeyVAT(number.Full()), response)

	if req.ClientID != nil {
		if err := s.eventRepo.Append(ctx, timeline.NewVATValidatedEvent(tenantID, *req.ClientID, record.VATNumber, string(record.Status), &actor)); err != nil {
			return nil, err
		}
	}
	s.audit.Record(ctx, shared.NewAuditEntry(tenantID, "vat.validated", "vat_validation", record.ID, actor,
		map[string]interface{}{"vat_number": record.VATNumber, "status": string(record.Status)}))

	return &response, nil
}

// BatchValidate validates up to 100 numbers in chunks sized to the registry
// rate ceiling, pausing between chunks. A failing entry becomes an ERROR
// result; sibling entries are unaffected and input order is preserved.
func (s *VATService) BatchValidate(ctx context.Context, tenantID, actor uuid.UUID, req BatchValidateVATRequest) ([]VATValidationResponse, error) {
	if len(req.VATNumbers) == 0 {
		return nil, shared.NewValidationError("At least one VAT number is required")
	}
	if len(req.VATNumbers) > 100 {
		return nil, shared.NewValidationError("Batch cannot exceed 100 VAT numbers")
	}

	results := make([]VATValidationResponse, len(req.VATNumbers))
	chunkSize := s.config.ChunkSize

	for start := 0; start < len(req.VATNumbers); start += chunkSize {
		if start > 0 {
			s.sleep(ctx, s.config.ChunkPause)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
		end := start + chunkSize
		if end > len(req.VATNumbers) {
			end = len(req.VATNumbers)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				resp, err := s.Validate(gctx, tenantID, actor, ValidateVATRequest{VATNumber: req.VATNumbers[i]})
				if err != nil {
					results[i] = VATValidationResponse{
						VATNumber: req.VATNumbers[i],
						Status:    string(verification.VATStatusError),
						Note:      err.Error(),
					}
					return nil
				}
				results[i] = *resp
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// GetByClient lists stored validation records for a client
func (s *VATService) GetByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]VATValidationResponse, error) {
	records, err := s.recordRepo.FindByClient(ctx, tenantID, clientID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]VATValidationResponse, len(records))
	for i := range records {
		responses[i] = ToVATValidationResponse(&records[i], false, "")
	}
	return responses, nil
}

func (s *VATService) fallback(ctx context.Context, tenantID uuid.UUID, number verification.VATNumber) (*VATValidationResponse, error) {
	since := time.Now().Add(-s.config.FallbackWindow)
	record, err := s.recordRepo.FindLatestByNumberSince(ctx, tenantID, number.Full(), since)
	switch {
	case err == nil:
		response := ToVATValidationResponse(record, true, "Registry unavailable, using cached result")
		response.Status = string(verification.VATStatusServiceUnavailable)
		return &response, nil
	case !errors.Is(err, shared.ErrNotFound):
		// A broken store is not the same as an empty fallback window
		s.logger.Error("vat fallback lookup failed",
			zap.String("vat_number", number.Full()),
			zap.Error(err))
	}

	return &VATValidationResponse{
		VATNumber:   number.Full(),
		CountryCode: number.CountryCode,
		Status:      string(verification.VATStatusServiceUnavailable),
		ValidatedAt: time.Now(),
		Note:        "Registry unavailable and no recent result on file",
	}, nil
}

func (s *VATService) cacheGet(ctx context.Context, key string) (*VATValidationResponse, bool) {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("vat cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var response VATValidationResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		s.logger.Warn("vat cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	response.FromCache = true
	return &response, true
}

func (s *VATService) cacheSet(ctx context.Context, key string, response VATValidationResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.config.CacheTTL); err != nil {
		s.logger.Warn("vat cache write failed", zap.String("key", key), zap.Error(err))
	}
}
