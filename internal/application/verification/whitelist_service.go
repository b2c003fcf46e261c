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

// registry sub-statuses as reported by the whitelist service
const (
	registryStatusActive = "Czynny"
	registryStatusExempt = "Zwolniony"
)

// WhitelistServiceConfig tunes the verification pipeline
type WhitelistServiceConfig struct {
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	BatchLimit     int
}

// DefaultWhitelistServiceConfig returns the production defaults: 1h cache
// for current-day queries, 10s registry timeout, 5 concurrent batch entries.
func DefaultWhitelistServiceConfig() WhitelistServiceConfig {
	return WhitelistServiceConfig{
		CacheTTL:       time.Hour,
		RequestTimeout: 10 * time.Second,
		BatchLimit:     5,
	}
}

// WhitelistService verifies Polish taxpayers against the national whitelist.
// Current-day queries are cached for an hour; historical queries always hit
// the registry's date-parameterized snapshot.
type WhitelistService struct {
	recordRepo verification.WhitelistRecordRepository
	registry   verification.WhitelistRegistry
	cache      verification.ResultCache
	eventRepo  timeline.EventRepository
	audit      shared.AuditLogger
	logger     *zap.Logger
	now        func() time.Time
	config     WhitelistServiceConfig
}

// NewWhitelistService creates a new WhitelistService
func NewWhitelistService(
	recordRepo verification.WhitelistRecordRepository,
	registry verification.WhitelistRegistry,
	cache verification.ResultCache,
	eventRepo timeline.EventRepository,
	audit shared.AuditLogger,
	logger *zap.Logger,
	config WhitelistServiceConfig,
) *WhitelistService {
	return &WhitelistService{
		recordRepo: recordRepo,
		registry:   registry,
		cache:      cache,
		eventRepo:  eventRepo,
		audit:      audit,
		logger:     logger,
		now:        time.Now,
		config:     config,
	}
}

// WithClock replaces the time source, letting tests pin the current day
func (s *WhitelistService) WithClock(now func() time.Time) *WhitelistService {
	s.now = now
	return s
}

func cacheKeyWhitelist(nip, account string, date time.Time) string {
	return "whitelist:" + nip + ":" + account + ":" + date.Format("2006-01-02")
}

// Verify checks one taxpayer. An invalid checksum short-circuits to
// NIP_INVALID with no network call and no persistence. A registry-reported
// query failure yields a SERVICE_ERROR result without persistence; a
// transport failure propagates as a service-unavailable error. Every other
// non-cached outcome is persisted as a verification record.
func (s *WhitelistService) Verify(ctx context.Context, tenantID, actor uuid.UUID, req VerifyWhitelistRequest) (*WhitelistVerificationResponse, error) {
	nip := verification.NormalizeNIP(req.NIP)
	today := truncateToDay(s.now())

	queryDate := today
	if req.VerificationDate != nil {
		queryDate = truncateToDay(*req.VerificationDate)
	}
	if queryDate.After(today) {
		return nil, shared.NewValidationError("Verification date cannot be in the future")
	}
	historical := queryDate.Before(today)

	if err := verification.ValidateNIPChecksum(nip); err != nil {
		return &WhitelistVerificationResponse{
			NIP:        nip,
			Status:     string(verification.WhitelistStatusNIPInvalid),
			QueryDate:  queryDate,
			VerifiedAt: s.now(),
			Note:       err.Error(),
		}, nil
	}

	account := ""
	if req.BankAccount != "" {
		normalized, err := verification.NormalizeAccount(req.BankAccount)
		if err != nil {
			return nil, err
		}
		account = normalized
	}

	cacheKey := cacheKeyWhitelist(nip, account, queryDate)
	if !historical {
		if cached, ok := s.cacheGet(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	var result *verification.WhitelistResult
	var err error
	if account != "" {
		result, err = s.registry.CheckAccount(callCtx, nip, account, queryDate)
	} else {
		result, err = s.registry.SearchNIP(callCtx, nip, queryDate)
	}
	if err != nil {
		var regErr *verification.RegistryError
		if errors.As(err, &regErr) {
			s.logger.Warn("whitelist registry rejected query",
				zap.String("nip", nip),
				zap.String("code", regErr.Code),
				zap.Error(err))
			return &WhitelistVerificationResponse{
				NIP:         nip,
				BankAccount: account,
				Status:      string(verification.WhitelistStatusServiceError),
				QueryDate:   queryDate,
				VerifiedAt:  s.now(),
				Note:        regErr.Message,
			}, nil
		}
		s.logger.Warn("whitelist registry unreachable",
			zap.String("nip", nip),
			zap.Error(err))
		return nil, shared.ErrServiceUnavailable
	}

	status := mapWhitelistStatus(result, account != "")
	record := verification.NewWhitelistVerificationRecord(tenantID, nip, account, status, result, queryDate, s.config.CacheTTL)
	if req.ClientID != nil {
		if err := record.LinkClient(*req.ClientID); err != nil {
			return nil, err
		}
	}
	if err := s.recordRepo.Save(ctx, record); err != nil {
		return nil, err
	}

	response := ToWhitelistVerificationResponse(record, false)
	if !historical {
		s.cacheSet(ctx, cacheKey, response)
	}

	if req.ClientID != nil {
		if err := s.eventRepo.Append(ctx, timeline.NewWhitelistVerifiedEvent(tenantID, *req.ClientID, nip, string(status), &actor)); err != nil {
			return nil, err
		}
	}
	s.audit.Record(ctx, shared.NewAuditEntry(tenantID, "whitelist.verified", "whitelist_verification", record.ID, actor,
		map[string]interface{}{"nip": nip, "status": string(status)}))

	return &response, nil
}

// BatchVerify checks up to 100 taxpayers with at most five registry calls
// in flight. A failing entry becomes a SERVICE_ERROR result; siblings are
// unaffected and input order is preserved.
func (s *WhitelistService) BatchVerify(ctx context.Context, tenantID, actor uuid.UUID, req BatchVerifyWhitelistRequest) ([]WhitelistVerificationResponse, error) {
	if len(req.Entries) == 0 {
		return nil, shared.NewValidationError("At least one entry is required")
	}
	if len(req.Entries) > 100 {
		return nil, shared.NewValidationError("Batch cannot exceed 100 entries")
	}

	results := make([]WhitelistVerificationResponse, len(req.Entries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchLimit)

	for i := range req.Entries {
		i := i
		g.Go(func() error {
			resp, err := s.Verify(gctx, tenantID, actor, req.Entries[i])
			if err != nil {
				results[i] = WhitelistVerificationResponse{
					NIP:        verification.NormalizeNIP(req.Entries[i].NIP),
					Status:     string(verification.WhitelistStatusServiceError),
					VerifiedAt: s.now(),
					Note:       err.Error(),
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

	return results, nil
}

// GetByClient lists stored verification records for a client
func (s *WhitelistService) GetByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]WhitelistVerificationResponse, error) {
	records, err := s.recordRepo.FindByClient(ctx, tenantID, clientID, filter)
	if err != nil {
		return nil, err
	}
	responses := make([]WhitelistVerificationResponse, len(records))
	for i := range records {
		responses[i] = ToWhitelistVerificationResponse(&records[i], false)
	}
	return responses, nil
}

// mapWhitelistStatus folds the registry payload into a verification status.
// An absent subject means the NIP is not on the register. An active subject
// with a requested account missing from its registered accounts surfaces as
// ACCOUNT_NOT_FOUND. Exempt taxpayers are reported NOT_REGISTERED; any other
// sub-status means the identifier does not denote a VAT taxpayer at all.
func mapWhitelistStatus(result *verification.WhitelistResult, accountRequested bool) verification.WhitelistStatus {
	if result == nil || !result.Found {
		return verification.WhitelistStatusNotRegistered
	}
	switch result.StatusVAT {
	case registryStatusActive:
		if accountRequested && (result.AccountAssigned == nil || !*result.AccountAssigned) {
			return verification.WhitelistStatusAccountNotFound
		}
		return verification.WhitelistStatusOnWhitelist
	case registryStatusExempt:
		return verification.WhitelistStatusNotRegistered
	default:
		return verification.WhitelistStatusNIPInvalid
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *WhitelistService) cacheGet(ctx context.Context, key string) (*WhitelistVerificationResponse, bool) {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("whitelist cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var response WhitelistVerificationResponse
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		s.logger.Warn("whitelist cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	response.FromCache = true
	return &response, true
}

func (s *WhitelistService) cacheSet(ctx context.Context, key string, response WhitelistVerificationResponse) {
	payload, err := json.Marshal(response)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), s.config.CacheTTL); err != nil {
		s.logger.Warn("whitelist cache write failed", zap.String("key", key), zap.Error(err))
	}
}
