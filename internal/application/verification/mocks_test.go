package verification

import (
	"context"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/crm/backend/internal/domain/verification"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories and Ports
// =============================================================================

// MockVATRecordRepository is a mock implementation of verification.VATRecordRepository
type MockVATRecordRepository struct {
	mock.Mock
}

var _ verification.VATRecordRepository = (*MockVATRecordRepository)(nil)

func (m *MockVATRecordRepository) Save(ctx context.Context, record *verification.VATValidationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockVATRecordRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*verification.VATValidationRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.VATValidationRecord), args.Error(1)
}

func (m *MockVATRecordRepository) FindLatestByNumberSince(ctx context.Context, tenantID uuid.UUID, vatNumber string, since time.Time) (*verification.VATValidationRecord, error) {
	args := m.Called(ctx, tenantID, vatNumber, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.VATValidationRecord), args.Error(1)
}

func (m *MockVATRecordRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]verification.VATValidationRecord, error) {
	args := m.Called(ctx, tenantID, clientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]verification.VATValidationRecord), args.Error(1)
}

// MockWhitelistRecordRepository is a mock implementation of verification.WhitelistRecordRepository
type MockWhitelistRecordRepository struct {
	mock.Mock
}

var _ verification.WhitelistRecordRepository = (*MockWhitelistRecordRepository)(nil)

func (m *MockWhitelistRecordRepository) Save(ctx context.Context, record *verification.WhitelistVerificationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockWhitelistRecordRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*verification.WhitelistVerificationRecord, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.WhitelistVerificationRecord), args.Error(1)
}

func (m *MockWhitelistRecordRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]verification.WhitelistVerificationRecord, error) {
	args := m.Called(ctx, tenantID, clientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]verification.WhitelistVerificationRecord), args.Error(1)
}

// MockVATRegistry is a mock implementation of verification.VATRegistry
type MockVATRegistry struct {
	mock.Mock
}

var _ verification.VATRegistry = (*MockVATRegistry)(nil)

func (m *MockVATRegistry) CheckVAT(ctx context.Context, countryCode, vatNumber string) (*verification.RegistryResult, error) {
	args := m.Called(ctx, countryCode, vatNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.RegistryResult), args.Error(1)
}

// MockWhitelistRegistry is a mock implementation of verification.WhitelistRegistry
type MockWhitelistRegistry struct {
	mock.Mock
}

var _ verification.WhitelistRegistry = (*MockWhitelistRegistry)(nil)

func (m *MockWhitelistRegistry) SearchNIP(ctx context.Context, nip string, date time.Time) (*verification.WhitelistResult, error) {
	args := m.Called(ctx, nip, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.WhitelistResult), args.Error(1)
}

func (m *MockWhitelistRegistry) CheckAccount(ctx context.Context, nip, account string, date time.Time) (*verification.WhitelistResult, error) {
	args := m.Called(ctx, nip, account, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*verification.WhitelistResult), args.Error(1)
}

// MockResultCache is a mock implementation of verification.ResultCache
type MockResultCache struct {
	mock.Mock
}

var _ verification.ResultCache = (*MockResultCache)(nil)

func (m *MockResultCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockResultCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// MockRateLimiter is a mock implementation of verification.RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

var _ verification.RateLimiter = (*MockRateLimiter)(nil)

func (m *MockRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockEventRepository is a mock implementation of timeline.EventRepository
type MockEventRepository struct {
	mock.Mock
}

var _ timeline.EventRepository = (*MockEventRepository)(nil)

func (m *MockEventRepository) Append(ctx context.Context, event *timeline.TimelineEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*timeline.TimelineEvent, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timeline.TimelineEvent), args.Error(1)
}

func (m *MockEventRepository) Update(ctx context.Context, event *timeline.TimelineEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) Query(ctx context.Context, tenantID, clientID uuid.UUID, filter timeline.Filter, cursor *timeline.Cursor, limit int, order timeline.SortOrder) (*timeline.Page, error) {
	args := m.Called(ctx, tenantID, clientID, filter, cursor, limit, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timeline.Page), args.Error(1)
}

func (m *MockEventRepository) CountByClient(ctx context.Context, tenantID, clientID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, clientID)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditLogger is a mock implementation of shared.AuditLogger
type MockAuditLogger struct {
	mock.Mock
}

var _ shared.AuditLogger = (*MockAuditLogger)(nil)

func (m *MockAuditLogger) Record(ctx context.Context, entry shared.AuditEntry) {
	m.Called(ctx, entry)
}
