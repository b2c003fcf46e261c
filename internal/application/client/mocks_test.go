package client

import (
	"context"

	"github.com/crm/backend/internal/domain/client"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockContactRepository is a mock implementation of client.ContactRepository
type MockContactRepository struct {
	mock.Mock
}

var _ client.ContactRepository = (*MockContactRepository)(nil)

func (m *MockContactRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*client.Contact, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Contact), args.Error(1)
}

func (m *MockContactRepository) FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter client.ListFilter) ([]client.Contact, error) {
	args := m.Called(ctx, tenantID, clientID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.Contact), args.Error(1)
}

func (m *MockContactRepository) FindPrimaryByClient(ctx context.Context, tenantID, clientID uuid.UUID) (*client.Contact, error) {
	args := m.Called(ctx, tenantID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Contact), args.Error(1)
}

func (m *MockContactRepository) CountOtherActive(ctx context.Context, tenantID, clientID, excludeID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, clientID, excludeID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContactRepository) Save(ctx context.Context, contact *client.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepository) SaveAsPrimary(ctx context.Context, contact *client.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockContactRepository) TransferPrimary(ctx context.Context, tenantID, clientID, newPrimaryID uuid.UUID) error {
	args := m.Called(ctx, tenantID, clientID, newPrimaryID)
	return args.Error(0)
}

// MockContactHistoryRepository is a mock implementation of client.ContactHistoryRepository
type MockContactHistoryRepository struct {
	mock.Mock
}

var _ client.ContactHistoryRepository = (*MockContactHistoryRepository)(nil)

func (m *MockContactHistoryRepository) Save(ctx context.Context, entry *client.ContactHistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockContactHistoryRepository) FindByContact(ctx context.Context, tenantID, contactID uuid.UUID) ([]client.ContactHistoryEntry, error) {
	args := m.Called(ctx, tenantID, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]client.ContactHistoryEntry), args.Error(1)
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

// MockPortalProvisioner is a mock implementation of client.PortalProvisioner
type MockPortalProvisioner struct {
	mock.Mock
}

var _ client.PortalProvisioner = (*MockPortalProvisioner)(nil)

func (m *MockPortalProvisioner) Provision(ctx context.Context, tenantID, contactID uuid.UUID, email string) (uuid.UUID, error) {
	args := m.Called(ctx, tenantID, contactID, email)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockPortalProvisioner) Deactivate(ctx context.Context, tenantID, portalAccountID uuid.UUID) error {
	args := m.Called(ctx, tenantID, portalAccountID)
	return args.Error(0)
}

// MockInvitationSender is a mock implementation of client.InvitationSender
type MockInvitationSender struct {
	mock.Mock
}

var _ client.InvitationSender = (*MockInvitationSender)(nil)

func (m *MockInvitationSender) SendPortalInvitation(ctx context.Context, contact *client.Contact) error {
	args := m.Called(ctx, contact)
	return args.Error(0)
}

func (m *MockInvitationSender) SendPortalRevocation(ctx context.Context, contact *client.Contact, reason string) error {
	args := m.Called(ctx, contact, reason)
	return args.Error(0)
}

// MockAuditLogger is a mock implementation of shared.AuditLogger
type MockAuditLogger struct {
	mock.Mock
}

var _ shared.AuditLogger = (*MockAuditLogger)(nil)

func (m *MockAuditLogger) Record(ctx context.Context, entry shared.AuditEntry) {
	m.Called(ctx, entry)
}
