package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/crm/backend/internal/domain/client"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/domain/timeline"
	"github.com/crm/backend/internal/domain/verification"
	"github.com/google/uuid"
)

// In-memory stand-ins for the outbound ports, enough to drive the
// application services under httptest.

type stubContactRepo struct {
	mu       sync.Mutex
	contacts map[uuid.UUID]*client.Contact
}

func newStubContactRepo() *stubContactRepo {
	return &stubContactRepo{contacts: make(map[uuid.UUID]*client.Contact)}
}

func (r *stubContactRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*client.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[id]
	if !ok || c.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *stubContactRepo) FindByClient(_ context.Context, tenantID, clientID uuid.UUID, _ client.ListFilter) ([]client.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []client.Contact
	for _, c := range r.contacts {
		if c.TenantID == tenantID && c.ClientID == clientID && !c.IsDeleted() {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubContactRepo) FindPrimaryByClient(_ context.Context, tenantID, clientID uuid.UUID) (*client.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.TenantID == tenantID && c.ClientID == clientID && c.IsPrimary && !c.IsDeleted() {
			copied := *c
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubContactRepo) CountOtherActive(_ context.Context, tenantID, clientID, excludeID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.contacts {
		if c.TenantID == tenantID && c.ClientID == clientID && c.ID != excludeID && c.IsActive && !c.IsDeleted() {
			n++
		}
	}
	return n, nil
}

func (r *stubContactRepo) Save(_ context.Context, contact *client.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *contact
	r.contacts[contact.ID] = &copied
	return nil
}

func (r *stubContactRepo) SaveAsPrimary(_ context.Context, contact *client.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.contacts {
		if c.ClientID == contact.ClientID {
			c.IsPrimary = false
		}
	}
	contact.IsPrimary = true
	copied := *contact
	r.contacts[contact.ID] = &copied
	return nil
}

func (r *stubContactRepo) TransferPrimary(_ context.Context, tenantID, clientID, newPrimaryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.contacts[newPrimaryID]
	if !ok || target.TenantID != tenantID || target.ClientID != clientID || target.IsDeleted() {
		return shared.ErrNotFound
	}
	for _, c := range r.contacts {
		if c.ClientID == clientID {
			c.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

type stubHistoryRepo struct {
	mu      sync.Mutex
	entries []client.ContactHistoryEntry
}

func (r *stubHistoryRepo) Save(_ context.Context, entry *client.ContactHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *stubHistoryRepo) FindByContact(_ context.Context, tenantID, contactID uuid.UUID) ([]client.ContactHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []client.ContactHistoryEntry
	for _, e := range r.entries {
		if e.TenantID == tenantID && e.ContactID == contactID {
			out = append(out, e)
		}
	}
	return out, nil
}

type stubEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*timeline.TimelineEvent
	page   *timeline.Page
}

func newStubEventRepo() *stubEventRepo {
	return &stubEventRepo{events: make(map[uuid.UUID]*timeline.TimelineEvent)}
}

func (r *stubEventRepo) Append(_ context.Context, event *timeline.TimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *stubEventRepo) FindByIDForTenant(_ context.Context, tenantID, id uuid.UUID) (*timeline.TimelineEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok || e.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (r *stubEventRepo) Update(_ context.Context, event *timeline.TimelineEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return shared.ErrNotFound
	}
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *stubEventRepo) Query(_ context.Context, tenantID, clientID uuid.UUID, _ timeline.Filter, _ *timeline.Cursor, _ int, _ timeline.SortOrder) (*timeline.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.page != nil {
		return r.page, nil
	}
	page := &timeline.Page{}
	for _, e := range r.events {
		if e.TenantID == tenantID && e.ClientID == clientID && !e.IsDeleted() {
			page.Events = append(page.Events, *e)
		}
	}
	return page, nil
}

func (r *stubEventRepo) CountByClient(_ context.Context, tenantID, clientID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, e := range r.events {
		if e.TenantID == tenantID && e.ClientID == clientID {
			n++
		}
	}
	return n, nil
}

type stubPortal struct {
	provisioned int
	failWith    error
}

func (p *stubPortal) Provision(_ context.Context, _, _ uuid.UUID, _ string) (uuid.UUID, error) {
	if p.failWith != nil {
		return uuid.Nil, p.failWith
	}
	p.provisioned++
	return uuid.New(), nil
}

func (p *stubPortal) Deactivate(_ context.Context, _, _ uuid.UUID) error {
	return p.failWith
}

type stubSender struct {
	invitations int
	revocations int
}

func (s *stubSender) SendPortalInvitation(_ context.Context, _ *client.Contact) error {
	s.invitations++
	return nil
}

func (s *stubSender) SendPortalRevocation(_ context.Context, _ *client.Contact, _ string) error {
	s.revocations++
	return nil
}

type stubAudit struct {
	mu      sync.Mutex
	entries []shared.AuditEntry
}

func (a *stubAudit) Record(_ context.Context, entry shared.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

type stubExporter struct {
	handle *timeline.ExportHandle
	err    error
}

func (e *stubExporter) Export(_ context.Context, _, _ uuid.UUID, _ []timeline.TimelineEvent, format string) (*timeline.ExportHandle, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.handle != nil {
		return e.handle, nil
	}
	return &timeline.ExportHandle{
		URL:       "https://files.example.com/export.pdf",
		Format:    format,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

type stubVATRegistry struct {
	result *verification.RegistryResult
	err    error
	calls  int
}

func (r *stubVATRegistry) CheckVAT(_ context.Context, _, _ string) (*verification.RegistryResult, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &verification.RegistryResult{Valid: true, Name: "ACME SP Z O O"}, nil
}

type stubWhitelistRegistry struct {
	result *verification.WhitelistResult
	err    error
}

func (r *stubWhitelistRegistry) SearchNIP(_ context.Context, _ string, _ time.Time) (*verification.WhitelistResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.result != nil {
		return r.result, nil
	}
	return &verification.WhitelistResult{Found: true, Name: "ACME SP Z O O", StatusVAT: "Czynny"}, nil
}

func (r *stubWhitelistRegistry) CheckAccount(ctx context.Context, nip, _ string, date time.Time) (*verification.WhitelistResult, error) {
	return r.SearchNIP(ctx, nip, date)
}

type stubResultCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newStubResultCache() *stubResultCache {
	return &stubResultCache{values: make(map[string]string)}
}

func (c *stubResultCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *stubResultCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

type stubRateLimiter struct {
	allowed bool
	err     error
}

func (l *stubRateLimiter) Allow(_ context.Context, _ string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.allowed, nil
}

type stubVATRecordRepo struct {
	mu      sync.Mutex
	records []verification.VATValidationRecord
}

func (r *stubVATRecordRepo) Save(_ context.Context, record *verification.VATValidationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *stubVATRecordRepo) FindByID(_ context.Context, _, id uuid.UUID) (*verification.VATValidationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			copied := r.records[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubVATRecordRepo) FindLatestByNumberSince(_ context.Context, _ uuid.UUID, vatNumber string, since time.Time) (*verification.VATValidationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].VATNumber == vatNumber && !r.records[i].ValidatedAt.Before(since) {
			copied := r.records[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubVATRecordRepo) FindByClient(_ context.Context, _, clientID uuid.UUID, _ shared.Filter) ([]verification.VATValidationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []verification.VATValidationRecord
	for _, rec := range r.records {
		if rec.ClientID != nil && *rec.ClientID == clientID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubWhitelistRecordRepo struct {
	mu      sync.Mutex
	records []verification.WhitelistVerificationRecord
}

func (r *stubWhitelistRecordRepo) Save(_ context.Context, record *verification.WhitelistVerificationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *record)
	return nil
}

func (r *stubWhitelistRecordRepo) FindByID(_ context.Context, _, id uuid.UUID) (*verification.WhitelistVerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.records {
		if r.records[i].ID == id {
			copied := r.records[i]
			return &copied, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubWhitelistRecordRepo) FindByClient(_ context.Context, _, clientID uuid.UUID, _ shared.Filter) ([]verification.WhitelistVerificationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []verification.WhitelistVerificationRecord
	for _, rec := range r.records {
		if rec.ClientID != nil && *rec.ClientID == clientID {
			out = append(out, rec)
		}
	}
	return out, nil
}

var errStubFailure = errors.New("stub failure")
