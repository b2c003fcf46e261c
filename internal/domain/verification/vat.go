package verification

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// VATStatus is the outcome of a VAT validation
type VATStatus string

const (
	VATStatusValid              VATStatus = "VALID"
	VATStatusInvalid            VATStatus = "INVALID"
	VATStatusNotFound           VATStatus = "NOT_FOUND"
	VATStatusServiceUnavailable VATStatus = "SERVICE_UNAVAILABLE"
	VATStatusError              VATStatus = "ERROR"
)

// vatPatterns maps EU country codes to the local-number format accepted
// before any registry call. A number failing its country pattern is rejected
// locally and never reaches the registry.
var vatPatterns = map[string]*regexp.Regexp{
	"AT": regexp.MustCompile(`^U\d{8}$`),
	"BE": regexp.MustCompile(`^0\d{9}$`),
	"BG": regexp.MustCompile(`^\d{9,10}$`),
	"CY": regexp.MustCompile(`^\d{8}[A-Z]$`),
	"CZ": regexp.MustCompile(`^\d{8,10}$`),
	"DE": regexp.MustCompile(`^\d{9}$`),
	"DK": regexp.MustCompile(`^\d{8}$`),
	"EE": regexp.MustCompile(`^\d{9}$`),
	"EL": regexp.MustCompile(`^\d{9}$`),
	"ES": regexp.MustCompile(`^[A-Z0-9]\d{7}[A-Z0-9]$`),
	"FI": regexp.MustCompile(`^\d{8}$`),
	"FR": regexp.MustCompile(`^[A-Z0-9]{2}\d{9}$`),
	"HR": regexp.MustCompile(`^\d{11}$`),
	"HU": regexp.MustCompile(`^\d{8}$`),
	"IE": regexp.MustCompile(`^\d{7}[A-Z]{1,2}$`),
	"IT": regexp.MustCompile(`^\d{11}$`),
	"LT": regexp.MustCompile(`^(\d{9}|\d{12})$`),
	"LU": regexp.MustCompile(`^\d{8}$`),
	"LV": regexp.MustCompile(`^\d{11}$`),
	"MT": regexp.MustCompile(`^\d{8}$`),
	"NL": regexp.MustCompile(`^\d{9}B\d{2}$`),
	"PL": regexp.MustCompile(`^\d{10}$`),
	"PT": regexp.MustCompile(`^\d{9}$`),
	"RO": regexp.MustCompile(`^\d{2,10}$`),
	"SE": regexp.MustCompile(`^\d{12}$`),
	"SI": regexp.MustCompile(`^\d{8}$`),
	"SK": regexp.MustCompile(`^\d{10}$`),
}

// VATNumber is a parsed EU VAT identifier
type VATNumber struct {
	CountryCode string
	LocalNumber string
}

// Full returns the canonical "CCNNNN…" form
func (v VATNumber) Full() string {
	return v.CountryCode + v.LocalNumber
}

// ParseVATNumber splits a full VAT identifier into country code and local
// number, stripping spaces and dashes. An unknown country code is a
// validation error.
func ParseVATNumber(full string) (VATNumber, error) {
	cleaned := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(full)))
	if len(cleaned) < 3 {
		return VATNumber{}, shared.NewValidationError("VAT number is too short")
	}
	code := cleaned[:2]
	if _, ok := vatPatterns[code]; !ok {
		return VATNumber{}, shared.NewValidationError("Unknown EU country code: " + code)
	}
	return VATNumber{CountryCode: code, LocalNumber: cleaned[2:]}, nil
}

// MatchesCountryPattern reports whether the local number matches its
// country's format table entry.
func (v VATNumber) MatchesCountryPattern() bool {
	pattern, ok := vatPatterns[v.CountryCode]
	if !ok {
		return false
	}
	return pattern.MatchString(v.LocalNumber)
}

// VATValidationRecord is the immutable result of one external VAT check.
// Cache hits do not create new records. The only mutation permitted after
// creation is linking the record to a client.
type VATValidationRecord struct {
	shared.BaseEntity
	TenantID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	VATNumber      string     `gorm:"type:varchar(20);not null;index"`
	CountryCode    string     `gorm:"type:varchar(2);not null"`
	Valid          bool       `gorm:"not null"`
	Status         VATStatus  `gorm:"type:varchar(30);not null"`
	CompanyName    string     `gorm:"type:varchar(300)"`
	CompanyAddress string     `gorm:"type:text"`
	ConsultationID string     `gorm:"type:varchar(100)"`
	ValidatedAt    time.Time  `gorm:"not null"`
	CacheExpiresAt time.Time  `gorm:"not null"`
	RawResponse    string     `gorm:"type:jsonb"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index"`
	Note           string     `gorm:"type:text"`
}

// NewVATValidationRecord creates a record from a registry response
func NewVATValidationRecord(tenantID uuid.UUID, number VATNumber, status VATStatus, valid bool, res *RegistryResult, cacheTTL time.Duration) *VATValidationRecord {
	rec := &VATValidationRecord{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		VATNumber:   number.Full(),
		CountryCode: number.CountryCode,
		Valid:       valid,
		Status:      status,
		ValidatedAt: time.Now(),
	}
	rec.CacheExpiresAt = rec.ValidatedAt.Add(cacheTTL)
	if res != nil {
		rec.CompanyName = res.Name
		rec.CompanyAddress = res.Address
		rec.ConsultationID = res.RequestID
		rec.RawResponse = res.Raw
	}
	return rec
}

// LinkClient attaches the record to a client. Linking is one-shot; re-linking
// an already linked record is a conflict.
func (r *VATValidationRecord) LinkClient(clientID uuid.UUID) error {
	if r.ClientID != nil {
		return shared.NewConflictError("Validation record is already linked to a client")
	}
	r.ClientID = &clientID
	return nil
}

// VATRecordRepository persists VAT validation records
type VATRecordRepository interface {
	Save(ctx context.Context, record *VATValidationRecord) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*VATValidationRecord, error)
	// FindLatestByNumberSince returns the most recent record for a VAT number
	// validated at or after the given time, or ErrNotFound.
	FindLatestByNumberSince(ctx context.Context, tenantID uuid.UUID, vatNumber string, since time.Time) (*VATValidationRecord, error)
	FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]VATValidationRecord, error)
}
