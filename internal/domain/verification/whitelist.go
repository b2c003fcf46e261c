package verification

import (
	"context"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WhitelistStatus is the outcome of a taxpayer whitelist check
type WhitelistStatus string

const (
	WhitelistStatusOnWhitelist     WhitelistStatus = "ON_WHITELIST"
	WhitelistStatusNotRegistered   WhitelistStatus = "NOT_REGISTERED"
	WhitelistStatusAccountNotFound WhitelistStatus = "ACCOUNT_NOT_FOUND"
	WhitelistStatusNIPInvalid      WhitelistStatus = "NIP_INVALID"
	WhitelistStatusServiceError    WhitelistStatus = "SERVICE_ERROR"
)

// nipWeights are the checksum weights for the first nine NIP digits
var nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

// NormalizeNIP strips spaces, dashes and an optional PL prefix
func NormalizeNIP(nip string) string {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(nip))
	cleaned = strings.TrimPrefix(strings.ToUpper(cleaned), "PL")
	return cleaned
}

// ValidateNIPChecksum verifies the ten-digit Polish tax identifier. The
// tenth digit must equal the weighted sum of the first nine modulo 11, and
// a modulo result of 10 is never a valid check digit.
func ValidateNIPChecksum(nip string) error {
	if len(nip) != 10 {
		return shared.NewValidationError("NIP must have exactly 10 digits")
	}
	sum := 0
	for i, w := range nipWeights {
		d := nip[i]
		if d < '0' || d > '9' {
			return shared.NewValidationError("NIP must contain only digits")
		}
		sum += int(d-'0') * w
	}
	check := nip[9]
	if check < '0' || check > '9' {
		return shared.NewValidationError("NIP must contain only digits")
	}
	if sum%11 == 10 || sum%11 != int(check-'0') {
		return shared.NewValidationError("NIP checksum is invalid")
	}
	return nil
}

// NormalizeAccount strips spaces, dashes and an optional PL IBAN prefix,
// yielding the 26-digit domestic account form.
func NormalizeAccount(account string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(account))
	cleaned = strings.TrimPrefix(strings.ToUpper(cleaned), "PL")
	if len(cleaned) != 26 {
		return "", shared.NewValidationError("Bank account must have exactly 26 digits")
	}
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] < '0' || cleaned[i] > '9' {
			return "", shared.NewValidationError("Bank account must contain only digits")
		}
	}
	return cleaned, nil
}

// WhitelistVerificationRecord is the immutable result of one whitelist
// check. The ElectronicID is the registry's proof token for the query day.
type WhitelistVerificationRecord struct {
	shared.BaseEntity
	TenantID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	NIP                string          `gorm:"type:varchar(10);not null;index"`
	BankAccount        string          `gorm:"type:varchar(26)"`
	NIPValid           bool            `gorm:"not null;default:false"`
	AccountValid       *bool           `gorm:""`
	AccountOnList      *bool           `gorm:""`
	Status             WhitelistStatus `gorm:"type:varchar(30);not null"`
	RegistrationStatus string          `gorm:"type:varchar(50)"`
	CompanyName        string          `gorm:"type:varchar(300)"`
	RegisteredAccounts []string        `gorm:"-"`
	ElectronicID       string          `gorm:"type:varchar(100)"`
	QueryDate          time.Time       `gorm:"type:date;not null"`
	VerifiedAt         time.Time       `gorm:"not null"`
	CacheExpiresAt     time.Time       `gorm:"not null"`
	RawResponse        string          `gorm:"type:jsonb"`
	ClientID           *uuid.UUID      `gorm:"type:uuid;index"`
}

// NewWhitelistVerificationRecord creates a record from a registry response
func NewWhitelistVerificationRecord(tenantID uuid.UUID, nip, account string, status WhitelistStatus, res *WhitelistResult, queryDate time.Time, cacheTTL time.Duration) *WhitelistVerificationRecord {
	rec := &WhitelistVerificationRecord{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		NIP:         nip,
		BankAccount: account,
		Status:      status,
		QueryDate:   queryDate,
		VerifiedAt:  time.Now(),
	}
	rec.CacheExpiresAt = rec.VerifiedAt.Add(cacheTTL)

	// The NIP resolved to an active taxpayer even when the checked
	// account was not among its registered accounts.
	rec.NIPValid = status == WhitelistStatusOnWhitelist || status == WhitelistStatusAccountNotFound
	if account != "" {
		accountValid := status == WhitelistStatusOnWhitelist
		rec.AccountValid = &accountValid
	}

	if res != nil {
		rec.AccountOnList = res.AccountAssigned
		rec.RegistrationStatus = res.StatusVAT
		rec.RegisteredAccounts = res.Accounts
		rec.CompanyName = res.Name
		rec.ElectronicID = res.RequestID
		rec.RawResponse = res.Raw
	}
	return rec
}

// LinkClient attaches the record to a client
func (r *WhitelistVerificationRecord) LinkClient(clientID uuid.UUID) error {
	if r.ClientID != nil {
		return shared.NewConflictError("Verification record is already linked to a client")
	}
	r.ClientID = &clientID
	return nil
}

// WhitelistRecordRepository persists whitelist verification records
type WhitelistRecordRepository interface {
	Save(ctx context.Context, record *WhitelistVerificationRecord) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*WhitelistVerificationRecord, error)
	FindByClient(ctx context.Context, tenantID, clientID uuid.UUID, filter shared.Filter) ([]WhitelistVerificationRecord, error)
}
