package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crm/backend/internal/domain/verification"
)

// VATValidationRecordModel is the persistence mapping of a VAT validation
// record. Rows are append-only; the only update is the client linkage.
type VATValidationRecordModel struct {
	BaseModel
	TenantID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	VATNumber      string     `gorm:"type:varchar(20);not null;index:idx_vat_records_number_validated"`
	CountryCode    string     `gorm:"type:varchar(2);not null"`
	Valid          bool       `gorm:"not null"`
	Status         string     `gorm:"type:varchar(30);not null"`
	CompanyName    string     `gorm:"type:varchar(300)"`
	CompanyAddress string     `gorm:"type:text"`
	ConsultationID string     `gorm:"type:varchar(100)"`
	ValidatedAt    time.Time  `gorm:"not null;index:idx_vat_records_number_validated"`
	CacheExpiresAt time.Time  `gorm:"not null"`
	RawResponse    string     `gorm:"type:jsonb"`
	ClientID       *uuid.UUID `gorm:"type:uuid;index"`
	Note           string     `gorm:"type:text"`
}

// TableName specifies the table name
func (VATValidationRecordModel) TableName() string {
	return "vat_validation_records"
}

// ToDomain converts the model to a domain record
func (m *VATValidationRecordModel) ToDomain() *verification.VATValidationRecord {
	return &verification.VATValidationRecord{
		BaseEntity:     m.BaseModel.ToDomain(),
		TenantID:       m.TenantID,
		VATNumber:      m.VATNumber,
		CountryCode:    m.CountryCode,
		Valid:          m.Valid,
		Status:         verification.VATStatus(m.Status),
		CompanyName:    m.CompanyName,
		CompanyAddress: m.CompanyAddress,
		ConsultationID: m.ConsultationID,
		ValidatedAt:    m.ValidatedAt,
		CacheExpiresAt: m.CacheExpiresAt,
		RawResponse:    m.RawResponse,
		ClientID:       m.ClientID,
		Note:           m.Note,
	}
}

// VATValidationRecordModelFromDomain converts a domain record to its
// persistence model.
func VATValidationRecordModelFromDomain(r *verification.VATValidationRecord) *VATValidationRecordModel {
	m := &VATValidationRecordModel{
		TenantID:       r.TenantID,
		VATNumber:      r.VATNumber,
		CountryCode:    r.CountryCode,
		Valid:          r.Valid,
		Status:         string(r.Status),
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
		ConsultationID: r.ConsultationID,
		ValidatedAt:    r.ValidatedAt,
		CacheExpiresAt: r.CacheExpiresAt,
		RawResponse:    r.RawResponse,
		ClientID:       r.ClientID,
		Note:           r.Note,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// WhitelistVerificationRecordModel is the persistence mapping of a
// whitelist verification record.
type WhitelistVerificationRecordModel struct {
	BaseModel
	TenantID               uuid.UUID  `gorm:"type:uuid;not null;index"`
	NIP                    string     `gorm:"type:varchar(10);not null;index"`
	BankAccount            string     `gorm:"type:varchar(26)"`
	NIPValid               bool       `gorm:"not null;default:false"`
	AccountValid           *bool      `gorm:""`
	AccountOnList          *bool      `gorm:""`
	Status                 string     `gorm:"type:varchar(30);not null"`
	RegistrationStatus     string     `gorm:"type:varchar(50)"`
	CompanyName            string     `gorm:"type:varchar(300)"`
	RegisteredAccountsJSON string     `gorm:"column:registered_accounts;type:jsonb;default:'[]'"`
	ElectronicID           string     `gorm:"type:varchar(100)"`
	QueryDate              time.Time  `gorm:"type:date;not null"`
	VerifiedAt             time.Time  `gorm:"not null"`
	CacheExpiresAt         time.Time  `gorm:"not null"`
	RawResponse            string     `gorm:"type:jsonb"`
	ClientID               *uuid.UUID `gorm:"type:uuid;index"`
}

// TableName specifies the table name
func (WhitelistVerificationRecordModel) TableName() string {
	return "whitelist_verification_records"
}

// ToDomain converts the model to a domain record
func (m *WhitelistVerificationRecordModel) ToDomain() *verification.WhitelistVerificationRecord {
	r := &verification.WhitelistVerificationRecord{
		BaseEntity:         m.BaseModel.ToDomain(),
		TenantID:           m.TenantID,
		NIP:                m.NIP,
		BankAccount:        m.BankAccount,
		NIPValid:           m.NIPValid,
		AccountValid:       m.AccountValid,
		AccountOnList:      m.AccountOnList,
		Status:             verification.WhitelistStatus(m.Status),
		RegistrationStatus: m.RegistrationStatus,
		CompanyName:        m.CompanyName,
		ElectronicID:       m.ElectronicID,
		QueryDate:          m.QueryDate,
		VerifiedAt:         m.VerifiedAt,
		CacheExpiresAt:     m.CacheExpiresAt,
		RawResponse:        m.RawResponse,
		ClientID:           m.ClientID,
	}
	if m.RegisteredAccountsJSON != "" && m.RegisteredAccountsJSON != "[]" {
		if err := json.Unmarshal([]byte(m.RegisteredAccountsJSON), &r.RegisteredAccounts); err != nil {
			modelLogger.Warn("failed to parse registered accounts JSON",
				zap.String("record_id", m.ID.String()),
				zap.Error(err))
		}
	}
	return r
}

// WhitelistVerificationRecordModelFromDomain converts a domain record to its
// persistence model.
func WhitelistVerificationRecordModelFromDomain(r *verification.WhitelistVerificationRecord) *WhitelistVerificationRecordModel {
	m := &WhitelistVerificationRecordModel{
		TenantID:               r.TenantID,
		NIP:                    r.NIP,
		BankAccount:            r.BankAccount,
		NIPValid:               r.NIPValid,
		AccountValid:           r.AccountValid,
		AccountOnList:          r.AccountOnList,
		Status:                 string(r.Status),
		RegistrationStatus:     r.RegistrationStatus,
		CompanyName:            r.CompanyName,
		RegisteredAccountsJSON: marshalJSON(r.RegisteredAccounts, "[]"),
		ElectronicID:           r.ElectronicID,
		QueryDate:              r.QueryDate,
		VerifiedAt:             r.VerifiedAt,
		CacheExpiresAt:         r.CacheExpiresAt,
		RawResponse:            r.RawResponse,
		ClientID:               r.ClientID,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
