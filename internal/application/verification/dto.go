package verification

import (
	"time"

	"github.com/crm/backend/internal/domain/verification"
	"github.com/google/uuid"
)

// =============================================================================
// VAT DTOs
// =============================================================================

// ValidateVATRequest represents a single VAT validation request
type ValidateVATRequest struct {
	VATNumber string     `json:"vat_number" binding:"required,min=3,max=20"`
	ClientID  *uuid.UUID `json:"client_id"`
}

// BatchValidateVATRequest represents a batch VAT validation request
type BatchValidateVATRequest struct {
	VATNumbers []string `json:"vat_numbers" binding:"required,min=1,max=100"`
}

// VATValidationResponse is the outcome of one VAT validation
type VATValidationResponse struct {
	VATNumber      string     `json:"vat_number"`
	CountryCode    string     `json:"country_code"`
	Status         string     `json:"status"`
	Valid          bool       `json:"valid"`
	CompanyName    string     `json:"company_name,omitempty"`
	CompanyAddress string     `json:"company_address,omitempty"`
	ConsultationID string     `json:"consultation_id,omitempty"`
	ValidatedAt    time.Time  `json:"validated_at"`
	FromCache      bool       `json:"from_cache"`
	Note           string     `json:"note,omitempty"`
	RecordID       *uuid.UUID `json:"record_id,omitempty"`
}

// ToVATValidationResponse maps a stored record to its response shape
func ToVATValidationResponse(r *verification.VATValidationRecord, fromCache bool, note string) VATValidationResponse {
	id := r.ID
	return VATValidationResponse{
		VATNumber:      r.VATNumber,
		CountryCode:    r.CountryCode,
		Status:         string(r.Status),
		Valid:          r.Valid,
		CompanyName:    r.CompanyName,
		CompanyAddress: r.CompanyAddress,
		ConsultationID: r.ConsultationID,
		ValidatedAt:    r.ValidatedAt,
		FromCache:      fromCache,
		Note:           note,
		RecordID:       &id,
	}
}

// =============================================================================
// Whitelist DTOs
// =============================================================================

// VerifyWhitelistRequest represents a single whitelist verification request
type VerifyWhitelistRequest struct {
	NIP              string     `json:"nip" binding:"required,min=10,max=15"`
	BankAccount      string     `json:"bank_account" binding:"omitempty,max=40"`
	VerificationDate *time.Time `json:"verification_date"`
	ClientID         *uuid.UUID `json:"client_id"`
}

// BatchVerifyWhitelistRequest represents a batch whitelist verification request
type BatchVerifyWhitelistRequest struct {
	Entries []VerifyWhitelistRequest `json:"entries" binding:"required,min=1,max=100,dive"`
}

// WhitelistVerificationResponse is the outcome of one whitelist check
type WhitelistVerificationResponse struct {
	NIP                string     `json:"nip"`
	BankAccount        string     `json:"bank_account,omitempty"`
	Status             string     `json:"status"`
	NIPValid           bool       `json:"nip_valid"`
	AccountValid       *bool      `json:"account_valid,omitempty"`
	AccountOnList      *bool      `json:"account_on_list,omitempty"`
	RegistrationStatus string     `json:"registration_status,omitempty"`
	CompanyName        string     `json:"company_name,omitempty"`
	RegisteredAccounts []string   `json:"registered_accounts,omitempty"`
	ElectronicID       string     `json:"electronic_id,omitempty"`
	QueryDate          time.Time  `json:"query_date"`
	VerifiedAt         time.Time  `json:"verified_at"`
	FromCache          bool       `json:"from_cache"`
	Note               string     `json:"note,omitempty"`
	RecordID           *uuid.UUID `json:"record_id,omitempty"`
}

// ToWhitelistVerificationResponse maps a stored record to its response shape
func ToWhitelistVerificationResponse(r *verification.WhitelistVerificationRecord, fromCache bool) WhitelistVerificationResponse {
	id := r.ID
	return WhitelistVerificationResponse{
		NIP:                r.NIP,
		BankAccount:        r.BankAccount,
		Status:             string(r.Status),
		NIPValid:           r.NIPValid,
		AccountValid:       r.AccountValid,
		AccountOnList:      r.AccountOnList,
		RegistrationStatus: r.RegistrationStatus,
		CompanyName:        r.CompanyName,
		RegisteredAccounts: r.RegisteredAccounts,
		ElectronicID:       r.ElectronicID,
		QueryDate:          r.QueryDate,
		VerifiedAt:         r.VerifiedAt,
		FromCache:          fromCache,
		RecordID:           &id,
	}
}
