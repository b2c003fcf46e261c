package verification

import (
	"context"
	"time"
)

// RegistryResult is the payload of a successful VAT registry lookup
type RegistryResult struct {
	Valid     bool
	Name      string
	Address   string
	RequestID string
	Raw       string
}

// VATRegistry is the outbound port to the EU VAT information exchange
// service. Implementations return an error only for transport or service
// failures; a negative lookup is a Valid=false result.
type VATRegistry interface {
	CheckVAT(ctx context.Context, countryCode, vatNumber string) (*RegistryResult, error)
}

// WhitelistResult is the payload of a whitelist registry lookup.
// AccountAssigned is nil when no bank account was part of the query.
type WhitelistResult struct {
	Found           bool
	Name            string
	StatusVAT       string
	AccountAssigned *bool
	Accounts        []string
	RequestID       string
	Raw             string
}

// RegistryError is an error the registry itself reported in a well-formed
// response payload. It is distinct from transport failures: the service was
// reached and answered, but rejected or could not process the query.
type RegistryError struct {
	Code    string
	Message string
}

func (e *RegistryError) Error() string {
	if e.Code != "" {
		return "registry error " + e.Code + ": " + e.Message
	}
	return "registry error: " + e.Message
}

// WhitelistRegistry is the outbound port to the national taxpayer
// whitelist. Queries are always made against an explicit date; the registry
// keeps daily snapshots and historical dates hit different snapshots.
type WhitelistRegistry interface {
	SearchNIP(ctx context.Context, nip string, date time.Time) (*WhitelistResult, error)
	CheckAccount(ctx context.Context, nip, account string, date time.Time) (*WhitelistResult, error)
}
