package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crm/backend/internal/domain/verification"
	"github.com/crm/backend/internal/infrastructure/config"
)

const whitelistDateFormat = "2006-01-02"

// WhitelistClient implements the whitelist registry port against the
// Ministry of Finance taxpayer registry API. Every query carries an explicit
// snapshot date; the registry answers from that day's published file.
type WhitelistClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewWhitelistClient creates a client for the configured whitelist endpoint.
func NewWhitelistClient(cfg config.WhitelistConfig) *WhitelistClient {
	return &WhitelistClient{
		baseURL: strings.TrimRight(cfg.RegistryURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

type whitelistSubject struct {
	Name           string   `json:"name"`
	NIP            string   `json:"nip"`
	StatusVAT      string   `json:"statusVat"`
	RegON          string   `json:"regon"`
	AccountNumbers []string `json:"accountNumbers"`
}

type whitelistSearchResponse struct {
	Result struct {
		Subject         *whitelistSubject `json:"subject"`
		RequestID       string            `json:"requestId"`
		RequestDateTime string            `json:"requestDateTime"`
	} `json:"result"`
}

// SearchNIP looks up the taxpayer record for the NIP as of the given date.
// An unknown NIP is a Found=false result, not an error.
func (c *WhitelistClient) SearchNIP(ctx context.Context, nip string, date time.Time) (*verification.WhitelistResult, error) {
	endpoint := fmt.Sprintf("%s/api/search/nip/%s?date=%s",
		c.baseURL, url.PathEscape(nip), date.Format(whitelistDateFormat))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var searched whitelistSearchResponse
	if err := json.Unmarshal(body, &searched); err != nil {
		return nil, fmt.Errorf("whitelist: failed to decode response: %w", err)
	}

	result := &verification.WhitelistResult{
		RequestID: searched.Result.RequestID,
		Raw:       string(body),
	}
	if subject := searched.Result.Subject; subject != nil {
		result.Found = true
		result.Name = subject.Name
		result.StatusVAT = subject.StatusVAT
		result.Accounts = subject.AccountNumbers
	}
	return result, nil
}

// CheckAccount looks up the taxpayer record and reports whether the given
// bank account is among its registered accounts as of the date. Accounts are
// compared digit-normalized so formatting differences do not matter.
func (c *WhitelistClient) CheckAccount(ctx context.Context, nip, account string, date time.Time) (*verification.WhitelistResult, error) {
	result, err := c.SearchNIP(ctx, nip, date)
	if err != nil {
		return nil, err
	}
	if !result.Found {
		return result, nil
	}

	assigned := false
	for _, registered := range result.Accounts {
		normalized, err := verification.NormalizeAccount(registered)
		if err != nil {
			continue
		}
		if normalized == account {
			assigned = true
			break
		}
	}
	result.AccountAssigned = &assigned
	return result, nil
}

func (c *WhitelistClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("whitelist: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whitelist: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("whitelist: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		// The registry reports query-level failures in a structured body.
		// Surface those as typed errors so callers can tell a rejected
		// query apart from an unreachable service.
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
			return nil, &verification.RegistryError{Code: payload.Code, Message: payload.Message}
		}
		return nil, fmt.Errorf("whitelist: HTTP %d", resp.StatusCode)
	}

	return body, nil
}

var _ verification.WhitelistRegistry = (*WhitelistClient)(nil)
