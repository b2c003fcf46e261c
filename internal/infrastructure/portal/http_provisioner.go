package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/crm/backend/internal/domain/client"
	"github.com/crm/backend/internal/infrastructure/config"
)

// maxResponseSize bounds portal API response bodies (1MB)
const maxResponseSize = 1 * 1024 * 1024

// HTTPProvisioner implements the portal provisioner port against the client
// portal's account API.
type HTTPProvisioner struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPProvisioner creates a provisioner for the configured portal.
func NewHTTPProvisioner(cfg config.PortalConfig) *HTTPProvisioner {
	return &HTTPProvisioner{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

type provisionRequest struct {
	TenantID  string `json:"tenant_id"`
	ContactID string `json:"contact_id"`
	Email     string `json:"email"`
}

type provisionResponse struct {
	AccountID string `json:"account_id"`
}

// Provision creates a pending portal account for the contact and returns its
// identifier.
func (p *HTTPProvisioner) Provision(ctx context.Context, tenantID, contactID uuid.UUID, email string) (uuid.UUID, error) {
	payload, err := json.Marshal(provisionRequest{
		TenantID:  tenantID.String(),
		ContactID: contactID.String(),
		Email:     email,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("portal: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/accounts", bytes.NewReader(payload))
	if err != nil {
		return uuid.Nil, fmt.Errorf("portal: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	body, err := p.do(req)
	if err != nil {
		return uuid.Nil, err
	}

	var created provisionResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return uuid.Nil, fmt.Errorf("portal: failed to decode response: %w", err)
	}

	accountID, err := uuid.Parse(created.AccountID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("portal: invalid account id %q: %w", created.AccountID, err)
	}
	return accountID, nil
}

// Deactivate disables the portal account. Deactivating an already disabled
// account is treated as success on the portal side.
func (p *HTTPProvisioner) Deactivate(ctx context.Context, tenantID, portalAccountID uuid.UUID) error {
	endpoint := fmt.Sprintf("%s/api/accounts/%s?tenant_id=%s", p.baseURL, portalAccountID, tenantID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("portal: failed to create request: %w", err)
	}
	p.authorize(req)

	_, err = p.do(req)
	return err
}

func (p *HTTPProvisioner) authorize(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

func (p *HTTPProvisioner) do(req *http.Request) ([]byte, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("portal: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("portal: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("portal: HTTP %d", resp.StatusCode)
	}

	return body, nil
}

var _ client.PortalProvisioner = (*HTTPProvisioner)(nil)
