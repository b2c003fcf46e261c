package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/crm/backend/internal/domain/verification"
	"github.com/crm/backend/internal/infrastructure/config"
)

// maxResponseSize bounds registry response bodies (1MB)
const maxResponseSize = 1 * 1024 * 1024

// VIESClient implements the VAT registry port against the EU VIES REST
// service.
type VIESClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewVIESClient creates a client for the configured VIES endpoint. The
// request timeout covers the whole round trip including body read.
func NewVIESClient(cfg config.VATConfig) *VIESClient {
	return &VIESClient{
		baseURL: strings.TrimRight(cfg.RegistryURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

type viesCheckRequest struct {
	CountryCode string `json:"countryCode"`
	VATNumber   string `json:"vatNumber"`
}

type viesCheckResponse struct {
	CountryCode       string `json:"countryCode"`
	VATNumber         string `json:"vatNumber"`
	Valid             bool   `json:"valid"`
	Name              string `json:"name"`
	Address           string `json:"address"`
	RequestIdentifier string `json:"requestIdentifier"`
	RequestDate       string `json:"requestDate"`
}

// CheckVAT queries the registry for the given country code and local number.
// A negative lookup is a Valid=false result, not an error; errors indicate
// transport or service failures.
func (c *VIESClient) CheckVAT(ctx context.Context, countryCode, vatNumber string) (*verification.RegistryResult, error) {
	payload, err := json.Marshal(viesCheckRequest{
		CountryCode: countryCode,
		VATNumber:   vatNumber,
	})
	if err != nil {
		return nil, fmt.Errorf("vies: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check-vat-number", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("vies: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vies: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("vies: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("vies: HTTP %d", resp.StatusCode)
	}

	var checked viesCheckResponse
	if err := json.Unmarshal(body, &checked); err != nil {
		return nil, fmt.Errorf("vies: failed to decode response: %w", err)
	}

	return &verification.RegistryResult{
		Valid:     checked.Valid,
		Name:      sanitizeRegistryValue(checked.Name),
		Address:   sanitizeRegistryValue(checked.Address),
		RequestID: checked.RequestIdentifier,
		Raw:       string(body),
	}, nil
}

// sanitizeRegistryValue drops the placeholder VIES returns for undisclosed
// fields.
func sanitizeRegistryValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "---" {
		return ""
	}
	return v
}

var _ verification.VATRegistry = (*VIESClient)(nil)
