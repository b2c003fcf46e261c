package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crm/backend/internal/domain/timeline"
	"github.com/crm/backend/internal/infrastructure/config"
)

// maxResponseSize bounds formatter response bodies (1MB)
const maxResponseSize = 1 * 1024 * 1024

// HTTPExporter implements the timeline exporter port against the document
// formatter service. The formatter renders the event set and stores the
// document; the returned link expires after the configured handle TTL.
type HTTPExporter struct {
	formatterURL string
	handleTTL    time.Duration
	httpClient   *http.Client
	now          func() time.Time
}

// NewHTTPExporter creates an exporter for the configured formatter service.
func NewHTTPExporter(cfg config.ExportConfig) *HTTPExporter {
	return &HTTPExporter{
		formatterURL: strings.TrimRight(cfg.FormatterURL, "/"),
		handleTTL:    cfg.HandleTTL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		now: time.Now,
	}
}

type exportEvent struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Category    string         `json:"category"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	OccurredAt  *time.Time     `json:"occurred_at,omitempty"`
}

type exportRequest struct {
	TenantID string        `json:"tenant_id"`
	ClientID string        `json:"client_id"`
	Format   string        `json:"format"`
	Events   []exportEvent `json:"events"`
}

type exportResponse struct {
	URL string `json:"url"`
}

// Export renders the events into a document and returns a time-limited
// download handle.
func (e *HTTPExporter) Export(ctx context.Context, tenantID, clientID uuid.UUID, events []timeline.TimelineEvent, format string) (*timeline.ExportHandle, error) {
	body := exportRequest{
		TenantID: tenantID.String(),
		ClientID: clientID.String(),
		Format:   format,
		Events:   make([]exportEvent, 0, len(events)),
	}
	for _, event := range events {
		body.Events = append(body.Events, exportEvent{
			ID:          event.ID.String(),
			Type:        string(event.Type),
			Category:    string(event.Category),
			Title:       event.Title,
			Description: event.Description,
			Metadata:    event.Metadata,
			Tags:        event.Tags,
			CreatedAt:   event.CreatedAt,
			OccurredAt:  event.OccurredAt,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("export: failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.formatterURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("export: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("export: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("export: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("export: HTTP %d", resp.StatusCode)
	}

	var rendered exportResponse
	if err := json.Unmarshal(raw, &rendered); err != nil {
		return nil, fmt.Errorf("export: failed to decode response: %w", err)
	}

	return &timeline.ExportHandle{
		URL:       rendered.URL,
		Format:    format,
		ExpiresAt: e.now().Add(e.handleTTL),
	}, nil
}

var _ timeline.Exporter = (*HTTPExporter)(nil)
