package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crm/backend/internal/infrastructure/config"
)

func newProvisioner(serverURL string) *HTTPProvisioner {
	return NewHTTPProvisioner(config.PortalConfig{
		BaseURL:        serverURL,
		APIKey:         "test-key",
		RequestTimeout: 2 * time.Second,
	})
}

func TestHTTPProvisioner_Provision(t *testing.T) {
	tenantID := uuid.New()
	contactID := uuid.New()
	accountID := uuid.New()

	t.Run("should create an account and return its id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/accounts", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req provisionRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, contactID.String(), req.ContactID)
			assert.Equal(t, "anna.kowalska@example.com", req.Email)

			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(provisionResponse{AccountID: accountID.String()})
		}))
		defer server.Close()

		got, err := newProvisioner(server.URL).Provision(context.Background(), tenantID, contactID, "anna.kowalska@example.com")

		require.NoError(t, err)
		assert.Equal(t, accountID, got)
	})

	t.Run("should fail on portal error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer server.Close()

		_, err := newProvisioner(server.URL).Provision(context.Background(), tenantID, contactID, "anna.kowalska@example.com")

		assert.ErrorContains(t, err, "HTTP 409")
	})

	t.Run("should fail on malformed account id", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"account_id":"not-a-uuid"}`)
		}))
		defer server.Close()

		_, err := newProvisioner(server.URL).Provision(context.Background(), tenantID, contactID, "anna.kowalska@example.com")

		assert.ErrorContains(t, err, "invalid account id")
	})
}

func TestHTTPProvisioner_Deactivate(t *testing.T) {
	tenantID := uuid.New()
	accountID := uuid.New()

	t.Run("should delete the account", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/accounts/"+accountID.String(), r.URL.Path)
			assert.Equal(t, tenantID.String(), r.URL.Query().Get("tenant_id"))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		err := newProvisioner(server.URL).Deactivate(context.Background(), tenantID, accountID)

		require.NoError(t, err)
	})

	t.Run("should fail when the portal is unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		err := newProvisioner(server.URL).Deactivate(context.Background(), tenantID, accountID)

		assert.Error(t, err)
	})
}
