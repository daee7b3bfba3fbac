// Package integration provides end-to-end tests for the Kvitok HTTP API.
// They run against a live server and are skipped unless KVITOK_TEST_BASE_URL
// is set.
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig holds the configuration for integration tests.
type testConfig struct {
	BaseURL string
}

func getTestConfig(t *testing.T) testConfig {
	t.Helper()

	baseURL := os.Getenv("KVITOK_TEST_BASE_URL")
	if baseURL == "" {
		t.Skip("KVITOK_TEST_BASE_URL not set, skipping integration test")
	}
	return testConfig{BaseURL: baseURL}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func doJSON(t *testing.T, client *http.Client, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

// TestTicketLifecycle walks the complete flow: register, login, create a
// ticket, read it back and download the receipt.
func TestTicketLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cfg := getTestConfig(t)
	client := newHTTPClient()

	nickname := fmt.Sprintf("it-user-%d", rand.Int63())

	// Register
	resp := doJSON(t, client, http.MethodPost, cfg.BaseURL+"/api/v1/register", "", map[string]string{
		"name":     "Integration " + nickname,
		"nickname": nickname,
		"password": "integration-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Login
	resp = doJSON(t, client, http.MethodPost, cfg.BaseURL+"/api/v1/login", "", map[string]string{
		"nickname": nickname,
		"password": "integration-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokens))
	resp.Body.Close()
	require.NotEmpty(t, tokens.AccessToken)

	// Create a ticket
	resp = doJSON(t, client, http.MethodPost, cfg.BaseURL+"/api/v1/create_ticket", tokens.AccessToken, map[string]any{
		"products": []map[string]any{
			{"name": "test1", "price": "50.00", "quantity": "3.00"},
			{"name": "test2", "price": "50.00", "quantity": "2.00"},
		},
		"payment": map[string]any{"type": "cash", "amount": "250.00"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var ticket struct {
		ID    int64  `json:"id"`
		Total string `json:"total"`
		Rest  string `json:"rest"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ticket))
	resp.Body.Close()
	assert.Equal(t, "250.00", ticket.Total)
	assert.Equal(t, "0.00", ticket.Rest)

	// Read it back
	resp = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/api/v1/tickets/%d", cfg.BaseURL, ticket.ID), tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Download the receipt
	resp = doJSON(t, client, http.MethodGet, fmt.Sprintf("%s/api/v1/download_ticket/%d?max_symbols=30", cfg.BaseURL, ticket.ID), "", nil)
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	location := resp.Header.Get("Location")
	resp.Body.Close()
	require.NotEmpty(t, location)

	// The presigned link must serve the document.
	download, err := http.Get(location)
	require.NoError(t, err)
	defer download.Body.Close()
	assert.Equal(t, http.StatusOK, download.StatusCode)
}
