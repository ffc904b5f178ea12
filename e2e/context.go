// Package e2e drives a running foundry instance end to end over HTTP. The
// suite needs a live server; point FOUNDRY_E2E_BASE_URL at it and make sure
// FOUNDRY_E2E_FEE_TOKEN matches the server's FOUNDRY_FEE_TOKEN so minted
// balances are in the currency deployments pay in.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// TestContext holds the HTTP client and the state scenarios accumulate:
// named accounts with their bearer tokens, the blueprint under test, and
// the last deployed instance.
type TestContext struct {
	baseURL    string
	adminToken string
	feeToken   string
	client     *http.Client

	status int
	body   map[string]any

	accounts    map[string]string
	bearers     map[string]string
	blueprintID string
	instanceID  string
}

// NewTestContext builds a context from the environment.
func NewTestContext() *TestContext {
	return &TestContext{
		baseURL:    envOr("FOUNDRY_E2E_BASE_URL", "http://localhost:8080"),
		adminToken: envOr("FOUNDRY_E2E_ADMIN_TOKEN", "dev-admin-token"),
		feeToken:   os.Getenv("FOUNDRY_E2E_FEE_TOKEN"),
		client:     &http.Client{Timeout: 10 * time.Second},
		accounts:   make(map[string]string),
		bearers:    make(map[string]string),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Reset clears all scenario state. Accounts are dropped too: each scenario
// gets fresh ledger balances, so holdings assertions never see a neighbor's
// funds.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.body = nil
	tc.blueprintID = ""
	tc.instanceID = ""
	tc.accounts = make(map[string]string)
	tc.bearers = make(map[string]string)
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, tc.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	tc.status = resp.StatusCode
	tc.body = nil
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var decoded map[string]any
	if err := dec.Decode(&decoded); err == nil {
		tc.body = decoded
	}
	return nil
}

func (tc *TestContext) bearerHeaders(account string) (map[string]string, error) {
	if account == "" {
		return nil, nil
	}
	token, ok := tc.bearers[account]
	if !ok {
		return nil, fmt.Errorf("no access token for account %q", account)
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// AdminPOST sends a POST with the operator token.
func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, map[string]string{"X-Admin-Token": tc.adminToken})
}

// POST sends a POST authenticated as the named account.
func (tc *TestContext) POST(path string, body any, account string) error {
	headers, err := tc.bearerHeaders(account)
	if err != nil {
		return err
	}
	return tc.do(http.MethodPost, path, body, headers)
}

// GET sends a GET authenticated as the named account.
func (tc *TestContext) GET(path, account string) error {
	headers, err := tc.bearerHeaders(account)
	if err != nil {
		return err
	}
	return tc.do(http.MethodGet, path, nil, headers)
}

// Status returns the last response status code.
func (tc *TestContext) Status() int {
	return tc.status
}

// GetResponseField reads a top-level field from the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.body == nil {
		return nil, fmt.Errorf("last response had no JSON body")
	}
	value, ok := tc.body[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response", field)
	}
	return value, nil
}

// EnsureAccount returns the named account's id, creating the account and
// minting an access token for it on first use.
func (tc *TestContext) EnsureAccount(name string) (string, error) {
	if account, ok := tc.accounts[name]; ok {
		return account, nil
	}
	account := uuid.NewString()

	if err := tc.AdminPOST("/v1/admin/tokens", map[string]any{"account": account}); err != nil {
		return "", err
	}
	if tc.status != http.StatusOK {
		return "", fmt.Errorf("token issuance for %q returned status %d", name, tc.status)
	}
	token, err := tc.GetResponseField("token")
	if err != nil {
		return "", err
	}

	tc.accounts[name] = account
	tc.bearers[name] = token.(string)
	return account, nil
}

// Account returns the named account's id.
func (tc *TestContext) Account(name string) (string, error) {
	account, ok := tc.accounts[name]
	if !ok {
		return "", fmt.Errorf("unknown account %q", name)
	}
	return account, nil
}

// FeeToken returns the platform fee token the server settles deployments in.
func (tc *TestContext) FeeToken() (string, error) {
	if tc.feeToken == "" {
		return "", fmt.Errorf("FOUNDRY_E2E_FEE_TOKEN is not set; it must match the server's FOUNDRY_FEE_TOKEN")
	}
	return tc.feeToken, nil
}

// NewID mints a fresh uuid for blueprint registration.
func (tc *TestContext) NewID() string {
	return uuid.NewString()
}

// SetBlueprintID records the blueprint under test.
func (tc *TestContext) SetBlueprintID(id string) { tc.blueprintID = id }

// BlueprintID returns the blueprint under test.
func (tc *TestContext) BlueprintID() string { return tc.blueprintID }

// SetInstanceID records the last deployed instance.
func (tc *TestContext) SetInstanceID(id string) { tc.instanceID = id }

// InstanceID returns the last deployed instance.
func (tc *TestContext) InstanceID() string { return tc.instanceID }
