package test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	assethandler "foundry/internal/asset/handler"
	assetservice "foundry/internal/asset/service"
	assetstore "foundry/internal/asset/store"
	"foundry/internal/blueprint"
	factoryhandler "foundry/internal/factory/handler"
	factoryservice "foundry/internal/factory/service"
	factorystore "foundry/internal/factory/store"
	httpapi "foundry/internal/http"
	platformmetrics "foundry/internal/platform/metrics"
	registryhandler "foundry/internal/registry/handler"
	registryservice "foundry/internal/registry/service"
	registrystore "foundry/internal/registry/store"
	"foundry/internal/token"
	tokenhandler "foundry/internal/token/handler"
	"foundry/internal/vesting"
	vestinghandler "foundry/internal/vesting/handler"
	vestingservice "foundry/internal/vesting/service"
	vestingstore "foundry/internal/vesting/store"
	id "foundry/pkg/domain"
	"foundry/pkg/testutil"
)

const adminToken = "test-admin-token"

// newRouter wires the full service on in-memory stores, the way main does.
func newRouter(t *testing.T) (http.Handler, factoryservice.Accounts) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ledger, err := assetservice.New(assetstore.NewInMemoryLedgerStore(), assetservice.WithLogger(logger))
	require.NoError(t, err)

	vestingSvc, err := vestingservice.New(vestingstore.NewInMemoryStore(), ledger, vestingservice.WithLogger(logger))
	require.NoError(t, err)

	host := blueprint.NewHost()
	require.NoError(t, host.Register(blueprint.KindVesting, vesting.NewBlueprintFactory(vestingSvc)))

	registrySvc, err := registryservice.New(registrystore.NewInMemoryStore(), host, registryservice.WithLogger(logger))
	require.NoError(t, err)

	accounts := factoryservice.Accounts{
		FeeToken: id.NewTokenID(),
		Escrow:   id.NewAccountID(),
		Admin:    id.NewAccountID(),
	}
	factorySvc, err := factoryservice.New(factorystore.NewInMemoryStore(), registrySvc, host, ledger, accounts,
		factoryservice.WithLogger(logger))
	require.NoError(t, err)

	tokenSvc, err := token.NewService("test-signing-key", "foundry-test", "foundry-api", time.Hour,
		token.WithLogger(logger))
	require.NoError(t, err)

	return httpapi.New(httpapi.Deps{
		Logger:     logger,
		Metrics:    platformmetrics.NewHTTP(),
		Validator:  token.NewValidatorAdapter(tokenSvc),
		AdminToken: adminToken,
		Registry:   registryhandler.New(registrySvc, logger),
		Factory:    factoryhandler.New(factorySvc, logger),
		Vesting:    vestinghandler.New(vestingSvc, logger),
		Assets:     assethandler.New(ledger, logger),
		Tokens:     tokenhandler.New(tokenSvc, logger),
	}), accounts
}

func adminRequest(t *testing.T, method, path string, body any) *http.Request {
	req := testutil.NewJSONRequest(t, method, path, body)
	req.Header.Set("X-Admin-Token", adminToken)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

// TestRouterEndToEnd walks the whole deploy path over HTTP: operator
// registers a blueprint, issues a caller token, funds the caller; the
// caller deploys and reads back balances and records.
func TestRouterEndToEnd(t *testing.T) {
	router, accounts := newRouter(t)
	feeToken := accounts.FeeToken.String()
	deployer := id.NewAccountID()

	var bearer string
	var blueprintID = id.NewBlueprintID().String()
	var instanceID string

	testutil.Given(t, "a running router", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/readyz"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	testutil.When(t, "the admin surface is called without the operator token", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/admin/blueprints", map[string]any{})
		rec := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	testutil.When(t, "the operator registers a blueprint and provisions the deployer", func(t *testing.T) {
		rec := testutil.DoRequest(router, adminRequest(t, http.MethodPost, "/v1/admin/blueprints", map[string]any{
			"id":     blueprintID,
			"kind":   "vesting",
			"fee":    100,
			"active": true,
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Equal(t, true, decode(t, rec)["active"])

		rec = testutil.DoRequest(router, adminRequest(t, http.MethodPost, "/v1/admin/tokens", map[string]any{
			"account": deployer.String(),
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		bearer = decode(t, rec)["token"].(string)
		require.NotEmpty(t, bearer)

		rec = testutil.DoRequest(router, adminRequest(t, http.MethodPost, "/v1/admin/assets/"+feeToken+"/mint", map[string]any{
			"account": deployer.String(),
			"amount":  1000,
		}))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	})

	testutil.When(t, "the deployer deploys the blueprint", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/v1/deployments", map[string]any{
			"blueprint_id": blueprintID,
			"paid_amount":  300,
			"init": map[string]any{
				"kind": "vesting",
				"spec": map[string]any{
					"token":            feeToken,
					"cooldown_seconds": 0,
					"min_claim_amount": 0,
				},
			},
		})
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec := testutil.DoRequest(router, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode(t, rec)
		instanceID = resp["instance_id"].(string)
		require.NotEmpty(t, instanceID)
		require.EqualValues(t, 100, resp["fee_paid"])
		require.EqualValues(t, 1, resp["seq"])
	})

	testutil.Then(t, "the ledger and the record reflect the deployment", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/v1/assets/"+feeToken+"/balance")
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec := testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.EqualValues(t, 900, decode(t, rec)["balance"])

		req = testutil.NewRequest(t, http.MethodGet, "/v1/deployments")
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec = testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rec.Code)
		deployments := decode(t, rec)["deployments"].([]any)
		require.Len(t, deployments, 1)

		req = testutil.NewRequest(t, http.MethodGet, "/v1/instances/"+instanceID)
		req.Header.Set("Authorization", "Bearer "+bearer)
		rec = testutil.DoRequest(router, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, deployer.String(), decode(t, rec)["deployer"])
	})

	testutil.Then(t, "unauthenticated reads are rejected", func(t *testing.T) {
		rec := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/v1/deployments"))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
