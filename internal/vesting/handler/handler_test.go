package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	assetservice "foundry/internal/asset/service"
	assetstore "foundry/internal/asset/store"
	"foundry/internal/vesting"
	"foundry/internal/vesting/service"
	"foundry/internal/vesting/store"
	id "foundry/pkg/domain"
	"foundry/pkg/requestcontext"
	"foundry/pkg/testutil"
)

type VestingHandlerSuite struct {
	suite.Suite
	router http.Handler

	// caller and now are injected per request by the test middleware, so
	// each call can impersonate a different account at a different time.
	caller id.AccountID
	now    time.Time

	service     *service.Service
	ledger      *assetservice.Service
	base        time.Time
	token       id.TokenID
	owner       id.AccountID
	instance    id.InstanceID
	beneficiary id.AccountID
}

func TestVestingHandlerSuite(t *testing.T) {
	suite.Run(t, new(VestingHandlerSuite))
}

func (s *VestingHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	ledger, err := assetservice.New(assetstore.NewInMemoryLedgerStore(), assetservice.WithLogger(logger))
	s.Require().NoError(err)
	s.ledger = ledger

	svc, err := service.New(store.NewInMemoryStore(), ledger, service.WithLogger(logger))
	s.Require().NoError(err)
	s.service = svc

	s.base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = s.base
	s.token = id.NewTokenID()
	s.owner = id.NewAccountID()
	s.instance = id.NewInstanceID()
	s.beneficiary = id.NewAccountID()
	s.caller = s.owner

	s.Require().NoError(svc.Initialize(requestcontext.WithTime(ctx, s.base), s.instance, s.owner, vesting.InitData{
		Token:    s.token,
		Cooldown: time.Hour,
		MinClaim: 10,
	}))
	s.Require().NoError(ledger.Mint(ctx, s.token, s.instance.Account(), 1000))

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqCtx := requestcontext.WithCallerID(req.Context(), s.caller)
			reqCtx = requestcontext.WithTime(reqCtx, s.now)
			next.ServeHTTP(w, req.WithContext(reqCtx))
		})
	})
	h.Register(r)
	s.router = r
}

func (s *VestingHandlerSuite) startBody() map[string]any {
	return map[string]any{
		"beneficiaries":    []string{s.beneficiary.String()},
		"total_amounts":    []int64{1000},
		"start_times":      []int64{s.base.Unix()},
		"cliff_seconds":    []int64{100},
		"duration_seconds": []int64{1000},
	}
}

func (s *VestingHandlerSuite) start() ConfigResponse {
	s.T().Helper()
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/start", s.startBody())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp ConfigResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func (s *VestingHandlerSuite) TestStartVesting() {
	s.Run("seeds the batch", func() {
		resp := s.start()
		s.Equal(s.instance.String(), resp.InstanceID)
		s.Equal(s.owner.String(), resp.Owner)
		s.Equal("vesting_started", resp.State)
		s.Require().NotNil(resp.StartedAt)
		s.Equal(s.base.Unix(), *resp.StartedAt)
	})

	s.Run("second start is a conflict", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/start", s.startBody())
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *VestingHandlerSuite) TestStartVestingRejectsBadBatches() {
	s.Run("mismatched array lengths", func() {
		body := s.startBody()
		body["total_amounts"] = []int64{1000, 500}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/start", body)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed beneficiary id", func() {
		body := s.startBody()
		body["beneficiaries"] = []string{"not-a-uuid"}
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/start", body)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non-owner is forbidden", func() {
		s.caller = id.NewAccountID()
		defer func() { s.caller = s.owner }()

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/start", s.startBody())
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	// None of the rejected batches flipped the latch.
	amount, err := s.service.ClaimableAmount(context.Background(), s.instance, s.beneficiary)
	s.Require().NoError(err)
	s.Zero(amount)
}

func (s *VestingHandlerSuite) claimable(beneficiary string) ClaimableResponse {
	s.T().Helper()
	path := "/instances/" + s.instance.String() + "/vesting/claimable"
	if beneficiary != "" {
		path += "?beneficiary=" + beneficiary
	}
	req := testutil.NewRequest(s.T(), http.MethodGet, path)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var resp ClaimableResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func (s *VestingHandlerSuite) TestClaimable() {
	s.start()

	s.Run("defaults to the caller", func() {
		s.caller = s.beneficiary
		defer func() { s.caller = s.owner }()

		s.now = s.base.Add(600 * time.Second)
		resp := s.claimable("")
		s.Equal(s.beneficiary.String(), resp.Beneficiary)
		s.Equal(int64(500), resp.Claimable)
	})

	s.Run("explicit beneficiary parameter", func() {
		s.now = s.base.Add(600 * time.Second)
		resp := s.claimable(s.beneficiary.String())
		s.Equal(int64(500), resp.Claimable)
	})

	s.Run("unknown beneficiary reads as zero", func() {
		resp := s.claimable(id.NewAccountID().String())
		s.Zero(resp.Claimable)
	})
}

func (s *VestingHandlerSuite) TestClaim() {
	s.start()
	s.caller = s.beneficiary

	s.Run("pays out the claimable amount", func() {
		s.now = s.base.Add(600 * time.Second)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/claim", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var resp ClaimResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(int64(500), resp.Amount)

		balance, err := s.ledger.Balance(context.Background(), s.token, s.beneficiary)
		s.Require().NoError(err)
		s.Equal(int64(500), balance)
	})

	s.Run("cooldown blocks the next claim", func() {
		s.now = s.base.Add(700 * time.Second)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/claim", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("non-beneficiary is not found", func() {
		s.caller = id.NewAccountID()
		defer func() { s.caller = s.beneficiary }()

		s.now = s.base.Add(600 * time.Second)
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/instances/"+s.instance.String()+"/vesting/claim", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *VestingHandlerSuite) TestSetParameters() {
	s.Run("owner retunes the gate", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/instances/"+s.instance.String()+"/vesting/parameters", map[string]any{
			"cooldown_seconds": 60,
			"min_claim_amount": 5,
		})
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
		var resp ConfigResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(int64(60), resp.CooldownSeconds)
		s.Equal(int64(5), resp.MinClaimAmount)
	})

	s.Run("negative cooldown is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/instances/"+s.instance.String()+"/vesting/parameters", map[string]any{
			"cooldown_seconds": -1,
		})
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non-owner is forbidden", func() {
		s.caller = id.NewAccountID()
		defer func() { s.caller = s.owner }()

		req := testutil.NewJSONRequest(s.T(), http.MethodPut, "/instances/"+s.instance.String()+"/vesting/parameters", map[string]any{
			"cooldown_seconds": 60,
		})
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusForbidden, rec.Code)
	})
}
