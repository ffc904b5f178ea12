package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"foundry/internal/blueprint"
	"foundry/internal/registry/service"
	"foundry/internal/registry/store"
	id "foundry/pkg/domain"
)

type nopInstance struct{}

func (nopInstance) Initialize(ctx context.Context, instanceID id.InstanceID, deployer id.AccountID, payload blueprint.Payload) error {
	return nil
}

type HandlerSuite struct {
	suite.Suite
	router http.Handler
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	host := blueprint.NewHost()
	s.Require().NoError(host.Register(blueprint.KindVesting, func() blueprint.Instance { return nopInstance{} }))

	svc, err := service.New(store.NewInMemoryStore(), host, service.WithLogger(logger))
	s.Require().NoError(err)

	h := New(svc, logger)
	r := chi.NewRouter()
	h.RegisterAdmin(r)
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) registerBody(blueprintID, kind string, fee int64, active bool) *bytes.Buffer {
	body, err := json.Marshal(map[string]any{
		"id":     blueprintID,
		"kind":   kind,
		"fee":    fee,
		"active": active,
	})
	s.Require().NoError(err)
	return bytes.NewBuffer(body)
}

func (s *HandlerSuite) register(blueprintID id.BlueprintID, fee int64, active bool) EntryResponse {
	req := httptest.NewRequest(http.MethodPost, "/blueprints",
		s.registerBody(blueprintID.String(), "vesting", fee, active))
	rec := httptest.NewRecorder()

	s.router.ServeHTTP(rec, req)

	s.Require().Equal(http.StatusCreated, rec.Code)
	var resp EntryResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func (s *HandlerSuite) TestRegister() {
	s.Run("registers a blueprint", func() {
		blueprintID := id.NewBlueprintID()
		resp := s.register(blueprintID, 100, true)

		s.Equal(blueprintID.String(), resp.ID)
		s.Equal("vesting", resp.Kind)
		s.Equal(int64(100), resp.Fee)
		s.True(resp.Active)
		s.True(resp.Registered)
		s.NotNil(resp.RegisteredAt)
	})

	s.Run("rejects an unknown kind", func() {
		req := httptest.NewRequest(http.MethodPost, "/blueprints",
			s.registerBody(id.NewBlueprintID().String(), "escrow", 100, true))
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
		var body map[string]string
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
		s.Equal("validation", body["error"])
	})

	s.Run("rejects malformed json", func() {
		req := httptest.NewRequest(http.MethodPost, "/blueprints", bytes.NewBufferString("{not json"))
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("rejects a negative fee", func() {
		req := httptest.NewRequest(http.MethodPost, "/blueprints",
			s.registerBody(id.NewBlueprintID().String(), "vesting", -1, true))
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestUpdateFee() {
	s.Run("updates the fee", func() {
		blueprintID := id.NewBlueprintID()
		s.register(blueprintID, 100, true)

		body, err := json.Marshal(map[string]any{"fee": 250})
		s.Require().NoError(err)
		req := httptest.NewRequest(http.MethodPut,
			fmt.Sprintf("/blueprints/%s/fee", blueprintID), bytes.NewBuffer(body))
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code)
		var resp EntryResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(int64(250), resp.Fee)
	})

	s.Run("unregistered blueprint returns not found", func() {
		body, err := json.Marshal(map[string]any{"fee": 250})
		s.Require().NoError(err)
		req := httptest.NewRequest(http.MethodPut,
			fmt.Sprintf("/blueprints/%s/fee", id.NewBlueprintID()), bytes.NewBuffer(body))
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestActivation() {
	s.Run("deactivates and reactivates", func() {
		blueprintID := id.NewBlueprintID()
		s.register(blueprintID, 100, true)

		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/blueprints/%s/deactivate", blueprintID), nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code)
		var resp EntryResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.False(resp.Active)
		s.Equal(int64(100), resp.Fee)

		req = httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/blueprints/%s/activate", blueprintID), nil)
		rec = httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code)
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.True(resp.Active)
	})

	s.Run("unregistered blueprint returns not found", func() {
		req := httptest.NewRequest(http.MethodPost,
			fmt.Sprintf("/blueprints/%s/activate", id.NewBlueprintID()), nil)
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestLookup() {
	s.Run("returns the registered entry", func() {
		blueprintID := id.NewBlueprintID()
		s.register(blueprintID, 100, true)

		req := httptest.NewRequest(http.MethodGet, "/blueprints/"+blueprintID.String(), nil)
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code)
		var resp EntryResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.True(resp.Registered)
		s.Equal(int64(100), resp.Fee)
	})

	s.Run("unknown id returns registered=false, not an error", func() {
		blueprintID := id.NewBlueprintID()
		req := httptest.NewRequest(http.MethodGet, "/blueprints/"+blueprintID.String(), nil)
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusOK, rec.Code)
		var resp EntryResponse
		s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
		s.Equal(blueprintID.String(), resp.ID)
		s.False(resp.Registered)
		s.Nil(resp.RegisteredAt)
	})

	s.Run("rejects an invalid id in the path", func() {
		req := httptest.NewRequest(http.MethodGet, "/blueprints/not-a-uuid", nil)
		rec := httptest.NewRecorder()

		s.router.ServeHTTP(rec, req)

		s.Equal(http.StatusBadRequest, rec.Code)
	})
}
