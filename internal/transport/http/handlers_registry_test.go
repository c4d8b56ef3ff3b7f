package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"schoolbus/internal/audit"
	"schoolbus/internal/platform/storetx"
	"schoolbus/internal/registry"
	id "schoolbus/pkg/domain"
)

// zeroCounter satisfies registry.ActiveAssignmentCounter for routes that
// never touch assignments.
type zeroCounter struct{}

func (zeroCounter) CountActiveForBus(context.Context, id.BusID) (int, error) { return 0, nil }

type RegistryHandlerSuite struct {
	suite.Suite
	students *registry.InMemoryStudentStore
	buses    *registry.InMemoryBusStore
	server   *httptest.Server
}

func TestRegistryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryHandlerSuite))
}

func (s *RegistryHandlerSuite) SetupTest() {
	s.students = registry.NewInMemoryStudentStore()
	s.buses = registry.NewInMemoryBusStore()
	trail := audit.NewInMemoryStore()
	runner := storetx.NewMemory(s.students, s.buses, trail)
	publisher := audit.NewPublisher(trail)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := NewRouter(RouterConfig{
		Logger: logger,
		Handlers: []Registrar{
			NewRegistryHandler(
				registry.NewStudentService(s.students, publisher, runner),
				registry.NewBusService(s.buses, zeroCounter{}, publisher, runner),
				logger,
			),
		},
	})
	s.server = httptest.NewServer(router)
}

func (s *RegistryHandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *RegistryHandlerSuite) do(method, path string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *RegistryHandlerSuite) decodeBody(resp *http.Response, into any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(into))
}

func (s *RegistryHandlerSuite) TestStudentRoutes() {
	districtID := uuid.NewString()

	s.Run("approve then fetch", func() {
		resp := s.do(http.MethodPost, "/students", map[string]string{
			"external_student_id": "ext-1001",
			"district_id":         districtID,
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		var created studentResponse
		s.decodeBody(resp, &created)
		s.Equal("ext-1001", created.ExternalStudentID)
		s.Equal("active", created.Status)

		resp = s.do(http.MethodGet, "/students/"+created.ID, nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var fetched studentResponse
		s.decodeBody(resp, &fetched)
		s.Equal(created.ID, fetched.ID)
	})

	s.Run("malformed district id is a 400", func() {
		resp := s.do(http.MethodPost, "/students", map[string]string{
			"external_student_id": "ext-1002",
			"district_id":         "not-a-uuid",
		})
		defer resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("duplicate external id is a 409", func() {
		first := s.do(http.MethodPost, "/students", map[string]string{
			"external_student_id": "ext-1003",
			"district_id":         districtID,
		})
		first.Body.Close()
		s.Require().Equal(http.StatusCreated, first.StatusCode)

		resp := s.do(http.MethodPost, "/students", map[string]string{
			"external_student_id": "ext-1003",
			"district_id":         districtID,
		})
		defer resp.Body.Close()
		s.Equal(http.StatusConflict, resp.StatusCode)
	})

	s.Run("unknown student is a 404", func() {
		resp := s.do(http.MethodGet, "/students/"+uuid.NewString(), nil)
		defer resp.Body.Close()
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("deactivate hides the student", func() {
		created := s.do(http.MethodPost, "/students", map[string]string{
			"external_student_id": "ext-1004",
			"district_id":         districtID,
		})
		var student studentResponse
		s.decodeBody(created, &student)

		resp := s.do(http.MethodDelete, "/students/"+student.ID, nil)
		resp.Body.Close()
		s.Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.do(http.MethodGet, "/students/"+student.ID, nil)
		defer resp.Body.Close()
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}

func (s *RegistryHandlerSuite) TestBusRoutes() {
	seed := func(capacity int) *registry.Bus {
		now := time.Now()
		bus := &registry.Bus{
			ID:        id.BusID(uuid.New()),
			Code:      "BUS-" + uuid.NewString()[:8],
			Capacity:  capacity,
			Active:    true,
			Lifecycle: registry.LifecycleActive,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.Require().NoError(s.buses.Create(context.Background(), bus))
		return bus
	}

	s.Run("fetch and reduce capacity", func() {
		bus := seed(40)

		resp := s.do(http.MethodPatch, "/buses/"+bus.ID.String()+"/capacity", map[string]int{
			"capacity": 30,
		})
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		var updated busResponse
		s.decodeBody(resp, &updated)
		s.Equal(30, updated.Capacity)
	})

	s.Run("non-positive capacity is a 400", func() {
		bus := seed(40)
		resp := s.do(http.MethodPatch, "/buses/"+bus.ID.String()+"/capacity", map[string]int{
			"capacity": 0,
		})
		defer resp.Body.Close()
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("deactivate then delete", func() {
		bus := seed(40)

		resp := s.do(http.MethodPost, "/buses/"+bus.ID.String()+"/deactivate", nil)
		s.Require().Equal(http.StatusOK, resp.StatusCode)
		var deactivated busResponse
		s.decodeBody(resp, &deactivated)
		s.False(deactivated.Active)

		resp = s.do(http.MethodDelete, "/buses/"+bus.ID.String(), nil)
		resp.Body.Close()
		s.Equal(http.StatusNoContent, resp.StatusCode)

		resp = s.do(http.MethodGet, "/buses/"+bus.ID.String(), nil)
		defer resp.Body.Close()
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}

func (s *RegistryHandlerSuite) TestRouterPlumbing() {
	s.Run("health endpoint is open", func() {
		resp := s.do(http.MethodGet, "/healthz", nil)
		defer resp.Body.Close()
		s.Equal(http.StatusOK, resp.StatusCode)
	})

	s.Run("request id surfaces in the response", func() {
		resp := s.do(http.MethodGet, "/healthz", nil)
		defer resp.Body.Close()
		s.NotEmpty(resp.Header.Get("X-Request-ID"))
	})
}
