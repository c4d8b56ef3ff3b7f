package directory

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "schoolbus/pkg/domain"
)

func TestHTTPClient(t *testing.T) {
	ctx := context.Background()
	periodID := id.PeriodID(uuid.New())

	t.Run("decodes a period", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v1/periods/"+periodID.String(), r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"` + periodID.String() + `","name":"2026 Fall","active":true}`))
		}))
		defer srv.Close()

		period, err := NewHTTPClient(srv.URL).GetPeriod(ctx, periodID)
		require.NoError(t, err)
		assert.Equal(t, periodID, period.ID)
		assert.Equal(t, "2026 Fall", period.Name)
		assert.True(t, period.Active)
	})

	t.Run("404 maps to the sentinel", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL).GetPeriod(ctx, periodID)
		require.ErrorIs(t, err, ErrPeriodNotFound)

		_, err = NewHTTPClient(srv.URL).GetDistrict(ctx, id.DistrictID(uuid.New()))
		require.ErrorIs(t, err, ErrDistrictNotFound)
	})

	t.Run("5xx is a transport error, not absence", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL).GetPeriod(ctx, periodID)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPeriodNotFound)
	})

	t.Run("malformed id in the response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"not-a-uuid","name":"x","active":true}`))
		}))
		defer srv.Close()

		_, err := NewHTTPClient(srv.URL).GetPeriod(ctx, periodID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bad period id")
	})
}

// stubClient returns canned answers for the existence checker tests.
type stubClient struct {
	period      *Period
	district    *District
	periodErr   error
	districtErr error
}

func (s *stubClient) GetPeriod(context.Context, id.PeriodID) (*Period, error) {
	return s.period, s.periodErr
}

func (s *stubClient) GetDistrict(context.Context, id.DistrictID) (*District, error) {
	return s.district, s.districtErr
}

func TestExistenceChecker(t *testing.T) {
	ctx := context.Background()

	t.Run("known period exists", func(t *testing.T) {
		checker := NewExistenceChecker(&stubClient{period: &Period{Active: true}})
		ok, err := checker.PeriodExists(ctx, id.PeriodID(uuid.New()))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("absence is a clean false", func(t *testing.T) {
		checker := NewExistenceChecker(&stubClient{periodErr: ErrPeriodNotFound, districtErr: ErrDistrictNotFound})

		ok, err := checker.PeriodExists(ctx, id.PeriodID(uuid.New()))
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = checker.DistrictExists(ctx, id.DistrictID(uuid.New()))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		boom := errors.New("connection refused")
		checker := NewExistenceChecker(&stubClient{periodErr: boom})

		_, err := checker.PeriodExists(ctx, id.PeriodID(uuid.New()))
		require.ErrorIs(t, err, boom)
	})
}
