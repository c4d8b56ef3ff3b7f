// Package directory is the boundary adapter for the external read-only
// reference directory (periods, districts). The engine only ever asks it
// lookup-by-id questions.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	id "schoolbus/pkg/domain"
)

// Period is a school attendance period as the directory reports it.
type Period struct {
	ID     id.PeriodID
	Name   string
	Active bool
}

// District is a school district as the directory reports it.
type District struct {
	ID   id.DistrictID
	Name string
}

// Client resolves reference data. Implementations must return
// ErrPeriodNotFound / ErrDistrictNotFound rather than a nil result.
type Client interface {
	GetPeriod(ctx context.Context, periodID id.PeriodID) (*Period, error)
	GetDistrict(ctx context.Context, districtID id.DistrictID) (*District, error)
}

// ErrPeriodNotFound and ErrDistrictNotFound are returned for unknown ids so
// callers can distinguish absence from transport failure.
var (
	ErrPeriodNotFound   = fmt.Errorf("directory: period not found")
	ErrDistrictNotFound = fmt.Errorf("directory: district not found")
)

// HTTPClient talks to the directory service over its JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) GetPeriod(ctx context.Context, periodID id.PeriodID) (*Period, error) {
	var payload struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}
	if err := c.get(ctx, "/api/v1/periods/"+periodID.String(), &payload, ErrPeriodNotFound); err != nil {
		return nil, err
	}
	parsed, err := id.ParsePeriodID(payload.ID)
	if err != nil {
		return nil, fmt.Errorf("directory: bad period id in response: %w", err)
	}
	return &Period{ID: parsed, Name: payload.Name, Active: payload.Active}, nil
}

func (c *HTTPClient) GetDistrict(ctx context.Context, districtID id.DistrictID) (*District, error) {
	var payload struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := c.get(ctx, "/api/v1/districts/"+districtID.String(), &payload, ErrDistrictNotFound); err != nil {
		return nil, err
	}
	parsed, err := id.ParseDistrictID(payload.ID)
	if err != nil {
		return nil, fmt.Errorf("directory: bad district id in response: %w", err)
	}
	return &District{ID: parsed, Name: payload.Name}, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any, notFound error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("directory: build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return notFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("directory: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("directory: decode response: %w", err)
	}
	return nil
}
