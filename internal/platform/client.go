// Package platform is the client for the upstream delivery-platform API,
// the source of rider status and location data.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/domain/rider"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type locationsResponse struct {
	Locations []wireLocation `json:"locations"`
}

type wireLocation struct {
	RiderID    string  `json:"rider_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Status     string  `json:"status"`
	RecordedAt string  `json:"recorded_at"`
}

// FetchRiderLocations returns the current rider positions for one tenant's
// city as reported by the platform.
func (c *Client) FetchRiderLocations(ctx context.Context, externalTenantID string, cityID int64) ([]rider.Location, error) {
	endpoint := fmt.Sprintf("%s/v2/tenants/%s/cities/%d/rider-locations",
		c.baseURL, url.PathEscape(externalTenantID), cityID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("platform locations fetch failed: %d", resp.StatusCode)
	}

	var body locationsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	out := make([]rider.Location, 0, len(body.Locations))
	for _, loc := range body.Locations {
		recordedAt, err := time.Parse(time.RFC3339, loc.RecordedAt)
		if err != nil {
			recordedAt = time.Now().UTC()
		}
		out = append(out, rider.Location{
			RiderID:    loc.RiderID,
			CityID:     cityID,
			Latitude:   loc.Latitude,
			Longitude:  loc.Longitude,
			Status:     loc.Status,
			RecordedAt: recordedAt,
		})
	}
	return out, nil
}
