package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const defaultGeocodingURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Client resolves a coordinate to an administrative-area (barangay)
// label via the Mapbox reverse-geocoding API. Calls are throttled to one
// per two seconds; throttled calls return "" without touching the
// network.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewClient(token, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultGeocodingURL
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

type geocodingResponse struct {
	Features []struct {
		Text string `json:"text"`
	} `json:"features"`
}

// Barangay returns the administrative-area label for a coordinate, or ""
// when nothing matches or the call was throttled.
func (c *Client) Barangay(ctx context.Context, lat, lng float64) (string, error) {
	if !c.limiter.Allow() {
		logrus.Debug("geocoding: throttled, skipping lookup")
		return "", nil
	}

	// types=neighborhood,locality filters for barangay-level results
	reqURL := fmt.Sprintf("%s/%f,%f.json?types=neighborhood,locality&access_token=%s",
		c.baseURL, lng, lat, c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoding request failed: status %d", resp.StatusCode)
	}

	var body geocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Features) == 0 {
		return "", nil
	}
	return body.Features[0].Text, nil
}
