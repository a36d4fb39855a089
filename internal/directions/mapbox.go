package directions

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"commutewise/internal/geo"
)

const defaultDirectionsURL = "https://api.mapbox.com/directions/v5/mapbox"

// MapboxClient calls the Mapbox Directions API.
type MapboxClient struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewMapboxClient builds a directions client. baseURL may be empty to use
// the public Mapbox endpoint.
func NewMapboxClient(token, baseURL string) *MapboxClient {
	if baseURL == "" {
		baseURL = defaultDirectionsURL
	}
	return &MapboxClient{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type mapboxRoute struct {
	Geometry json.RawMessage `json:"geometry"`
	Distance float64         `json:"distance"`
	Duration float64         `json:"duration"`
}

type mapboxDirectionsResponse struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Routes  []mapboxRoute `json:"routes"`
}

// Route requests a path through the ordered waypoints. Coordinates go on
// the URL path as lng,lat pairs; the snap radius is repeated per waypoint.
func (c *MapboxClient) Route(ctx context.Context, waypoints []Waypoint, profile Profile, snapRadiusM float64) (*Result, error) {
	if len(waypoints) < 2 {
		return nil, ErrNoRoute
	}

	coords := make([]string, 0, len(waypoints))
	radiuses := make([]string, 0, len(waypoints))
	radius := strconv.FormatFloat(snapRadiusM, 'f', -1, 64)
	for _, w := range waypoints {
		coords = append(coords, fmt.Sprintf("%f,%f", w.Lng, w.Lat))
		radiuses = append(radiuses, radius)
	}

	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("radiuses", strings.Join(radiuses, ";"))
	q.Set("access_token", c.token)

	reqURL := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, profile, strings.Join(coords, ";"), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directions request failed: status %d", resp.StatusCode)
	}

	var body mapboxDirectionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if body.Code == "NoRoute" || len(body.Routes) == 0 {
		logrus.WithField("code", body.Code).Debug("directions: provider returned no route")
		return nil, ErrNoRoute
	}
	if body.Code != "Ok" {
		return nil, fmt.Errorf("directions request rejected: %s %s", body.Code, body.Message)
	}

	best := body.Routes[0]
	ls, err := geo.ParseGeoJSONLineString(best.Geometry)
	if err != nil {
		return nil, fmt.Errorf("decode route geometry: %w", err)
	}

	return &Result{
		Geometry:    ls,
		DistanceM:   best.Distance,
		DurationSec: best.Duration,
	}, nil
}
