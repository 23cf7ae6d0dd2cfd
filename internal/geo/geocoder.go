package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/parkcheep/parkcheep-bot/internal/errors"
	"github.com/parkcheep/parkcheep-bot/pkg/metrics"
)

const defaultGeocodeBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Geocoder resolves free-text queries to candidate locations. An empty result
// list means "not found" and is not an error.
type Geocoder interface {
	Geocode(ctx context.Context, query string) ([]Location, error)
}

// GoogleGeocoder calls the Google Maps geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// NewGoogleGeocoder builds a geocoder using the provided API key.
func NewGoogleGeocoder(apiKey string, log *slog.Logger) *GoogleGeocoder {
	if log == nil {
		log = slog.Default()
	}

	return &GoogleGeocoder{
		apiKey:  apiKey,
		baseURL: defaultGeocodeBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (g *GoogleGeocoder) WithBaseURL(baseURL string) *GoogleGeocoder {
	g.baseURL = baseURL
	return g
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves query against the Google geocoding API. Transient failures
// are retried; a ZERO_RESULTS status yields an empty slice and no error.
func (g *GoogleGeocoder) Geocode(ctx context.Context, query string) ([]Location, error) {
	var locations []Location

	err := apperrors.WithRetry(ctx, func() error {
		var retryErr error
		locations, retryErr = g.geocodeOnce(ctx, query)
		return retryErr
	})
	if err != nil {
		metrics.RecordGeocode("error")
		return nil, err
	}

	if len(locations) == 0 {
		metrics.RecordGeocode("empty")
	} else {
		metrics.RecordGeocode("ok")
	}

	return locations, nil
}

func (g *GoogleGeocoder) geocodeOnce(ctx context.Context, query string) ([]Location, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, apperrors.NewExternalAPIError("google geocoding", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, apperrors.NewExternalAPIError("google geocoding", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewExternalAPIError("google geocoding", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var payload geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewExternalAPIError("google geocoding", err)
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		g.log.Warn("geocoding returned error status",
			slog.String("status", payload.Status),
			slog.String("message", payload.ErrorMessage),
		)
		return nil, apperrors.NewExternalAPIError("google geocoding", fmt.Errorf("status %s", payload.Status))
	}

	locations := make([]Location, 0, len(payload.Results))
	for _, result := range payload.Results {
		locations = append(locations, Location{
			Address: result.FormattedAddress,
			Coordinate: Coordinate{
				Latitude:  result.Geometry.Location.Lat,
				Longitude: result.Geometry.Location.Lng,
			},
		})
	}

	return locations, nil
}
