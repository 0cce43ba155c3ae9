package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ukydev/anchor/internal/models"
)

// DefaultBaseURL is the public OpenStreetMap Nominatim endpoint.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

const userAgent = "anchor-geocoder/1.0"

// ErrNoResults is returned when a search matches no place.
var ErrNoResults = errors.New("no geocoding results")

// Address is the human-readable side of a reverse lookup.
type Address struct {
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	DisplayName string `json:"display_name"`
}

// Geocoder translates between place descriptions and coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string) (models.Coordinates, error)
	Reverse(ctx context.Context, at models.Coordinates) (*Address, error)
}

// Client talks to a Nominatim compatible service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Nominatim client. An empty baseURL uses the public
// service and a nil httpClient gets a 10 second timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type searchResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// Search returns the coordinates of the best match for a free-form query.
func (c *Client) Search(ctx context.Context, query string) (models.Coordinates, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Coordinates{}, ErrNoResults
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return models.Coordinates{}, err
	}
	if len(results) == 0 {
		return models.Coordinates{}, ErrNoResults
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return models.FromLngLat(lng, lat), nil
}

// Reverse returns the address closest to at.
func (c *Client) Reverse(ctx context.Context, at models.Coordinates) (*Address, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(at.Lng, 'f', -1, 64))

	var result reverseResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, err
	}
	if result.Error != "" {
		return nil, ErrNoResults
	}

	city := result.Address.City
	if city == "" {
		city = result.Address.Town
	}
	if city == "" {
		city = result.Address.Village
	}
	return &Address{
		City:        city,
		State:       result.Address.State,
		Country:     result.Address.Country,
		DisplayName: result.DisplayName,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build geocoding request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geocoding request: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode geocoding response: %w", err)
	}
	return nil
}
