package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ukydev/anchor/internal/geocode"
	"github.com/ukydev/anchor/internal/models"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// NearbyResponse is the body of a proximity search.
type NearbyResponse struct {
	Count int                 `json:"count"`
	Users []models.NearbyUser `json:"users"`
}

// LocationFields is a location submission. Coordinates are [longitude,
// latitude].
type LocationFields struct {
	City        string    `json:"city,omitempty"`
	State       string    `json:"state,omitempty"`
	County      string    `json:"county,omitempty"`
	PlaceName   string    `json:"placeName,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
}

// LocationPayload is the body of POST /user/connect/usergeodata.
type LocationPayload struct {
	Location LocationFields `json:"location"`
}

// Client calls the Anchor REST API on behalf of a session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// New creates an API client. A nil httpClient gets a 15 second timeout.
func New(baseURL string, session *Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if session == nil {
		session = NewSession()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    session,
	}
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// Signup registers a user and signs the session in.
func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.SignupResponse, error) {
	var resp models.SignupResponse
	if err := c.do(ctx, http.MethodPost, "/user/signup", nil, req, &resp); err != nil {
		return nil, err
	}
	c.session.SignIn(resp.User, resp.Token)
	return &resp, nil
}

// Login authenticates and signs the session in.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/user/login", nil, req, &resp); err != nil {
		return nil, err
	}
	c.session.SignIn(resp.User, resp.Token)
	return &resp, nil
}

// UserData fetches the signed-in user's profile.
func (c *Client) UserData(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/user/userData", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Nearby lists other users within rangeKm of center.
func (c *Client) Nearby(ctx context.Context, center models.Coordinates, rangeKm float64) (*NearbyResponse, error) {
	q := url.Values{}
	q.Set("lat", formatFloat(center.Lat))
	q.Set("lng", formatFloat(center.Lng))
	q.Set("rangeKm", formatFloat(rangeKm))

	var resp NearbyResponse
	if err := c.do(ctx, http.MethodGet, "/user/connect/nearby", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLocation fetches the signed-in user's stored location.
func (c *Client) GetLocation(ctx context.Context) (*models.Location, error) {
	var resp struct {
		Location *models.Location `json:"location"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/userlocation", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Location, nil
}

// SetLocation submits a location update and returns the stored result.
func (c *Client) SetLocation(ctx context.Context, payload LocationPayload) (*models.Location, error) {
	var resp struct {
		Message  string           `json:"message"`
		Location *models.Location `json:"location"`
	}
	if err := c.do(ctx, http.MethodPost, "/user/connect/usergeodata", nil, payload, &resp); err != nil {
		return nil, err
	}
	return resp.Location, nil
}

// Search geocodes a place through the server's cached geocoder.
func (c *Client) Search(ctx context.Context, query string) (models.Coordinates, error) {
	q := url.Values{}
	q.Set("q", query)

	var resp struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	}
	if err := c.do(ctx, http.MethodGet, "/geocode/search", q, nil, &resp); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return models.Coordinates{}, geocode.ErrNoResults
		}
		return models.Coordinates{}, err
	}
	return models.FromLngLat(resp.Lng, resp.Lat), nil
}

// Reverse looks up the address at a position through the server.
func (c *Client) Reverse(ctx context.Context, at models.Coordinates) (*geocode.Address, error) {
	q := url.Values{}
	q.Set("lat", formatFloat(at.Lat))
	q.Set("lng", formatFloat(at.Lng))

	var addr geocode.Address
	if err := c.do(ctx, http.MethodGet, "/geocode/reverse", q, nil, &addr); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, geocode.ErrNoResults
		}
		return nil, err
	}
	return &addr, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func isStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
