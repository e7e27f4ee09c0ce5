// Package upstream talks to the trip/place/timeline REST backend.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"travelmate-web/internal/placeimage"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Login(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.sendJSON(ctx, http.MethodPost, "/users/login", "", creds, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, creds Credentials) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.sendJSON(ctx, http.MethodPost, "/users/signup", "", creds, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.sendJSON(ctx, http.MethodPost, "/users/logout", token, nil, nil)
}

func (c *Client) ListTrips(ctx context.Context, token string) ([]Trip, error) {
	var trips []Trip
	err := c.get(ctx, "/trips", token, &trips, "data", "trips")
	return trips, err
}

func (c *Client) GetTrip(ctx context.Context, token, tripID string) (Trip, error) {
	var trip Trip
	err := c.get(ctx, "/trips/"+url.PathEscape(tripID), token, &trip, "data")
	return trip, err
}

// CreateTrip sends a multipart body built by the caller.
func (c *Client) CreateTrip(ctx context.Context, token string, body io.Reader, contentType string) (Trip, error) {
	var trip Trip
	err := c.send(ctx, http.MethodPost, "/trips", token, body, contentType, &trip, "data")
	return trip, err
}

func (c *Client) UpdateTrip(ctx context.Context, token, tripID string, body io.Reader, contentType string) (Trip, error) {
	var trip Trip
	err := c.send(ctx, http.MethodPatch, "/trips/"+url.PathEscape(tripID), token, body, contentType, &trip, "data")
	return trip, err
}

func (c *Client) DeleteTrip(ctx context.Context, token, tripID string) error {
	return c.send(ctx, http.MethodDelete, "/trips/"+url.PathEscape(tripID), token, nil, "", nil)
}

func (c *Client) ListPlaces(ctx context.Context, token, tripID string) ([]Place, error) {
	var places []Place
	err := c.get(ctx, placesPath(tripID), token, &places, "data", "places")
	return places, err
}

func (c *Client) GetPlace(ctx context.Context, token, tripID, placeID string) (Place, error) {
	var place Place
	err := c.get(ctx, placesPath(tripID)+"/"+url.PathEscape(placeID), token, &place, "data")
	return place, err
}

// SavePlace POSTs a new place or PATCHes an existing one, depending on the
// submission mode. The body is encoded completely before anything is sent.
func (c *Client) SavePlace(ctx context.Context, token, tripID, placeID string, sub placeimage.Submission) (Place, error) {
	var body bytes.Buffer
	contentType, err := sub.Encode(&body)
	if err != nil {
		return Place{}, fmt.Errorf("encode place submission: %w", err)
	}
	method, path := http.MethodPost, placesPath(tripID)
	if sub.Mode == placeimage.Replace {
		method, path = http.MethodPatch, path+"/"+url.PathEscape(placeID)
	}
	var place Place
	err = c.send(ctx, method, path, token, &body, contentType, &place, "data")
	return place, err
}

func (c *Client) DeletePlace(ctx context.Context, token, tripID, placeID string) error {
	return c.send(ctx, http.MethodDelete, placesPath(tripID)+"/"+url.PathEscape(placeID), token, nil, "", nil)
}

func (c *Client) ListTimeline(ctx context.Context, token, tripID string) ([]TimelineItem, error) {
	var items []TimelineItem
	err := c.get(ctx, timelinePath(tripID), token, &items, "data", "items", "timeline")
	return items, err
}

func (c *Client) CreateTimelineItem(ctx context.Context, token, tripID string, item TimelineItem) (TimelineItem, error) {
	var out TimelineItem
	err := c.sendJSON(ctx, http.MethodPost, timelinePath(tripID), token, item, &out)
	return out, err
}

func (c *Client) DeleteTimelineItem(ctx context.Context, token, tripID, itemID string) error {
	return c.send(ctx, http.MethodDelete, timelinePath(tripID)+"/"+url.PathEscape(itemID), token, nil, "", nil)
}

// FetchImage downloads an image by absolute URL so it can be resubmitted.
// Transport failures, 5xx and 429 answers wrap placeimage.ErrTransient.
func (c *Client) FetchImage(ctx context.Context, imageURL string) (placeimage.File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return placeimage.File{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return placeimage.File{}, fmt.Errorf("%w: %w: %v", ErrUnavailable, placeimage.ErrTransient, err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return placeimage.File{}, fmt.Errorf("%w: %w", placeimage.ErrTransient, &APIError{Status: resp.StatusCode})
	case resp.StatusCode != http.StatusOK:
		return placeimage.File{}, &APIError{Status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, placeimage.MaxFileSize+1))
	if err != nil {
		return placeimage.File{}, fmt.Errorf("%w: %w: %v", ErrUnavailable, placeimage.ErrTransient, err)
	}
	if len(data) > placeimage.MaxFileSize {
		return placeimage.File{}, placeimage.ErrTooLarge
	}
	ct := resp.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if !strings.HasPrefix(ct, "image/") {
		ct = ""
	}
	return placeimage.File{ContentType: ct, Data: data}, nil
}

func placesPath(tripID string) string {
	return "/trips/" + url.PathEscape(tripID) + "/places"
}

func timelinePath(tripID string) string {
	return "/trips/" + url.PathEscape(tripID) + "/timeline"
}

func (c *Client) get(ctx context.Context, path, token string, out any, envelope ...string) error {
	return c.send(ctx, http.MethodGet, path, token, nil, "", out, envelope...)
}

func (c *Client) sendJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return c.send(ctx, method, path, token, body, contentType, out, "data")
}

// send performs one request. A JSON answer wrapped in one of the envelope
// keys ({"data": ...}) is unwrapped before decoding into out.
func (c *Client) send(ctx context.Context, method, path, token string, body io.Reader, contentType string, out any, envelope ...string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw, envelope...), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func unwrap(raw []byte, keys ...string) []byte {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	for _, k := range keys {
		if inner, ok := obj[k]; ok && len(inner) > 0 && string(inner) != "null" {
			return inner
		}
	}
	return raw
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
