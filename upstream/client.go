// Package upstream is the gateway's view of the marketplace backend. All
// payload normalization happens here: the rest of the codebase only ever
// sees the canonical models shapes.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"locumly/models"
)

// ShiftFilters narrows a shift listing.
type ShiftFilters struct {
	Role           string
	EmploymentType string
	Page           int
}

// Client defines the marketplace operations the gateway consumes.
type Client interface {
	ListShifts(ctx context.Context, filters ShiftFilters) ([]models.Shift, error)
	GetInterests(ctx context.Context, shiftID int64) ([]models.ShiftInterest, error)
	GetMembers(ctx context.Context, shiftID int64, level models.VisibilityLevel, slotID *int64) ([]models.ShiftMemberStatus, error)
	GetCounterOffers(ctx context.Context, shiftID int64) ([]models.CounterOffer, error)
	AcceptCounterOffer(ctx context.Context, shiftID, offerID int64, slotID *int64) error
	RejectCounterOffer(ctx context.Context, shiftID, offerID int64) error
	RevealInterest(ctx context.Context, shiftID, userID int64, slotID *int64) (*models.UserSummary, error)
	AcceptCandidate(ctx context.Context, shiftID, userID int64, slotID *int64) error
	Escalate(ctx context.Context, shiftID int64, target models.VisibilityLevel) (*models.Shift, error)
	DeleteShift(ctx context.Context, shiftID int64) error
	ShareLink(ctx context.Context, shiftID int64) (string, error)
	ApplyToShift(ctx context.Context, shiftID int64, slotID *int64) error
	DeclineShift(ctx context.Context, shiftID int64, slotID *int64) error
	SaveShift(ctx context.Context, shiftID int64, saved bool) error
}

// HTTPClient implements Client against the marketplace REST API.
type HTTPClient struct {
	BaseURL string
	Tokens  TokenSource
	HTTP    *http.Client
}

// NewHTTPClient builds a marketplace client with the given base URL.
func NewHTTPClient(baseURL string, tokens TokenSource, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Tokens:  tokens,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// APIError is a non-2xx marketplace response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream: status %d: %s", e.Status, e.Body)
}

func (c *HTTPClient) token(ctx context.Context) (string, bool, error) {
	if tok, ok := BearerFromContext(ctx); ok {
		return tok, false, nil
	}
	if c.Tokens == nil {
		return "", false, ErrAuthExpired
	}
	tok, err := c.Tokens.Token(ctx)
	return tok, true, err
}

// do performs one request with bearer auth. A 401 on a source-supplied token
// invalidates it and retries exactly once with a refreshed token; a second
// 401 (or a 401 on a caller-supplied token) is ErrAuthExpired.
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	retried := false
	for {
		tok, refreshable, err := c.token(ctx)
		if err != nil {
			return err
		}

		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("upstream: marshal request: %w", err)
			}
			reader = bytes.NewReader(payload)
		}

		u := c.BaseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return fmt.Errorf("upstream: build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return fmt.Errorf("upstream: %s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if !refreshable || retried {
				return ErrAuthExpired
			}
			c.Tokens.Invalidate(tok)
			retried = true
			continue
		}

		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return &APIError{Status: resp.StatusCode, Body: string(raw)}
		}
		if out != nil && resp.StatusCode != http.StatusNoContent {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("upstream: decode response: %w", err)
			}
		}
		return nil
	}
}

func shiftPath(shiftID int64, suffix string) string {
	return "/shifts/" + strconv.FormatInt(shiftID, 10) + suffix
}

func (c *HTTPClient) ListShifts(ctx context.Context, filters ShiftFilters) ([]models.Shift, error) {
	q := url.Values{}
	if filters.Role != "" {
		q.Set("role", filters.Role)
	}
	if filters.EmploymentType != "" {
		q.Set("employmentType", filters.EmploymentType)
	}
	if filters.Page > 0 {
		q.Set("page", strconv.Itoa(filters.Page))
	}
	var raw []rawShift
	if err := c.do(ctx, http.MethodGet, "/shifts", q, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.Shift, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.normalize())
	}
	return out, nil
}

func (c *HTTPClient) GetInterests(ctx context.Context, shiftID int64) ([]models.ShiftInterest, error) {
	var raw []rawInterest
	if err := c.do(ctx, http.MethodGet, shiftPath(shiftID, "/interests"), nil, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.ShiftInterest, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.normalize())
	}
	return out, nil
}

func (c *HTTPClient) GetMembers(ctx context.Context, shiftID int64, level models.VisibilityLevel, slotID *int64) ([]models.ShiftMemberStatus, error) {
	q := url.Values{}
	q.Set("visibility", string(level))
	if slotID != nil {
		q.Set("slotId", strconv.FormatInt(*slotID, 10))
	}
	var raw []rawMemberStatus
	if err := c.do(ctx, http.MethodGet, shiftPath(shiftID, "/members"), q, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.ShiftMemberStatus, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.normalize())
	}
	return out, nil
}

func (c *HTTPClient) GetCounterOffers(ctx context.Context, shiftID int64) ([]models.CounterOffer, error) {
	var raw []rawCounterOffer
	if err := c.do(ctx, http.MethodGet, shiftPath(shiftID, "/counter-offers"), nil, nil, &raw); err != nil {
		return nil, err
	}
	out := make([]models.CounterOffer, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.normalize())
	}
	return out, nil
}

func (c *HTTPClient) AcceptCounterOffer(ctx context.Context, shiftID, offerID int64, slotID *int64) error {
	q := url.Values{}
	if slotID != nil {
		q.Set("slot_id", strconv.FormatInt(*slotID, 10))
	}
	path := shiftPath(shiftID, "/counter-offers/"+strconv.FormatInt(offerID, 10)+"/accept")
	return c.do(ctx, http.MethodPost, path, q, nil, nil)
}

func (c *HTTPClient) RejectCounterOffer(ctx context.Context, shiftID, offerID int64) error {
	path := shiftPath(shiftID, "/counter-offers/"+strconv.FormatInt(offerID, 10)+"/reject")
	return c.do(ctx, http.MethodPost, path, nil, nil, nil)
}

func (c *HTTPClient) RevealInterest(ctx context.Context, shiftID, userID int64, slotID *int64) (*models.UserSummary, error) {
	body := map[string]any{"userId": userID}
	if slotID != nil {
		body["slotId"] = *slotID
	}
	var raw rawUser
	if err := c.do(ctx, http.MethodPost, shiftPath(shiftID, "/reveal-interest"), nil, body, &raw); err != nil {
		return nil, err
	}
	user := raw.normalize()
	return &user, nil
}

func (c *HTTPClient) AcceptCandidate(ctx context.Context, shiftID, userID int64, slotID *int64) error {
	body := map[string]any{"userId": userID}
	if slotID != nil {
		body["slotId"] = *slotID
	}
	return c.do(ctx, http.MethodPost, shiftPath(shiftID, "/accept-candidate"), nil, body, nil)
}

func (c *HTTPClient) Escalate(ctx context.Context, shiftID int64, target models.VisibilityLevel) (*models.Shift, error) {
	body := map[string]any{"targetLevel": string(target)}
	var raw rawShift
	if err := c.do(ctx, http.MethodPost, shiftPath(shiftID, "/escalate"), nil, body, &raw); err != nil {
		return nil, err
	}
	shift := raw.normalize()
	return &shift, nil
}

func (c *HTTPClient) DeleteShift(ctx context.Context, shiftID int64) error {
	return c.do(ctx, http.MethodDelete, shiftPath(shiftID, ""), nil, nil, nil)
}

func (c *HTTPClient) ShareLink(ctx context.Context, shiftID int64) (string, error) {
	var resp struct {
		Token string `json:"token"`
		URL   string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, shiftPath(shiftID, "/share-link"), nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.URL != "" {
		return resp.URL, nil
	}
	return resp.Token, nil
}

func (c *HTTPClient) ApplyToShift(ctx context.Context, shiftID int64, slotID *int64) error {
	body := map[string]any{}
	if slotID != nil {
		body["slotId"] = *slotID
	}
	return c.do(ctx, http.MethodPost, shiftPath(shiftID, "/apply"), nil, body, nil)
}

func (c *HTTPClient) DeclineShift(ctx context.Context, shiftID int64, slotID *int64) error {
	body := map[string]any{}
	if slotID != nil {
		body["slotId"] = *slotID
	}
	return c.do(ctx, http.MethodPost, shiftPath(shiftID, "/decline"), nil, body, nil)
}

func (c *HTTPClient) SaveShift(ctx context.Context, shiftID int64, saved bool) error {
	if saved {
		return c.do(ctx, http.MethodPost, shiftPath(shiftID, "/save"), nil, nil, nil)
	}
	return c.do(ctx, http.MethodDelete, shiftPath(shiftID, "/save"), nil, nil, nil)
}
