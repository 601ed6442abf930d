// Package sync is the client side of session tracking: a typed HTTP client
// for the LiftLog API, a local queue for completion submissions that have
// not been confirmed by the server, and a poller that watches for an active
// session to resume.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/liftlog/internal/models"
)

// Client sends requests to the LiftLog server over HTTP, attaching the
// user's opaque bearer token. Read-only queries are retried with backoff;
// mutations are attempted exactly once, because a timed-out mutation may
// have taken effect and blind retries would duplicate it.
type Client struct {
	serverURL  string
	token      string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the LiftLog server.
func NewClient(serverURL, token string) *Client {
	return &Client{
		serverURL: serverURL,
		token:     token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ActiveSession fetches the user's in-progress session. Returns (nil, nil)
// when there is none. Retries up to 3 times with exponential backoff;
// the query is read-only and safe to repeat.
func (c *Client) ActiveSession(ctx context.Context) (*models.Session, error) {
	var lastErr error
	for attempt := range 3 {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		session, err := c.fetchActive(ctx)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, models.ErrTransient) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) fetchActive(ctx context.Context) (*models.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/sessions/active", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching active session: %w: %w", models.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		var session models.Session
		if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
			return nil, fmt.Errorf("decoding active session: %w", err)
		}
		return &session, nil
	default:
		return nil, responseError(resp)
	}
}

// GetSession fetches one session by ID.
func (c *Client) GetSession(ctx context.Context, sessionID uuid.UUID) (*models.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/sessions/"+sessionID.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching session: %w: %w", models.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var session models.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

// CompleteExercise submits actual performed values for one exercise.
// Attempted exactly once: a transport failure surfaces as ErrTransient and
// the caller must re-query session state before retrying.
func (c *Client) CompleteExercise(ctx context.Context, sessionID, exerciseID uuid.UUID,
	vals models.ActualValues) (*models.Session, error) {

	path := fmt.Sprintf("/api/v1/sessions/%s/exercises/%s/complete", sessionID, exerciseID)
	req, err := c.newRequest(ctx, http.MethodPatch, path, vals)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completing exercise: %w: %w", models.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var session models.Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &session, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// responseError maps an HTTP error response back to the shared taxonomy.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error string `json:"error"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, models.ErrNotFound)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, models.ErrConflict)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", msg, models.ErrValidation)
	case http.StatusRequestTimeout, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%s (status %d): %w", msg, resp.StatusCode, models.ErrTransient)
	default:
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, msg)
	}
}
