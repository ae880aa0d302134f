// Package client is the HTTP client used by the summit CLI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nikolag/summit/internal/config"
	"github.com/nikolag/summit/internal/domain"
	"github.com/nikolag/summit/internal/importer"
	"github.com/nikolag/summit/internal/storage"
)

// Client is an HTTP client for the summit server
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New creates a new client from config
func New(cfg *config.ClientConfig) (*Client, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("server URL not configured. Run 'summit login <server-url>'")
	}

	return &Client{
		baseURL: cfg.ServerURL,
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}, nil
}

// Login exchanges credentials for a session token.
func Login(ctx context.Context, serverURL, username, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", serverURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed: %s", readError(resp))
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// Counts returns the dashboard totals.
func (c *Client) Counts(ctx context.Context) (storage.Counts, error) {
	var counts storage.Counts
	err := c.getJSON(ctx, "/api/counts", &counts)
	return counts, err
}

// ListParticipants fetches one page of participants.
func (c *Client) ListParticipants(ctx context.Context, search string, page, perPage int) (storage.ParticipantPage, error) {
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	var result storage.ParticipantPage
	err := c.getJSON(ctx, "/api/participants?"+q.Encode(), &result)
	return result, err
}

// GetParticipant fetches a single participant by PID.
func (c *Client) GetParticipant(ctx context.Context, pid string) (domain.Participant, error) {
	var p domain.Participant
	err := c.getJSON(ctx, "/api/participants/"+pid, &p)
	return p, err
}

// ListEvents fetches all events.
func (c *Client) ListEvents(ctx context.Context) ([]domain.Event, error) {
	var result struct {
		Events []domain.Event `json:"events"`
	}
	err := c.getJSON(ctx, "/api/events", &result)
	return result.Events, err
}

// NormalizePhones triggers the server-side phone cleanup.
func (c *Client) NormalizePhones(ctx context.Context) (updated int, skipped []string, err error) {
	req, err := c.newRequest(ctx, "POST", "/api/participants/normalize-phones", nil)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("normalize failed: %s", readError(resp))
	}

	var result struct {
		Updated int      `json:"updated"`
		Skipped []string `json:"skipped"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, nil, err
	}
	return result.Updated, result.Skipped, nil
}

// Import uploads a workbook and returns the import report.
func (c *Client) Import(ctx context.Context, filename string, data []byte, dryRun bool) (*importer.Report, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	path := "/api/imports"
	if dryRun {
		path += "?dry_run=true"
	}

	req, err := c.newRequest(ctx, "POST", path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("import failed: %s", readError(resp))
	}

	var report importer.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, "GET", path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s", readError(resp))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

// readError extracts the server's error message from a failed response.
func readError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Sprintf("%d - %s", resp.StatusCode, payload.Error)
	}
	return strconv.Itoa(resp.StatusCode)
}
