// Package acoustid talks to an AcoustID-compatible recognition service and
// normalizes its responses into a single best candidate.
package acoustid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIURL is the public AcoustID endpoint.
const DefaultAPIURL = "https://api.acoustid.org"

// Client communicates with the recognition service's lookup API.
type Client struct {
	apiURL string
	apiKey string
	http   *http.Client
}

// NewClient creates a recognition client. apiKey is the caller's service
// credential; without one the lookup tier should not be constructed at all.
func NewClient(apiURL, apiKey string) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	return &Client{
		apiURL: strings.TrimRight(apiURL, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Candidate is the normalized best match for one segment.
type Candidate struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
}

// Wire types. The service response nests scored results around optional
// recording lists; none of this leaks past Lookup.
type lookupResponse struct {
	Status string `json:"status"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Results []lookupResult `json:"results"`
}

type lookupResult struct {
	ID         string      `json:"id"`
	Score      float64     `json:"score"`
	Recordings []recording `json:"recordings"`
}

type recording struct {
	Title   string `json:"title"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

// Lookup sends a fingerprint and duration to the service and returns the best
// candidate: the first result carrying at least one recording with a title.
// A well-formed response with no usable recording returns (nil, nil).
func (c *Client) Lookup(ctx context.Context, fp string, durationSec float64) (*Candidate, error) {
	form := url.Values{
		"client":      {c.apiKey},
		"duration":    {strconv.Itoa(int(durationSec + 0.5))},
		"fingerprint": {fp},
		"meta":        {"recordings"},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+"/v2/lookup",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("lookup: HTTP %d", resp.StatusCode)
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}
	if result.Status != "ok" {
		return nil, fmt.Errorf("lookup: service error: %s", result.Error.Message)
	}

	return bestCandidate(result.Results), nil
}

// bestCandidate normalizes the response into one candidate or nil.
func bestCandidate(results []lookupResult) *Candidate {
	for _, r := range results {
		for _, rec := range r.Recordings {
			if rec.Title == "" {
				continue
			}
			artist := ""
			if len(rec.Artists) > 0 {
				artist = rec.Artists[0].Name
			}
			return &Candidate{Title: rec.Title, Artist: artist}
		}
	}
	return nil
}
