// Package pinata pins vote descriptions to IPFS through the Pinata API.
package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/trebuchet-org/treb-vote/internal/domain"
	"github.com/trebuchet-org/treb-vote/internal/domain/config"
)

const DefaultBaseURL = "https://api.pinata.cloud"

type pinRequest struct {
	Content  pinContent  `json:"pinataContent"`
	Metadata pinMetadata `json:"pinataMetadata"`
	Options  pinOptions  `json:"pinataOptions"`
}

type pinContent struct {
	Text string `json:"text"`
}

type pinMetadata struct {
	Name string `json:"name"`
}

type pinOptions struct {
	CIDVersion int `json:"cidVersion"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Client represents a Pinata pinning client
type Client struct {
	baseURL    string
	jwt        string
	httpClient *http.Client
	now        func() time.Time
	log        *slog.Logger
}

// NewClient creates a new Pinata client
func NewClient(cfg *config.RuntimeConfig, log *slog.Logger) *Client {
	baseURL := cfg.PinataURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		jwt:     cfg.PinataJWT,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		now: time.Now,
		log: log.With("component", "pinata"),
	}
}

// Pin uploads description as JSON and returns its content hash
func (c *Client) Pin(ctx context.Context, description string) (string, error) {
	if c.jwt == "" {
		return "", &domain.ConfigError{Field: "pinata_jwt", Reason: "PINATA_JWT is required to pin the vote description"}
	}

	payload, err := json.Marshal(pinRequest{
		Content:  pinContent{Text: description},
		Metadata: pinMetadata{Name: fmt.Sprintf("vote_description_%s.json", c.now().Format("20060102_150405"))},
		Options:  pinOptions{CIDVersion: 1},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal pin request: %w", err)
	}

	url := c.baseURL + "/pinning/pinJSONToIPFS"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.jwt)
	req.Header.Set("Content-Type", "application/json")

	c.log.Debug("pinning description", "url", url, "bytes", len(description))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to pin description: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("pinata API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out pinResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pinata response has no IpfsHash: %s", string(body))
	}
	return out.IpfsHash, nil
}
