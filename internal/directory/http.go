package directory

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

	"github.com/google/uuid"

	"patientsearch/internal/domain"
)

// DefaultTimeout matches the request timeout of the hospital web client
const DefaultTimeout = 30 * time.Second

// maxBodySize bounds the response read for one lookup
const maxBodySize = 4 << 20

// StatusError is returned when the directory answers with a non-2xx status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("directory returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("directory returned status %d: %s", e.StatusCode, e.Body)
}

// HTTPProvider queries the hospital API's patient search endpoint
type HTTPProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// HTTPOption configures an HTTPProvider
type HTTPOption func(*HTTPProvider)

// WithToken sets the bearer token sent with every lookup
func WithToken(token string) HTTPOption {
	return func(p *HTTPProvider) { p.token = token }
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) { p.client = c }
}

// WithTimeout sets the client timeout
func WithTimeout(d time.Duration) HTTPOption {
	return func(p *HTTPProvider) {
		if d > 0 {
			p.client.Timeout = d
		}
	}
}

// NewHTTPProvider creates a provider for the API rooted at baseURL
// (for example http://localhost:8080/api).
func NewHTTPProvider(baseURL string, opts ...HTTPOption) (*HTTPProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", baseURL)
	}

	p := &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Lookup calls GET {base}/patients/search?q=text
func (p *HTTPProvider) Lookup(ctx context.Context, text string) ([]domain.PatientSummary, error) {
	endpoint := p.baseURL + "/patients/search?q=" + url.QueryEscape(text)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("patient search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	patients, err := decodePatients(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return patients, nil
}

// decodePatients accepts a bare array or a {"data": [...]} envelope
func decodePatients(body []byte) ([]domain.PatientSummary, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	if body[0] == '{' {
		var envelope struct {
			Data []domain.PatientSummary `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, err
		}
		return envelope.Data, nil
	}

	var patients []domain.PatientSummary
	if err := json.Unmarshal(body, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}
