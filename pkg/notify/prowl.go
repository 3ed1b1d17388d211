package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultProwlEndpoint is the public Prowl add API
const DefaultProwlEndpoint = "https://api.prowlapp.com/publicapi/add"

// ProwlConfig holds Prowl client configuration
type ProwlConfig struct {
	APIKeys  []string
	Endpoint string
	Timeout  time.Duration
}

// Validate validates the Prowl configuration
func (c *ProwlConfig) Validate() error {
	if len(c.APIKeys) == 0 {
		return errors.New("at least one API key is required")
	}
	for _, key := range c.APIKeys {
		if strings.TrimSpace(key) == "" {
			return errors.New("API keys must not be empty")
		}
	}
	return nil
}

// ProwlClient sends notifications through the Prowl API
type ProwlClient struct {
	config     ProwlConfig
	httpClient *http.Client
}

// NewProwlClient creates a new Prowl client
func NewProwlClient(config ProwlConfig) (*ProwlClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prowl config: %w", err)
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultProwlEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &ProwlClient{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Send posts one message. The returned error is always a *DeliveryError.
func (c *ProwlClient) Send(ctx context.Context, msg Message) error {
	form := url.Values{}
	form.Set("apikey", strings.Join(c.config.APIKeys, ","))
	form.Set("priority", strconv.Itoa(int(msg.Priority)))
	form.Set("application", msg.Application)
	form.Set("event", msg.Event)
	form.Set("description", msg.Description)
	if msg.URL != "" {
		form.Set("url", msg.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &DeliveryError{Kind: Permanent, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Kind: Transient, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return &DeliveryError{
		Kind:       classifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("prowl API error: %s", strings.TrimSpace(string(body))),
	}
}

// classifyStatus maps Prowl response codes: 400 bad request, 401 bad key and
// 409 not approved cannot succeed on retry; 406 is the hourly rate limit.
func classifyStatus(code int) Kind {
	switch code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict:
		return Permanent
	case http.StatusNotAcceptable:
		return Transient
	}
	if code >= 500 {
		return Transient
	}
	if code >= 400 {
		return Permanent
	}
	return Transient
}
