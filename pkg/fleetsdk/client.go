package fleetsdk

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// SessionCookieName is the cookie the service keeps the session in.
const SessionCookieName = "fleetdesk_session"

// BootstrapTokenHeader carries the bootstrap token on POST /v1/bootstrap.
const BootstrapTokenHeader = "X-Bootstrap-Token"

// Client is a client for the fleetdesk service. It is safe for concurrent
// use but holds a single session.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client with its own cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
		},
	}, nil
}
