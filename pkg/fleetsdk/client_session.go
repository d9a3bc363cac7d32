package fleetsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Session reports the gate state. An unauthenticated caller gets the state
// it is waiting in and a nil Account, not an error.
func (c *Client) Session(ctx context.Context) (*SessionResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/session", nil, nil)
	if err != nil {
		return nil, err
	}

	var s SessionResponse
	if err := decodeJSON(resp, &s, http.StatusOK, http.StatusUnauthorized); err != nil {
		return nil, err
	}

	return &s, nil
}

// Login exchanges a handle or email and a password for a session cookie.
func (c *Client) Login(ctx context.Context, login, password string) (*SessionResponse, error) {
	resp, err := c.doForm(ctx, "/v1/session", url.Values{
		"login":    {login},
		"password": {password},
	})
	if err != nil {
		return nil, err
	}

	var s SessionResponse
	if err := decodeJSON(resp, &s, http.StatusOK); err != nil {
		return nil, err
	}

	return &s, nil
}

// Logout ends the session. It succeeds when there is no session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/session", nil, nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

// Bootstrap creates the first administrator. token may be empty when the
// service has no bootstrap token configured. No session is created.
func (c *Client) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (*BootstrapResponse, error) {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{BootstrapTokenHeader: token}
	}

	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/bootstrap", req, headers)
	if err != nil {
		return nil, err
	}

	var out BootstrapResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}

	return &out, nil
}
