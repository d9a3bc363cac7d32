package fleetsdk

import (
	"context"
	"net/http"
)

// ListAccounts returns every account ordered by id. Requires an admin session.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/accounts", nil, nil)
	if err != nil {
		return nil, err
	}

	var list AccountList
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}

	return list.Accounts, nil
}

func (c *Client) GetAccount(ctx context.Context, handle string) (*Account, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, accountPath(handle, ""), nil, nil)
	if err != nil {
		return nil, err
	}

	var acc Account
	if err := decodeJSON(resp, &acc, http.StatusOK); err != nil {
		return nil, err
	}

	return &acc, nil
}

func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	return c.sendAccount(ctx, http.MethodPost, "/v1/accounts", req, http.StatusCreated)
}

func (c *Client) UpdateProfile(ctx context.Context, handle string, req UpdateProfileRequest) (*Account, error) {
	return c.sendAccount(ctx, http.MethodPatch, accountPath(handle, ""), req, http.StatusOK)
}

func (c *Client) SetPassword(ctx context.Context, handle, password string) error {
	return c.sendNoContent(ctx, accountPath(handle, "/password"), SetPasswordRequest{Password: password})
}

func (c *Client) SetActive(ctx context.Context, handle string, active bool) error {
	return c.sendNoContent(ctx, accountPath(handle, "/active"), SetActiveRequest{Active: active})
}

func (c *Client) SetRole(ctx context.Context, handle, role string) error {
	return c.sendNoContent(ctx, accountPath(handle, "/role"), SetRoleRequest{Role: role})
}

func (c *Client) DeleteAccount(ctx context.Context, handle string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, accountPath(handle, ""), nil, nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}

func (c *Client) sendAccount(ctx context.Context, method, path string, payload any, expected int) (*Account, error) {
	resp, err := c.doJSON(ctx, method, path, payload, nil)
	if err != nil {
		return nil, err
	}

	var acc Account
	if err := decodeJSON(resp, &acc, expected); err != nil {
		return nil, err
	}

	return &acc, nil
}

func (c *Client) sendNoContent(ctx context.Context, path string, payload any) error {
	resp, err := c.doJSON(ctx, http.MethodPut, path, payload, nil)
	if err != nil {
		return err
	}

	return checkStatusNoContent(resp)
}
