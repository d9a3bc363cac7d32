/*
Package fleetsdk is a client for the fleetdesk account and session API.

# Client

A Client keeps the session cookie in its own cookie jar, so a login on a
Client authenticates every later call made through it:

	client, err := fleetsdk.NewClient("http://localhost:8080")

	// First run: create the administrator, then log in normally
	_, err = client.Bootstrap(ctx, bootstrapToken, fleetsdk.BootstrapRequest{
		Handle:          "admin",
		Password:        "x123",
		PasswordConfirm: "x123",
	})
	session, err := client.Login(ctx, "admin", "x123")

	// Admin operations
	accounts, err := client.ListAccounts(ctx)

# Session state

Session reports the gate state whether or not the caller is logged in:

	s, err := client.Session(ctx)
	switch s.State {
	case fleetsdk.StateAwaitingFirstAdmin:
		// show the bootstrap form
	case fleetsdk.StateAwaitingCredentials:
		// show the login form
	case fleetsdk.StateAuthenticated:
		fmt.Println("logged in as", s.Account.Handle)
	}

# Errors

Non-success responses are returned as *APIError carrying the HTTP status,
the error code and, for validation failures, per-field details:

	var apiErr *fleetsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == fleetsdk.ErrorCodeConflict {
		// handle taken
	}

Login failures are always ErrorCodeInvalidCredentials; the API does not say
whether the account exists.
*/
package fleetsdk
