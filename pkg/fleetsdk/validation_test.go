package fleetsdk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBootstrapRequestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		req    BootstrapRequest
		fields []string
	}{
		{
			name: "valid",
			req:  BootstrapRequest{Handle: "admin", Password: "x123", PasswordConfirm: "x123"},
		},
		{
			name: "dotted handle and email",
			req:  BootstrapRequest{Handle: "Joao.Silva", Email: "joao@example.com", Password: "x123", PasswordConfirm: "x123"},
		},
		{
			name:   "missing handle",
			req:    BootstrapRequest{Password: "x123", PasswordConfirm: "x123"},
			fields: []string{"handle"},
		},
		{
			name:   "bad handle",
			req:    BootstrapRequest{Handle: "no spaces", Password: "x123", PasswordConfirm: "x123"},
			fields: []string{"handle"},
		},
		{
			name:   "short password",
			req:    BootstrapRequest{Handle: "admin", Password: "ab", PasswordConfirm: "ab"},
			fields: []string{"password"},
		},
		{
			name:   "mismatch",
			req:    BootstrapRequest{Handle: "admin", Password: "x123", PasswordConfirm: "x124"},
			fields: []string{"password_confirm"},
		},
		{
			name:   "bad email",
			req:    BootstrapRequest{Handle: "admin", Email: "nope", Password: "x123", PasswordConfirm: "x123"},
			fields: []string{"email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			errs := tt.req.Validate()
			if len(tt.fields) == 0 {
				require.Nil(t, errs)
				return
			}
			require.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				require.Contains(t, errs, f)
			}
		})
	}
}

func TestPasswordLengthCountsRunes(t *testing.T) {
	t.Parallel()

	require.Nil(t, SetPasswordRequest{Password: "ção1"}.Validate())
	require.Contains(t, SetPasswordRequest{Password: "çã"}.Validate(), "password")
	require.Contains(t, SetPasswordRequest{Password: strings.Repeat("a", 129)}.Validate(), "password")
}

func TestRoleValidate(t *testing.T) {
	t.Parallel()

	require.Nil(t, SetRoleRequest{Role: "admin"}.Validate())
	require.Nil(t, SetRoleRequest{Role: " USER "}.Validate())
	require.Contains(t, SetRoleRequest{}.Validate(), "role")
	require.Contains(t, SetRoleRequest{Role: "  "}.Validate(), "role")

	// unknown roles are left for the service to coerce
	require.Nil(t, SetRoleRequest{Role: "root"}.Validate())
	require.Nil(t, CreateAccountRequest{Handle: "neo", Password: "matrix", Role: "root"}.Validate())

	// optional on create
	require.Nil(t, CreateAccountRequest{Handle: "neo", Password: "matrix"}.Validate())
}

func TestUpdateProfileValidate(t *testing.T) {
	t.Parallel()

	empty := ""
	bad := "nope"
	long := strings.Repeat("n", 129)

	require.Nil(t, UpdateProfileRequest{}.Validate())
	require.Nil(t, UpdateProfileRequest{Email: &empty}.Validate())
	require.Contains(t, UpdateProfileRequest{Email: &bad}.Validate(), "email")
	require.Contains(t, UpdateProfileRequest{DisplayName: &long}.Validate(), "display_name")
}
