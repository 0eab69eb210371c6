package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateContact(t *testing.T) {
	require := require.New(t)

	require.False(ValidateContact("Alice", "8888888888").HasErrors())
	require.False(ValidateContact("Alice", "888 888 8888").HasErrors())

	errs := ValidateContact("  ", "8888888888")
	require.Contains(errs, "contact_name")

	for _, bad := range []string{"", "888888888", "88888888888", "88888-88888", "abcdefghij"} {
		errs = ValidateContact("Alice", bad)
		require.Contains(errs, "contact_number", bad)
	}
}

func TestCleanContactNumber(t *testing.T) {
	require.Equal(t, "8888888888", CleanContactNumber(" 888 888\t8888 "))
}

func TestValidateSignup(t *testing.T) {
	require := require.New(t)

	require.False(ValidateSignup("a@b.io", "Secret123", "999-999-9999").HasErrors())

	errs := ValidateSignup("nope", "short", "123")
	require.Contains(errs, "email")
	require.Contains(errs, "password")
	require.Contains(errs, "phone")

	errs = ValidateSignup("a@b.io", "alllowercase1", "9999999999")
	require.Equal("Password must contain at least one uppercase letter", errs["password"])
}

func TestValidateProfile(t *testing.T) {
	require := require.New(t)

	short := "12345"
	long := "(999) 999-9999"
	require.Contains(ValidateProfile(nil, &short, nil), "phone")
	require.False(ValidateProfile(nil, &long, nil).HasErrors())
	require.False(ValidateProfile(nil, nil, nil).HasErrors())
}

func TestValidateMessage(t *testing.T) {
	require.True(t, ValidateMessage("   ").HasErrors())
	require.False(t, ValidateMessage(" hi ").HasErrors())
}

func TestFirst(t *testing.T) {
	errs := ValidationErrors{"b": "bee", "a": "ay"}
	f, msg := errs.First("a", "b")
	require.Equal(t, "a", f)
	require.Equal(t, "ay", msg)
}
