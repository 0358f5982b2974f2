package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Name            string `validate:"required,nameok"`
	Email           string `validate:"required,emailok"`
	Password        string `validate:"required,pwdmin"`
	PasswordConfirm string `validate:"required,eqfield=Password"`
	InviteCode      string `validate:"codeok"`
}

func validForm() signupForm {
	return signupForm{
		Name:            "Jordan O'Neill",
		Email:           "jordan@example.com",
		Password:        "hunter22again",
		PasswordConfirm: "hunter22again",
		InviteCode:      "GARDEN42",
	}
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, ValidateStruct(validForm()))

	f := validForm()
	f.Name = ""
	assert.EqualError(t, ValidateStruct(f), "Name is required")

	f = validForm()
	f.Email = "not-an-email"
	assert.EqualError(t, ValidateStruct(f), "Email must be a valid email address")

	f = validForm()
	f.Email = strings.Repeat("a", 190) + "@example.com"
	assert.Error(t, ValidateStruct(f), "overlong emails are rejected")

	f = validForm()
	f.Password = "short"
	f.PasswordConfirm = "short"
	assert.EqualError(t, ValidateStruct(f), "Password must be at least 8 characters")

	f = validForm()
	f.PasswordConfirm = "different1"
	assert.EqualError(t, ValidateStruct(f), "PasswordConfirm must equal Password")

	f = validForm()
	f.InviteCode = "ab!"
	assert.EqualError(t, ValidateStruct(f), "InviteCode is not a valid invite code")

	// codeok is optional when empty
	f = validForm()
	f.InviteCode = ""
	require.NoError(t, ValidateStruct(f))

	// pointers to structs work too
	f = validForm()
	require.NoError(t, ValidateStruct(&f))
}

func TestGenerateInviteCode(t *testing.T) {
	code, err := GenerateInviteCode(8)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, c := range code {
		assert.Contains(t, codeAlphabet, string(c), "code uses only unambiguous characters")
	}

	// non-positive length falls back to the default
	code, err = GenerateInviteCode(0)
	require.NoError(t, err)
	assert.Len(t, code, 8)
}
