package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username,omitempty" validate:"omitempty,alphanum,max=32"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(&credentialsRequest{Email: "john@example.com", Password: "secret1"})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(&credentialsRequest{Email: "john@example.com"})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "password is required", fields["password"])
	})

	t.Run("invalid email", func(t *testing.T) {
		err := ValidateStruct(&credentialsRequest{Email: "invalid-email", Password: "secret1"})
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Equal(t, "email must be a valid email", fields["email"])
	})

	t.Run("short password and bad username", func(t *testing.T) {
		err := ValidateStruct(&credentialsRequest{Email: "john@example.com", Password: "123", Username: "bad name"})
		require.Error(t, err)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		details := vErr.Details()
		assert.Equal(t, "password must be at least 6 characters", details["password"])
		assert.Contains(t, details, "username")
	})
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(assert.AnError))
	assert.False(t, IsValidationError(assert.AnError))
}
