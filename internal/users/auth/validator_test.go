// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/miru/internal/platform/apperr"
	"github.com/taibuivan/miru/internal/users/auth"
)

/*
TestValidateCredentials checks the registration field rules, including that
independent failures accumulate into a single error.
*/
func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name        string
		username    string
		password    string
		wantDetails []apperr.FieldError
	}{
		{
			name:     "valid_credentials",
			username: "ben",
			password: "secret",
		},
		{
			name:     "minimum_valid_length",
			username: "abc",
			password: "xyz",
		},
		{
			name:     "username_too_short",
			username: "ab",
			password: "secret",
			wantDetails: []apperr.FieldError{
				{Field: "username", Message: "Username length must be greater than 2"},
			},
		},
		{
			name:     "password_too_short",
			username: "ben",
			password: "ab",
			wantDetails: []apperr.FieldError{
				{Field: "password", Message: "Password length must be greater than 2"},
			},
		},
		{
			name:     "both_too_short_accumulates",
			username: "",
			password: "x",
			wantDetails: []apperr.FieldError{
				{Field: "username", Message: "Username length must be greater than 2"},
				{Field: "password", Message: "Password length must be greater than 2"},
			},
		},
		{
			// Length is measured in Unicode characters, not bytes.
			name:     "multibyte_username_counts_runes",
			username: "日本語",
			password: "secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateCredentials(auth.Credentials{
				Username: tt.username,
				Password: tt.password,
			})

			if tt.wantDetails == nil {
				assert.NoError(t, err)
				return
			}

			ae := apperr.As(err)
			require.NotNil(t, ae)
			assert.Equal(t, "VALIDATION_ERROR", ae.Code)
			assert.Equal(t, tt.wantDetails, ae.Details)
		})
	}
}
