// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"unicode/utf8"

	"github.com/taibuivan/miru/internal/platform/validate"
)

// # Registration Validation

// Exact client-facing rule messages. Frontends match on these strings to
// position errors next to the offending input, so they must stay stable.
const (
	msgUsernameTooShort = "Username length must be greater than 2"
	msgPasswordTooShort = "Password length must be greater than 2"
)

/*
ValidateCredentials checks raw registration input against the field rules.

Description: Pure function — runs before any hashing or store access, and has
no side effects. Rules are evaluated independently and failures accumulate,
so a caller submitting two bad fields sees both errors in one response.

Parameters:
  - credentials: Credentials

Returns:
  - error: apperr VALIDATION_ERROR carrying one FieldError per failing rule,
    in rule order, or nil when all rules pass
*/
func ValidateCredentials(credentials Credentials) error {
	validator := &validate.Validator{}

	validator.
		Custom(FieldUsername,
			utf8.RuneCountInString(credentials.Username) <= MinCredentialLength,
			msgUsernameTooShort).
		Custom(FieldPassword,
			utf8.RuneCountInString(credentials.Password) <= MinCredentialLength,
			msgPasswordTooShort)

	return validator.Err()
}
