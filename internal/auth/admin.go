// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed credential check.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminAuthenticator checks login attempts against the configured admin.
type AdminAuthenticator struct {
	email        []byte
	passwordHash []byte
}

// NewAdminAuthenticator hashes password once. The e-mail is compared
// case-insensitively.
func NewAdminAuthenticator(email, password string) (*AdminAuthenticator, error) {
	email = lowerTrim(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("admin e-mail and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}
	return &AdminAuthenticator{email: []byte(email), passwordHash: hash}, nil
}

// Email returns the normalized admin e-mail.
func (a *AdminAuthenticator) Email() string {
	return string(a.email)
}

// Verify returns nil when both e-mail and password match. bcrypt runs even
// when the e-mail is wrong so response time does not reveal which field failed.
func (a *AdminAuthenticator) Verify(email, password string) error {
	given := []byte(lowerTrim(email))
	emailOK := subtle.ConstantTimeCompare(given, a.email) == 1
	passwordOK := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
	if !emailOK || !passwordOK {
		return ErrInvalidCredentials
	}
	return nil
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
