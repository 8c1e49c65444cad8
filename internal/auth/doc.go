// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

/*
Package auth implements the single-administrator login for the Folio console.

# Overview

There is exactly one admin account, configured through security.admin_email
and security.admin_password. The password is hashed with bcrypt once at
startup and the plaintext is never kept.

A successful login creates a server-side Session and issues an HS256 JWT
whose jti claim is the session id. The token travels in an HttpOnly cookie
(or an Authorization: Bearer header for scripts). Every admin request must
present a token with a valid signature AND a live session, so logging out
revokes the token immediately even though the JWT itself has not expired.

# Components

  - JWTManager: token signing and validation (HS256 only)
  - SessionStore: Create/Get/Delete/Touch/CleanupExpired with a memory
    implementation and a BadgerDB implementation that survives restarts
  - AdminAuthenticator: constant-time credential check
  - LockoutManager: temporary lockout by e-mail and by client IP after
    repeated failures, with exponential backoff
  - Service: login, logout and token authentication built from the above
  - Middleware: RequireAdmin for chi route groups

# Errors

Login failures never reveal which half of the credentials was wrong;
callers map ErrInvalidCredentials to a generic 401 and *LockedError to
429 with a Retry-After header.
*/
package auth
