// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package models

import (
	"strings"
	"time"
)

// Newsletter response messages shown to readers and admins.
const (
	MsgSubscribed        = "Successfully subscribed!"
	MsgAlreadySubscribed = "Already subscribed!"
	MsgSubscriberDeleted = "Subscriber deleted"
	MsgSubscriberUpdated = "Subscriber status updated"
)

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscribeRequest is the public newsletter signup payload.
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

// Normalize canonicalizes the e-mail address for case-insensitive uniqueness.
func (r *SubscribeRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

// NormalizeEmail trims and lower-cases an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SubscriberStatusRequest toggles a subscriber's active flag.
type SubscriberStatusRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Contact is a stored contact form submission.
type Contact struct {
	ID          int64     `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContactRequest is the public contact form payload.
type ContactRequest struct {
	FirstName      string `json:"first_name" validate:"required,min=2,max=100"`
	LastName       string `json:"last_name" validate:"required,min=2,max=100"`
	Email          string `json:"email" validate:"required,email,max=254"`
	PhoneNumber    string `json:"phone_number" validate:"max=32"`
	Message        string `json:"message" validate:"required,min=10,max=500"`
	TurnstileToken string `json:"turnstile_token" validate:"required,max=2048"`
}

// Normalize trims every field.
func (r *ContactRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.Message = strings.TrimSpace(r.Message)
	r.TurnstileToken = strings.TrimSpace(r.TurnstileToken)
}

// Contact converts the request into a storable submission.
func (r *ContactRequest) Contact() Contact {
	return Contact{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
		Message:     r.Message,
	}
}

// LoginRequest is the admin login payload.
type LoginRequest struct {
	Email          string `json:"email" validate:"required,email,max=254"`
	Password       string `json:"password" validate:"required,max=72"`
	TurnstileToken string `json:"turnstile_token" validate:"required,max=2048"`
}

// AuthStatus answers "is this browser signed in".
type AuthStatus struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}
