// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package api

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/folio/internal/database"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/validation"
)

// MaxBodyBytes caps every JSON request body. Blog content is the largest
// payload.
const MaxBodyBytes = 1 << 20

// maxSearchLength bounds free-text search parameters.
const maxSearchLength = 100

var (
	errBodyTooLarge = errors.New("request body too large")
	errNotObject    = errors.New("request body must be a JSON object")
	errTrailingData = errors.New("request body must contain a single JSON object")
)

// normalizer is implemented by request models that trim and canonicalize
// their fields before validation.
type normalizer interface {
	Normalize()
}

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errBodyTooLarge
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}

// bind decodes, normalizes and validates a request body, writing the error
// response itself. It reports whether the handler should continue.
func bind(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		if errors.Is(err, errBodyTooLarge) {
			rw.Error(http.StatusRequestEntityTooLarge, ErrCodeBadRequest, err.Error())
			return false
		}
		rw.BadRequest(err.Error())
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.Normalize()
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return false
	}
	return true
}

// parseID reads a positive integer path parameter.
func parseID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.NewFieldError(name, "id", name+" must be a positive integer")
	}
	return id, nil
}

// pathID parses the "id" path parameter and writes a 400 on failure.
func pathID(rw *ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(r, "id")
	if err != nil {
		writeParamError(rw, err)
		return 0, false
	}
	return id, true
}

// writeParamError reports a path or query parameter failure.
func writeParamError(rw *ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}
	rw.BadRequest(err.Error())
}

// getIntParam reads an integer query parameter. A missing value yields def;
// a value outside [min, max] is an error.
func getIntParam(r *http.Request, name string, def, minVal, maxVal int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.NewFieldError(name, "numeric", name+" must be an integer")
	}
	if v < minVal || v > maxVal {
		return 0, validation.NewFieldError(name, "range",
			fmt.Sprintf("%s must be between %d and %d", name, minVal, maxVal))
	}
	return v, nil
}

// getSearchParam returns the trimmed search string, cut to maxSearchLength runes.
func getSearchParam(r *http.Request) string {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	if runes := []rune(search); len(runes) > maxSearchLength {
		search = string(runes[:maxSearchLength])
	}
	return search
}

// getTagsParam accepts tags=a,b as well as repeated tags parameters.
func getTagsParam(r *http.Request) []string {
	var tags []string
	for _, v := range r.URL.Query()["tags"] {
		tags = append(tags, strings.Split(v, ",")...)
	}
	return models.NormalizeTags(tags)
}

// EncodeCursor renders a keyset position as an opaque URL-safe token.
func EncodeCursor(c *models.BlogCursor) (string, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to encode cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (*models.BlogCursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, errors.New("malformed cursor")
	}
	var c models.BlogCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, errors.New("malformed cursor")
	}
	if c.ID <= 0 || c.CreatedAt.IsZero() {
		return nil, errors.New("malformed cursor")
	}
	return &c, nil
}

// respondStoreError maps storage errors onto the envelope. what names the
// resource in 404 and 409 messages.
func respondStoreError(rw *ResponseWriter, r *http.Request, err error, what string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		rw.NotFound(what + " not found")
	case errors.Is(err, database.ErrConflict):
		rw.Conflict(what + " already exists")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("resource", what).Msg("Database operation failed")
		rw.DatabaseError("Failed to process request")
	}
}
