// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package validation

import (
	"strings"
	"testing"

	"github.com/tomtom215/folio/internal/models"
)

func TestGetValidator_Singleton(t *testing.T) {
	t.Parallel()

	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same singleton instance")
	}
}

func validBlog() models.BlogInput {
	return models.BlogInput{
		Title:       "Hello",
		Slug:        "hello-world",
		Description: "First post",
		Content:     []byte(`{"block-1":{"type":"Paragraph","value":[]}}`),
		Tags:        []string{"go"},
	}
}

func TestValidateStruct_BlogInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*models.BlogInput)
		wantField string
		wantTag   string
	}{
		{"valid", func(*models.BlogInput) {}, "", ""},
		{"missing title", func(b *models.BlogInput) { b.Title = "" }, "title", "required"},
		{"bad slug uppercase", func(b *models.BlogInput) { b.Slug = "Hello" }, "slug", "slug"},
		{"bad slug double hyphen", func(b *models.BlogInput) { b.Slug = "a--b" }, "slug", "slug"},
		{"scalar content", func(b *models.BlogInput) { b.Content = []byte(`"text"`) }, "content", "jsondoc"},
		{"broken content", func(b *models.BlogInput) { b.Content = []byte(`{"a":`) }, "content", "jsondoc"},
		{"array content", func(b *models.BlogInput) { b.Content = []byte(`[1,2]`) }, "", ""},
		{"bad thumb", func(b *models.BlogInput) { b.ThumbImage = "not a url" }, "thumb_image", "urlorempty"},
		{"negative order", func(b *models.BlogInput) { b.Order = -1 }, "order", "min"},
		{"long tag", func(b *models.BlogInput) { b.Tags = []string{strings.Repeat("x", 51)} }, "tags[0]", "max"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := validBlog()
			tt.mutate(&in)
			verr := ValidateStruct(&in)
			if tt.wantField == "" {
				if verr != nil {
					t.Fatalf("unexpected validation error: %v", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("expected validation error")
			}
			got := verr.Errors()[0]
			if got.Field() != tt.wantField || got.Tag() != tt.wantTag {
				t.Errorf("got field=%q tag=%q, want field=%q tag=%q", got.Field(), got.Tag(), tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_ContactMessages(t *testing.T) {
	t.Parallel()

	req := models.ContactRequest{
		FirstName:      "J",
		LastName:       "Doe",
		Email:          "not-an-email",
		Message:        "short",
		TurnstileToken: "tok",
	}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	msg := verr.Error()
	for _, want := range []string{
		"first_name must be at least 2 characters",
		"email must be a valid email address",
		"message must be at least 10 characters",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	details := verr.Details()
	fields, ok := details["errors"].([]map[string]string)
	if !ok || len(fields) != 3 {
		t.Fatalf("expected 3 detail entries, got %#v", details["errors"])
	}
}

func TestValidateStruct_NestedTech(t *testing.T) {
	t.Parallel()

	in := models.ProjectInput{
		Title:       "Folio",
		Description: "Portfolio server",
		Tech:        []models.TechItem{{Name: "Go"}, {Name: ""}},
	}
	verr := ValidateStruct(&in)
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if got := verr.Errors()[0].Field(); got != "tech[1].name" {
		t.Errorf("field = %q, want tech[1].name", got)
	}
}

func TestValidateStruct_ProfileOptionalFields(t *testing.T) {
	t.Parallel()

	in := models.ProfileInput{Name: "Jane", Description: "Engineer"}
	if verr := ValidateStruct(&in); verr != nil {
		t.Fatalf("empty optional fields should pass: %v", verr)
	}

	in.Email = "jane@"
	in.Github = "github.com/jane"
	verr := ValidateStruct(&in)
	if verr == nil || len(verr.Errors()) != 2 {
		t.Fatalf("expected 2 errors, got %v", verr)
	}
}

func TestNewFieldError(t *testing.T) {
	t.Parallel()

	verr := NewFieldError("id", "numeric", "id must be a positive integer")
	if verr.Error() != "id must be a positive integer" {
		t.Errorf("Error() = %q", verr.Error())
	}
	if verr.Errors()[0].Field() != "id" {
		t.Errorf("Field() = %q", verr.Errors()[0].Field())
	}
}
