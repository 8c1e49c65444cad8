// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

func TestNewRenderer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{"https://example.com", "https://example.com", false},
		{"https://example.com/", "https://example.com", false},
		{"http://localhost:3857", "http://localhost:3857", false},
		{"example.com", "", true},
		{"ftp://example.com", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		r, err := NewRenderer(tt.base)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewRenderer(%q) error = %v, wantErr %v", tt.base, err, tt.wantErr)
			continue
		}
		if err == nil && r.BaseURL() != tt.want {
			t.Errorf("BaseURL() = %q, want %q", r.BaseURL(), tt.want)
		}
	}
}

func TestSitemap(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer("https://example.com/")
	if err != nil {
		t.Fatal(err)
	}
	today := time.Date(2026, 3, 4, 22, 0, 0, 0, time.UTC)
	posts := []models.SitemapEntry{
		{Slug: "hello-world", UpdatedAt: time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)},
	}

	body, err := r.Sitemap(posts, today)
	if err != nil {
		t.Fatalf("Sitemap() error = %v", err)
	}
	if !strings.HasPrefix(string(body), "<?xml") {
		t.Error("missing XML header")
	}

	var parsed urlSet
	if err := xml.Unmarshal(body, &parsed); err != nil {
		t.Fatalf("sitemap does not parse: %v", err)
	}
	if !strings.Contains(string(body), `xmlns="`+sitemapNamespace+`"`) {
		t.Error("urlset namespace missing")
	}
	if len(parsed.URLs) != len(StaticPaths)+1 {
		t.Fatalf("got %d urls, want %d", len(parsed.URLs), len(StaticPaths)+1)
	}

	home := parsed.URLs[0]
	if home.Loc != "https://example.com" || home.LastMod != "2026-03-04" {
		t.Errorf("home entry = %+v", home)
	}
	post := parsed.URLs[len(parsed.URLs)-1]
	if post.Loc != "https://example.com/blogs/hello-world" || post.LastMod != "2026-02-01" {
		t.Errorf("post entry = %+v", post)
	}
	for _, u := range parsed.URLs {
		if u.ChangeFreq != "daily" || u.Priority != "0.7" {
			t.Errorf("entry %s has changefreq %q priority %q", u.Loc, u.ChangeFreq, u.Priority)
		}
	}
}

func TestRobots(t *testing.T) {
	t.Parallel()

	r, _ := NewRenderer("https://example.com")
	want := "User-agent: *\nAllow: /\nDisallow: /admin/\nSitemap: https://example.com/sitemap.xml\n"
	if got := r.Robots(); got != want {
		t.Errorf("Robots() = %q, want %q", got, want)
	}
}
