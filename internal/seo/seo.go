// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package seo renders sitemap.xml and robots.txt for the public site.
package seo

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/folio/internal/models"
)

// Sitemap constants shared by every URL.
const (
	sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
	changeFreq       = "daily"
	priority         = "0.7"
	lastModLayout    = "2006-01-02"
)

// StaticPaths are the public pages that always exist. "" is the home page.
var StaticPaths = []string{"", "/contact-us", "/blogs", "/projects"}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// Renderer produces the documents for one site base URL.
type Renderer struct {
	baseURL string
}

// NewRenderer validates baseURL and strips any trailing slash.
func NewRenderer(baseURL string) (*Renderer, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid site base URL %q", baseURL)
	}
	return &Renderer{baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// BaseURL returns the normalized base.
func (r *Renderer) BaseURL() string {
	return r.baseURL
}

// Sitemap renders the static pages followed by one entry per published
// post. Static pages carry today's date as lastmod.
func (r *Renderer) Sitemap(posts []models.SitemapEntry, today time.Time) ([]byte, error) {
	set := urlSet{
		XMLNS: sitemapNamespace,
		URLs:  make([]sitemapURL, 0, len(StaticPaths)+len(posts)),
	}

	day := today.UTC().Format(lastModLayout)
	for _, p := range StaticPaths {
		set.URLs = append(set.URLs, r.entry(p, day))
	}
	for _, post := range posts {
		path := "/blogs/" + url.PathEscape(post.Slug)
		set.URLs = append(set.URLs, r.entry(path, post.UpdatedAt.UTC().Format(lastModLayout)))
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

func (r *Renderer) entry(path, lastMod string) sitemapURL {
	return sitemapURL{
		Loc:        r.baseURL + path,
		LastMod:    lastMod,
		ChangeFreq: changeFreq,
		Priority:   priority,
	}
}

// Robots renders robots.txt, pointing crawlers at the sitemap and away from
// the admin console.
func (r *Renderer) Robots() string {
	return "User-agent: *\nAllow: /\nDisallow: /admin/\nSitemap: " + r.baseURL + "/sitemap.xml\n"
}
