// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

// Package models defines Folio's domain types and request payloads.
//
// Request types carry go-playground/validator tags and a Normalize method
// that trims user input. Handlers always call Normalize before validation so
// that whitespace-only values fail "required".
package models

import (
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Profile is the site owner's single profile row.
type Profile struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Headline    string    `json:"headline"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	ResumeLink  string    `json:"resume_link"`
	Twitter     string    `json:"twitter"`
	Github      string    `json:"github"`
	Linkedin    string    `json:"linkedin"`
	Email       string    `json:"email"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileInput is the admin profile upsert payload.
type ProfileInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Headline    string `json:"headline" validate:"max=200"`
	Description string `json:"description" validate:"required,max=5000"`
	Image       string `json:"image" validate:"urlorempty,max=2048"`
	ResumeLink  string `json:"resume_link" validate:"urlorempty,max=2048"`
	Twitter     string `json:"twitter" validate:"urlorempty,max=2048"`
	Github      string `json:"github" validate:"urlorempty,max=2048"`
	Linkedin    string `json:"linkedin" validate:"urlorempty,max=2048"`
	Email       string `json:"email" validate:"emailorempty,max=254"`
}

// Normalize trims every field.
func (in *ProfileInput) Normalize() {
	for _, s := range []*string{
		&in.Name, &in.Headline, &in.Description, &in.Image, &in.ResumeLink,
		&in.Twitter, &in.Github, &in.Linkedin, &in.Email,
	} {
		*s = strings.TrimSpace(*s)
	}
}

// TechItem is one technology badge on a project card.
type TechItem struct {
	Name string `json:"name" validate:"required,max=50"`
	Icon string `json:"icon" validate:"max=2048"`
}

// Project is a portfolio entry.
type Project struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       string     `json:"image"`
	Github      string     `json:"github"`
	Link        string     `json:"link"`
	Tech        []TechItem `json:"tech"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProjectInput is the admin create/update payload for projects.
type ProjectInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"required,max=2000"`
	Image       string     `json:"image" validate:"urlorempty,max=2048"`
	Github      string     `json:"github" validate:"urlorempty,max=2048"`
	Link        string     `json:"link" validate:"urlorempty,max=2048"`
	Tech        []TechItem `json:"tech" validate:"max=30,dive"`
}

// Normalize trims text fields and tech item names.
func (in *ProjectInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Image = strings.TrimSpace(in.Image)
	in.Github = strings.TrimSpace(in.Github)
	in.Link = strings.TrimSpace(in.Link)
	for i := range in.Tech {
		in.Tech[i].Name = strings.TrimSpace(in.Tech[i].Name)
		in.Tech[i].Icon = strings.TrimSpace(in.Tech[i].Icon)
	}
	if in.Tech == nil {
		in.Tech = []TechItem{}
	}
}

// Blog is a blog post. Content holds the block editor's document verbatim and
// is omitted from list responses.
type Blog struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description"`
	Content     json.RawMessage `json:"content,omitempty"`
	ThumbImage  string          `json:"thumb_image"`
	Published   bool            `json:"published"`
	Order       int             `json:"order"`
	Likes       int64           `json:"likes"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BlogDetail is a published post with reading suggestions.
type BlogDetail struct {
	Blog
	Suggestions []Blog `json:"suggestions"`
}

// BlogInput is the admin create/update payload for posts.
type BlogInput struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Slug        string          `json:"slug" validate:"required,max=200,slug"`
	Description string          `json:"description" validate:"required,max=1000"`
	Content     json.RawMessage `json:"content" validate:"required,jsondoc"`
	ThumbImage  string          `json:"thumb_image" validate:"urlorempty,max=2048"`
	Published   bool            `json:"published"`
	Order       int             `json:"order" validate:"min=0,max=1000000"`
	Tags        []string        `json:"tags" validate:"max=20,dive,max=50"`
}

// Normalize trims text fields, lower-cases the slug and cleans the tag list.
func (in *BlogInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	in.Description = strings.TrimSpace(in.Description)
	in.ThumbImage = strings.TrimSpace(in.ThumbImage)
	in.Tags = NormalizeTags(in.Tags)
}

// NormalizeTags trims tags, drops empty ones and removes duplicates while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// PublishRequest toggles a post's visibility.
type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// BlogPage is one page of the admin post list.
type BlogPage struct {
	Data       []Blog `json:"data"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}

// BlogListQuery filters the admin post list.
type BlogListQuery struct {
	Page     int
	PageSize int
	Search   string
}

// BlogCursor is the keyset position of the last post on a public page.
type BlogCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        int64     `json:"i"`
}

// PublicBlogQuery filters the public post list.
type PublicBlogQuery struct {
	Cursor   *BlogCursor
	PageSize int
	Search   string
	Tags     []string
}

// PublicBlogPage is one page of the public post list.
type PublicBlogPage struct {
	Blogs      []Blog  `json:"blogs"`
	NextCursor *string `json:"next_cursor"`
}

// LikeRequest carries the clicks a reader accumulated since the last flush.
type LikeRequest struct {
	Increment int `json:"increment" validate:"required,min=1"`
}

// LikeResult is the post's like count including unflushed increments.
type LikeResult struct {
	ID    int64 `json:"id"`
	Likes int64 `json:"likes"`
}

// SitemapEntry is one published post in the sitemap.
type SitemapEntry struct {
	Slug      string
	UpdatedAt time.Time
}
