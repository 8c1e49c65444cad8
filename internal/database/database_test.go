// Folio - Portfolio and Blog Server
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/models"
)

// testDBSemaphore limits concurrent DuckDB instances; CGO calls can stall
// when many in-memory databases open at once.
var (
	testDBSemaphore = make(chan struct{}, 4)
	testDBMutex     sync.Mutex
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
		Threads:   1,
	}

	type result struct {
		db  *DB
		err error
	}
	resultCh := make(chan result, 1)
	go func() {
		testDBMutex.Lock()
		db, err := New(cfg)
		testDBMutex.Unlock()
		resultCh <- result{db, err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			t.Fatalf("Failed to create test database: %v", res.err)
		}
		t.Cleanup(func() {
			if err := res.db.Close(); err != nil {
				t.Logf("Failed to close test database: %v", err)
			}
		})
		return res.db
	case <-time.After(60 * time.Second):
		t.Fatal("Timed out creating test database")
		return nil
	}
}

func testBlogInput(slug string, published bool, tags ...string) *models.BlogInput {
	return &models.BlogInput{
		Title:       "Post " + slug,
		Slug:        slug,
		Description: "About " + slug,
		Content:     []byte(`{"blocks": [ {"type": "paragraph", "text": "hi"} ]}`),
		Published:   published,
		Tags:        tags,
	}
}

func mustCreateBlog(t *testing.T, db *DB, in *models.BlogInput) *models.Blog {
	t.Helper()
	b, err := db.CreateBlog(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateBlog(%s) error = %v", in.Slug, err)
	}
	return b
}

func TestNew_AppliesMigrations(t *testing.T) {
	db := setupTestDB(t)

	version, err := db.GetCurrentSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion() error = %v", err)
	}
	if want := migrations[len(migrations)-1].Version; version != want {
		t.Errorf("schema version = %d, want %d", version, want)
	}

	// Re-running is a no-op.
	if err := db.runVersionedMigrations(); err != nil {
		t.Errorf("second runVersionedMigrations() error = %v", err)
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestProfile_Upsert(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p, err := db.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if p != nil {
		t.Fatalf("GetProfile() on empty db = %+v, want nil", p)
	}

	in := &models.ProfileInput{Name: "Ada", Description: "Engineer", Email: "ada@example.com"}
	p, err = db.UpsertProfile(ctx, in)
	if err != nil {
		t.Fatalf("UpsertProfile() error = %v", err)
	}
	if p.Name != "Ada" || p.Email != "ada@example.com" {
		t.Errorf("UpsertProfile() = %+v", p)
	}

	in.Name = "Ada L."
	p, err = db.UpsertProfile(ctx, in)
	if err != nil {
		t.Fatalf("second UpsertProfile() error = %v", err)
	}
	if p.Name != "Ada L." || p.ID != profileRowID {
		t.Errorf("profile after update = %+v", p)
	}
}

func TestProjects_CRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, err := db.CreateProject(ctx, &models.ProjectInput{
		Title:       "Folio",
		Description: "This site",
		Tech:        []models.TechItem{{Name: "Go", Icon: "https://example.com/go.svg"}},
	})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if len(first.Tech) != 1 || first.Tech[0].Name != "Go" {
		t.Errorf("tech = %+v", first.Tech)
	}
	second, err := db.CreateProject(ctx, &models.ProjectInput{Title: "Other", Description: "More"})
	if err != nil {
		t.Fatalf("CreateProject() error = %v", err)
	}
	if second.Tech == nil {
		t.Error("Tech should be an empty slice, not nil")
	}

	asc, err := db.ListProjects(ctx, false)
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}
	if len(asc) != 2 || asc[0].ID != first.ID {
		t.Errorf("ascending order wrong: %+v", asc)
	}
	desc, err := db.ListProjects(ctx, true)
	if err != nil {
		t.Fatalf("ListProjects(newestFirst) error = %v", err)
	}
	if desc[0].ID != second.ID {
		t.Errorf("descending order wrong: first id = %d", desc[0].ID)
	}

	updated, err := db.UpdateProject(ctx, first.ID, &models.ProjectInput{Title: "Folio 2", Description: "Rewritten"})
	if err != nil {
		t.Fatalf("UpdateProject() error = %v", err)
	}
	if updated.Title != "Folio 2" || len(updated.Tech) != 0 {
		t.Errorf("UpdateProject() = %+v", updated)
	}

	if err := db.DeleteProject(ctx, first.ID); err != nil {
		t.Fatalf("DeleteProject() error = %v", err)
	}
	if _, err := db.GetProject(ctx, first.ID); err != ErrNotFound {
		t.Errorf("GetProject() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.DeleteProject(ctx, first.ID); err != ErrNotFound {
		t.Errorf("second DeleteProject() error = %v, want ErrNotFound", err)
	}
	if _, err := db.UpdateProject(ctx, 9999, &models.ProjectInput{Title: "x", Description: "y"}); err != ErrNotFound {
		t.Errorf("UpdateProject(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBlogs_CreateCompactsContentAndStoresTags(t *testing.T) {
	db := setupTestDB(t)

	b := mustCreateBlog(t, db, testBlogInput("hello-world", false, "go", "web"))
	if string(b.Content) != `{"blocks":[{"type":"paragraph","text":"hi"}]}` {
		t.Errorf("content = %s", b.Content)
	}
	if len(b.Tags) != 2 || b.Tags[0] != "go" || b.Tags[1] != "web" {
		t.Errorf("tags = %v", b.Tags)
	}
	if b.Published {
		t.Error("post should be a draft")
	}
	if b.Likes != 0 {
		t.Errorf("likes = %d, want 0", b.Likes)
	}
}

func TestBlogs_SlugConflictLeavesTagsUntouched(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreateBlog(t, db, testBlogInput("taken", true, "a"))
	other := mustCreateBlog(t, db, testBlogInput("other", true, "b"))

	if _, err := db.CreateBlog(ctx, testBlogInput("taken", true, "c")); !isConflict(err) {
		t.Errorf("CreateBlog(dup slug) error = %v, want ErrConflict", err)
	}

	if _, err := db.UpdateBlog(ctx, other.ID, testBlogInput("taken", true, "z")); !isConflict(err) {
		t.Errorf("UpdateBlog(dup slug) error = %v, want ErrConflict", err)
	}
	got, err := db.GetBlog(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetBlog() error = %v", err)
	}
	if got.Slug != "other" || len(got.Tags) != 1 || got.Tags[0] != "b" {
		t.Errorf("post changed by failed update: slug=%s tags=%v", got.Slug, got.Tags)
	}
}

func TestBlogs_UpdateReplacesTags(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := mustCreateBlog(t, db, testBlogInput("post", false, "one", "two"))
	in := testBlogInput("post", true, "three")
	in.Order = 5
	updated, err := db.UpdateBlog(ctx, b.ID, in)
	if err != nil {
		t.Fatalf("UpdateBlog() error = %v", err)
	}
	if len(updated.Tags) != 1 || updated.Tags[0] != "three" {
		t.Errorf("tags = %v, want [three]", updated.Tags)
	}
	if !updated.Published || updated.Order != 5 {
		t.Errorf("UpdateBlog() = %+v", updated)
	}
	if updated.UpdatedAt.Before(b.UpdatedAt) {
		t.Error("updated_at went backwards")
	}

	if _, err := db.UpdateBlog(ctx, 9999, in); err != ErrNotFound {
		t.Errorf("UpdateBlog(missing) error = %v, want ErrNotFound", err)
	}
}

func TestBlogs_DeleteRemovesTags(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := mustCreateBlog(t, db, testBlogInput("doomed", true, "gone"))
	if err := db.DeleteBlog(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBlog() error = %v", err)
	}

	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE blog_id = ?`, b.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d orphan tags remain", n)
	}
	if err := db.DeleteBlog(ctx, b.ID); err != ErrNotFound {
		t.Errorf("second DeleteBlog() error = %v, want ErrNotFound", err)
	}
}

func TestBlogs_ListPagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, slug := range []string{"alpha-go", "beta", "gamma-go", "delta"} {
		mustCreateBlog(t, db, testBlogInput(slug, false))
	}

	page, err := db.ListBlogs(ctx, models.BlogListQuery{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("ListBlogs() error = %v", err)
	}
	if page.Total != 4 || page.TotalPages != 2 || len(page.Data) != 1 {
		t.Errorf("page = total %d, pages %d, len %d", page.Total, page.TotalPages, len(page.Data))
	}
	if page.Data[0].Slug != "alpha-go" {
		t.Errorf("oldest post should be last, got %s", page.Data[0].Slug)
	}

	page, err = db.ListBlogs(ctx, models.BlogListQuery{Search: "GO"})
	if err != nil {
		t.Fatalf("ListBlogs(search) error = %v", err)
	}
	if page.Total != 2 || page.Page != 1 || page.PageSize != 10 {
		t.Errorf("search page = %+v", page)
	}
}

func TestBlogs_SetPublished(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := mustCreateBlog(t, db, testBlogInput("draft", false))
	got, err := db.SetPublished(ctx, b.ID, true)
	if err != nil {
		t.Fatalf("SetPublished() error = %v", err)
	}
	if !got.Published {
		t.Error("post should be published")
	}
	if _, err := db.SetPublished(ctx, 424242, true); err != ErrNotFound {
		t.Errorf("SetPublished(missing) error = %v, want ErrNotFound", err)
	}
}

func TestPublicBlogs_CursorWalk(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, slug := range []string{"p1", "p2", "p3", "p4", "p5"} {
		mustCreateBlog(t, db, testBlogInput(slug, true))
	}
	mustCreateBlog(t, db, testBlogInput("hidden", false))

	var seen []string
	var cursor *models.BlogCursor
	for i := 0; i < 10; i++ {
		blogs, next, err := db.ListPublicBlogs(ctx, models.PublicBlogQuery{Cursor: cursor, PageSize: 2})
		if err != nil {
			t.Fatalf("ListPublicBlogs() error = %v", err)
		}
		for _, b := range blogs {
			if len(b.Content) != 0 {
				t.Errorf("list item %s carries content", b.Slug)
			}
			seen = append(seen, b.Slug)
		}
		if next == nil {
			break
		}
		cursor = next
	}

	want := []string{"p5", "p4", "p3", "p2", "p1"}
	if len(seen) != len(want) {
		t.Fatalf("walked %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestPublicBlogs_ExactPageHasNoCursor(t *testing.T) {
	db := setupTestDB(t)

	mustCreateBlog(t, db, testBlogInput("a", true))
	mustCreateBlog(t, db, testBlogInput("b", true))

	blogs, next, err := db.ListPublicBlogs(context.Background(), models.PublicBlogQuery{PageSize: 2})
	if err != nil {
		t.Fatalf("ListPublicBlogs() error = %v", err)
	}
	if len(blogs) != 2 || next != nil {
		t.Errorf("got %d posts and cursor %v, want 2 and nil", len(blogs), next)
	}
}

func TestPublicBlogs_TagFilterDoesNotDuplicate(t *testing.T) {
	db := setupTestDB(t)

	mustCreateBlog(t, db, testBlogInput("both", true, "go", "db"))
	mustCreateBlog(t, db, testBlogInput("go-only", true, "go"))
	mustCreateBlog(t, db, testBlogInput("neither", true, "css"))
	mustCreateBlog(t, db, testBlogInput("draft", false, "go"))

	blogs, _, err := db.ListPublicBlogs(context.Background(), models.PublicBlogQuery{
		PageSize: 10,
		Tags:     []string{"go", "db"},
	})
	if err != nil {
		t.Fatalf("ListPublicBlogs() error = %v", err)
	}
	if len(blogs) != 2 {
		t.Fatalf("got %d posts, want 2", len(blogs))
	}
	if blogs[0].Slug != "go-only" || blogs[1].Slug != "both" {
		t.Errorf("order = %s, %s", blogs[0].Slug, blogs[1].Slug)
	}
	if len(blogs[1].Tags) != 2 {
		t.Errorf("tags on %s = %v", blogs[1].Slug, blogs[1].Tags)
	}
}

func TestPublicBlogs_DetailSuggestionsLatestTags(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for _, slug := range []string{"a", "b", "c", "d"} {
		mustCreateBlog(t, db, testBlogInput(slug, true, "t-"+slug))
	}
	draft := mustCreateBlog(t, db, testBlogInput("draft", false, "secret"))

	b, err := db.GetPublishedBlogBySlug(ctx, "b")
	if err != nil {
		t.Fatalf("GetPublishedBlogBySlug() error = %v", err)
	}
	if len(b.Content) == 0 {
		t.Error("detail should include content")
	}
	if _, err := db.GetPublishedBlogBySlug(ctx, "draft"); err != ErrNotFound {
		t.Errorf("draft lookup error = %v, want ErrNotFound", err)
	}

	suggestions, err := db.Suggestions(ctx, b.ID, SuggestionCount)
	if err != nil {
		t.Fatalf("Suggestions() error = %v", err)
	}
	if len(suggestions) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(suggestions))
	}
	for _, s := range suggestions {
		if s.ID == b.ID || s.ID == draft.ID {
			t.Errorf("unexpected suggestion %s", s.Slug)
		}
	}

	latest, err := db.LatestBlogs(ctx, LatestCount)
	if err != nil {
		t.Fatalf("LatestBlogs() error = %v", err)
	}
	if len(latest) != 3 || latest[0].Slug != "d" {
		t.Errorf("latest = %v", latest)
	}

	tags, err := db.PublicTags(ctx)
	if err != nil {
		t.Fatalf("PublicTags() error = %v", err)
	}
	want := []string{"t-a", "t-b", "t-c", "t-d"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags[%d] = %s, want %s", i, tags[i], want[i])
		}
	}

	ok, err := db.IsPublished(ctx, draft.ID)
	if err != nil || ok {
		t.Errorf("IsPublished(draft) = %v, %v", ok, err)
	}
	ok, err = db.IsPublished(ctx, b.ID)
	if err != nil || !ok {
		t.Errorf("IsPublished(published) = %v, %v", ok, err)
	}

	entries, err := db.SitemapEntries(ctx)
	if err != nil {
		t.Fatalf("SitemapEntries() error = %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("got %d sitemap entries, want 4", len(entries))
	}
}

func TestIncrementLikes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	a := mustCreateBlog(t, db, testBlogInput("a", true))
	b := mustCreateBlog(t, db, testBlogInput("b", true))

	if err := db.IncrementLikes(ctx, map[int64]int64{a.ID: 3, b.ID: 1, 9999: 7}); err != nil {
		t.Fatalf("IncrementLikes() error = %v", err)
	}
	if err := db.IncrementLikes(ctx, map[int64]int64{a.ID: 2}); err != nil {
		t.Fatalf("IncrementLikes() error = %v", err)
	}

	if n, _ := db.GetLikes(ctx, a.ID); n != 5 {
		t.Errorf("likes(a) = %d, want 5", n)
	}
	if n, _ := db.GetLikes(ctx, b.ID); n != 1 {
		t.Errorf("likes(b) = %d, want 1", n)
	}
	if _, err := db.GetLikes(ctx, 9999); err != ErrNotFound {
		t.Errorf("GetLikes(missing) error = %v, want ErrNotFound", err)
	}
	if err := db.IncrementLikes(ctx, nil); err != nil {
		t.Errorf("IncrementLikes(nil) error = %v", err)
	}
}

func TestSubscribers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	created, err := db.Subscribe(ctx, "  Reader@Example.com ")
	if err != nil || !created {
		t.Fatalf("Subscribe() = %v, %v", created, err)
	}
	created, err = db.Subscribe(ctx, "reader@example.com")
	if err != nil || created {
		t.Fatalf("duplicate Subscribe() = %v, %v; want false, nil", created, err)
	}

	subs, err := db.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListSubscribers() error = %v", err)
	}
	if len(subs) != 1 || subs[0].Email != "reader@example.com" || !subs[0].Active {
		t.Fatalf("subscribers = %+v", subs)
	}

	if err := db.SetSubscriberActive(ctx, subs[0].ID, false); err != nil {
		t.Fatalf("SetSubscriberActive() error = %v", err)
	}
	// Re-subscribing does not reactivate.
	if created, _ := db.Subscribe(ctx, "reader@example.com"); created {
		t.Error("re-subscribe reported created")
	}
	active, err := db.ListActiveSubscribers(ctx)
	if err != nil {
		t.Fatalf("ListActiveSubscribers() error = %v", err)
	}
	if len(active) != 0 {
		t.Errorf("inactive subscriber was reactivated: %+v", active)
	}

	if err := db.DeleteSubscriber(ctx, subs[0].ID); err != nil {
		t.Fatalf("DeleteSubscriber() error = %v", err)
	}
	if err := db.DeleteSubscriber(ctx, subs[0].ID); err != ErrNotFound {
		t.Errorf("second DeleteSubscriber() error = %v, want ErrNotFound", err)
	}
	if err := db.SetSubscriberActive(ctx, subs[0].ID, true); err != ErrNotFound {
		t.Errorf("SetSubscriberActive(missing) error = %v, want ErrNotFound", err)
	}
}

func TestContacts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first, err := db.CreateContact(ctx, models.Contact{
		FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil", Message: "Hello there, world",
	})
	if err != nil {
		t.Fatalf("CreateContact() error = %v", err)
	}
	if first.ID == 0 || first.CreatedAt.IsZero() {
		t.Errorf("CreateContact() = %+v", first)
	}
	if _, err := db.CreateContact(ctx, models.Contact{
		FirstName: "Alan", LastName: "Turing", Email: "alan@example.org", Message: "Another message",
	}); err != nil {
		t.Fatalf("CreateContact() error = %v", err)
	}

	all, err := db.ListContacts(ctx, "")
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if len(all) != 2 || all[0].FirstName != "Alan" {
		t.Errorf("contacts = %+v", all)
	}

	found, err := db.ListContacts(ctx, "NAVY")
	if err != nil {
		t.Fatalf("ListContacts(search) error = %v", err)
	}
	if len(found) != 1 || found[0].ID != first.ID {
		t.Errorf("search result = %+v", found)
	}

	got, err := db.GetContact(ctx, first.ID)
	if err != nil || got.Email != "grace@navy.mil" {
		t.Errorf("GetContact() = %+v, %v", got, err)
	}
	if err := db.DeleteContact(ctx, first.ID); err != nil {
		t.Fatalf("DeleteContact() error = %v", err)
	}
	if _, err := db.GetContact(ctx, first.ID); err != ErrNotFound {
		t.Errorf("GetContact() after delete error = %v, want ErrNotFound", err)
	}
}

func isConflict(err error) bool {
	return err != nil && errors.Is(err, ErrConflict)
}

func TestExportAndTableCounts(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	mustCreateBlog(t, db, testBlogInput("exported", true, "go", "duckdb"))

	counts, err := db.TableCounts(ctx)
	if err != nil {
		t.Fatalf("TableCounts() error = %v", err)
	}
	if counts["blogs"] != 1 || counts["tags"] != 2 || counts["subscribers"] != 0 {
		t.Errorf("counts = %v", counts)
	}

	dir := filepath.Join(t.TempDir(), "it's exported")
	if err := db.Export(ctx, dir); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	for _, name := range []string{"schema.sql", "load.sql"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("export is missing %s: %v", name, err)
		}
	}
}

func TestQuoteLiteral(t *testing.T) {
	t.Parallel()

	if got := quoteLiteral("a'b"); got != "'a''b'" {
		t.Errorf("quoteLiteral() = %s", got)
	}
}
