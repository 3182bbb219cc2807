package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/darkodi/urlshorten/internal/model"
)

func setupTestRepo(t *testing.T) *URLRepository {
	t.Helper()
	// Use in-memory SQLite for tests
	repo, err := NewURLRepository(":memory:")
	if err != nil {
		t.Fatalf("Failed to create repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestParseDBURL(t *testing.T) {
	tests := []struct {
		input      string
		wantDriver string
		wantDSN    string
	}{
		{"postgres://u:p@localhost/db?sslmode=disable", "postgres", "postgres://u:p@localhost/db?sslmode=disable"},
		{"postgresql://localhost/db", "postgres", "postgresql://localhost/db"},
		{"sqlite://./data/urls.db", "sqlite3", "./data/urls.db"},
		{"file:test.db?cache=shared", "sqlite3", "file:test.db?cache=shared"},
		{":memory:", "sqlite3", ":memory:"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			driver, dsn := parseDBURL(tt.input)
			if driver != tt.wantDriver || dsn != tt.wantDSN {
				t.Errorf("parseDBURL(%q) = (%s, %s); want (%s, %s)",
					tt.input, driver, dsn, tt.wantDriver, tt.wantDSN)
			}
		})
	}
}

func TestRebind(t *testing.T) {
	q := "SELECT id, url FROM shortenedurls ORDER BY id DESC LIMIT ? OFFSET ?"
	if got := sqliteDialect.rebind(q); got != q {
		t.Errorf("sqlite rebind changed query: %s", got)
	}
	want := "SELECT id, url FROM shortenedurls ORDER BY id DESC LIMIT $1 OFFSET $2"
	if got := postgresDialect.rebind(q); got != want {
		t.Errorf("postgres rebind = %s; want %s", got, want)
	}
}

func TestNewURLRepository_EmptyURL(t *testing.T) {
	if _, err := NewURLRepository(""); err == nil {
		t.Error("Expected error for empty database url")
	}
}

func TestCreateAndGetURL(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateURL(ctx, "https://a.com")
	if err != nil {
		t.Fatalf("CreateURL failed: %v", err)
	}
	second, err := repo.CreateURL(ctx, "https://a.com")
	if err != nil {
		t.Fatalf("CreateURL failed: %v", err)
	}
	if second <= first {
		t.Errorf("Expected increasing IDs, got %d then %d", first, second)
	}

	url, err := repo.GetURL(ctx, first)
	if err != nil {
		t.Fatalf("GetURL failed: %v", err)
	}
	if url != "https://a.com" {
		t.Errorf("Expected https://a.com, got %s", url)
	}

	if _, err := repo.GetURL(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetURL(ctx, ^uint64(0)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for out of range id, got %v", err)
	}
}

func TestListURLs_NewestFirst(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i := 1; i <= 30; i++ {
		if _, err := repo.CreateURL(ctx, fmt.Sprintf("https://example.com/%d", i)); err != nil {
			t.Fatalf("CreateURL failed: %v", err)
		}
	}

	page, err := repo.ListURLs(ctx, 25, 0)
	if err != nil {
		t.Fatalf("ListURLs failed: %v", err)
	}
	if len(page) != 25 {
		t.Fatalf("Expected 25 rows, got %d", len(page))
	}
	if page[0].ID != 30 || page[0].URL != "https://example.com/30" {
		t.Errorf("Expected newest row first, got %+v", page[0])
	}

	rest, err := repo.ListURLs(ctx, 25, 25)
	if err != nil {
		t.Fatalf("ListURLs failed: %v", err)
	}
	if len(rest) != 5 || rest[4].ID != 1 {
		t.Errorf("Expected 5 remaining rows ending with id 1, got %+v", rest)
	}
}

func TestSecretURLs(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	exists, err := repo.SecretExists(ctx, "+abcde")
	if err != nil || exists {
		t.Fatalf("Expected no secret yet, got exists=%v err=%v", exists, err)
	}

	secret := &model.SecretShortURL{ID: "+abcde", URL: "https://secret.example"}
	if err := repo.CreateSecretURL(ctx, secret); err != nil {
		t.Fatalf("CreateSecretURL failed: %v", err)
	}

	exists, err = repo.SecretExists(ctx, "+abcde")
	if err != nil || !exists {
		t.Fatalf("Expected secret to exist, got exists=%v err=%v", exists, err)
	}

	url, err := repo.GetSecretURL(ctx, "+abcde")
	if err != nil || url != "https://secret.example" {
		t.Errorf("GetSecretURL = %q, %v", url, err)
	}

	err = repo.CreateSecretURL(ctx, &model.SecretShortURL{ID: "+abcde", URL: "https://other.example"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	if _, err := repo.GetSecretURL(ctx, "+zzzzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestClosedRepository_ReturnsDriverError(t *testing.T) {
	repo := setupTestRepo(t)
	repo.Close()

	_, err := repo.GetURL(context.Background(), 1)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected storage error distinct from ErrNotFound, got %v", err)
	}
}
