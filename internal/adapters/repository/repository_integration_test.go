//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/nicnocquee/spanduck/internal/adapters/repository"
	"github.com/nicnocquee/spanduck/internal/domain"
)

// setupPostgres starts a PostgreSQL container and returns a migrated handle.
func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "spanduck",
				"POSTGRES_PASSWORD": "spanduck",
				"POSTGRES_DB":       "spanduck",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("failed to get port: %v", err)
	}

	db, err := repository.Connect(repository.Config{
		DSN: fmt.Sprintf("host=%s port=%s user=spanduck password=spanduck dbname=spanduck sslmode=disable", host, port.Port()),
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := repository.AutoMigrate(ctx, db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}

func TestIntegration_Repository(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	t.Run("metadata store upserts tweets", func(t *testing.T) {
		store := repository.NewMetadataStore(db)
		id := domain.Identity{Kind: domain.SourceTweet, Value: "123"}
		first := domain.NewTweetMetadata(domain.TweetMetadata{
			TweetURL: "https://twitter.com/acme/status/123", TweetID: "123",
			Username: "acme", Content: "hello", Images: []string{"https://pbs.example/a.jpg"},
		})

		if err := store.Put(ctx, id, first); err != nil {
			t.Fatalf("Put: %v", err)
		}
		updated := first
		tweet := *first.Tweet
		tweet.Content = "edited"
		updated.Tweet = &tweet
		if err := store.Put(ctx, id, updated); err != nil {
			t.Fatalf("Put again: %v", err)
		}

		got, ok, err := store.Get(ctx, id)
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if got.Tweet.Content != "edited" {
			t.Errorf("Content: got %q, want %q", got.Tweet.Content, "edited")
		}
		if len(got.Tweet.Images) != 1 {
			t.Errorf("Images: got %v, want 1 entry", got.Tweet.Images)
		}
	})

	t.Run("metadata store keeps alias and canonical apart", func(t *testing.T) {
		store := repository.NewMetadataStore(db)
		alias := domain.Identity{Kind: domain.SourceURL, Value: "https://example.com/a"}
		page := domain.NewWebMetadata(domain.WebMetadata{URL: "https://example.com/canonical", Title: "Example"})

		if err := store.Put(ctx, alias, page); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, ok, err := store.Get(ctx, alias)
		if err != nil || !ok {
			t.Fatalf("Get: ok=%v err=%v", ok, err)
		}
		if got.Web.URL != "https://example.com/canonical" {
			t.Errorf("URL: got %q, want canonical", got.Web.URL)
		}

		_, ok, err = store.Get(ctx, domain.Identity{Kind: domain.SourceURL, Value: "https://example.com/canonical"})
		if err != nil {
			t.Fatalf("Get canonical: %v", err)
		}
		if ok {
			t.Error("canonical identity was never stored, want miss")
		}
	})

	t.Run("generated images CRUD and listing", func(t *testing.T) {
		repo := repository.NewGeneratedImageRepository(db)
		meta := domain.NewWebMetadata(domain.WebMetadata{URL: "https://example.com", Title: "Example"})
		for i, name := range []string{"cat.png", "dog.png", "catalog.png"} {
			img := &domain.GeneratedImage{
				Name: name, Type: domain.SourceURL, URL: "https://example.com",
				Image: "https://cdn.example/" + name, ImageMetadata: meta,
				UserID: "user-1", ProjectID: int64(i%2 + 1), TemplateID: 1,
			}
			if err := repo.Create(ctx, img); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if img.ID == 0 {
				t.Fatal("Create did not assign an ID")
			}
		}

		q, _ := domain.ParseListQuery("name:CAT;project_id:1", "name:asc", "", "", "")
		list, err := repo.List(ctx, q)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("List: got %d rows, want 2", len(list))
		}
		if list[0].Name != "cat.png" || list[1].Name != "catalog.png" {
			t.Errorf("order: got %s, %s", list[0].Name, list[1].Name)
		}
		if list[0].ImageMetadata.Web == nil || list[0].ImageMetadata.Web.Title != "Example" {
			t.Errorf("ImageMetadata: got %+v", list[0].ImageMetadata)
		}

		q, _ = domain.ParseListQuery("", "id:asc", "", "1", "1")
		page, err := repo.List(ctx, q)
		if err != nil {
			t.Fatalf("List range: %v", err)
		}
		if len(page) != 1 || page[0].Name != "dog.png" {
			t.Errorf("range: got %+v, want only dog.png", page)
		}

		target := list[0].ID
		if err := repo.Delete(ctx, target); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		got, err := repo.FindByID(ctx, target)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if got != nil {
			t.Errorf("FindByID after delete: got %+v, want nil", got)
		}
		if err := repo.Delete(ctx, target); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("second Delete: got %v, want ErrNotFound", err)
		}
	})

	t.Run("premium lookup", func(t *testing.T) {
		expires := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		if err := db.Create(&repository.PremiumEntity{UserID: "user-p", ExpiredAt: &expires}).Error; err != nil {
			t.Fatalf("seed premium: %v", err)
		}
		repo := repository.NewPremiumRepository(db)

		got, err := repo.FindByUserID(ctx, "user-p")
		if err != nil || got == nil {
			t.Fatalf("FindByUserID: got %v, err %v", got, err)
		}
		if !got.IsActive(time.Now()) {
			t.Error("IsActive: got false, want true")
		}

		missing, err := repo.FindByUserID(ctx, "nobody")
		if err != nil || missing != nil {
			t.Errorf("FindByUserID(nobody): got %v, err %v; want nil, nil", missing, err)
		}
	})
}
