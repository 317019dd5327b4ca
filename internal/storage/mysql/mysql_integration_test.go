//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"review_analyzer/internal/domain"
	mysqlrepo "review_analyzer/internal/storage/mysql"
)

// ---------- small helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=product_review_db",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "product_review_db")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func seedReview(t *testing.T, repo *mysqlrepo.Repo, product string, s domain.Sentiment, conf float64, at time.Time) domain.Review {
	t.Helper()
	rev, err := repo.Insert(context.Background(), domain.Review{
		ProductName: product,
		ReviewText:  "text for " + product,
		Sentiment:   s,
		Confidence:  conf,
		KeyPoints:   []string{"kp1", "kp2"},
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return rev
}

// ---------- the test ----------

func TestRepo_MySQL_InsertAndQuery(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	seedReview(t, repo, "Widget Pro", domain.SentimentPositive, 0.95, base)
	seedReview(t, repo, "Widget Mini", domain.SentimentPositive, 0.70, base.Add(time.Hour))
	seedReview(t, repo, "Gadget", domain.SentimentNegative, 0.80, base.Add(2*time.Hour))
	seedReview(t, repo, "Gizmo", domain.SentimentNeutral, 0.60, base.Add(3*time.Hour))

	// Default sort is newest first.
	page, err := repo.List(ctx, domain.ReviewsQuery{Sort: domain.SortCreatedDesc, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 4 || len(page.Items) != 4 {
		t.Fatalf("total=%d items=%d", page.Total, len(page.Items))
	}
	if page.Items[0].ProductName != "Gizmo" {
		t.Fatalf("expected newest first, got %s", page.Items[0].ProductName)
	}
	if got := page.Items[0].KeyPoints; len(got) != 2 || got[0] != "kp1" {
		t.Fatalf("key points did not round trip: %v", got)
	}

	// Sentiment filter plus case-insensitive product substring.
	pos := domain.SentimentPositive
	name := "widget"
	page, err = repo.List(ctx, domain.ReviewsQuery{
		Sentiment: &pos, ProductName: &name,
		Sort: domain.SortCreatedDesc, Page: 1, PageSize: 10,
	})
	if err != nil {
		t.Fatalf("List filtered: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("filtered total=%d", page.Total)
	}

	// Confidence ascending is non-decreasing across the page.
	page, err = repo.List(ctx, domain.ReviewsQuery{Sort: domain.SortConfidenceAsc, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("List sorted: %v", err)
	}
	for i := 1; i < len(page.Items); i++ {
		if page.Items[i].Confidence < page.Items[i-1].Confidence {
			t.Fatalf("confidence not ascending at %d", i)
		}
	}

	// Total stays independent of pagination.
	page, err = repo.List(ctx, domain.ReviewsQuery{Sort: domain.SortCreatedDesc, Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("List paged: %v", err)
	}
	if page.Total != 4 || len(page.Items) != 1 {
		t.Fatalf("paged: total=%d items=%d", page.Total, len(page.Items))
	}

	// Aggregate counts.
	st, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Total != 4 || st.Positive != 2 || st.Negative != 1 || st.Neutral != 1 {
		t.Fatalf("stats: %+v", st)
	}

	// Reannotation path.
	texts, err := repo.ListTexts(ctx)
	if err != nil || len(texts) != 4 {
		t.Fatalf("ListTexts: %v (%d)", err, len(texts))
	}
	if err := repo.UpdateAnnotations(ctx, texts[0].ID, domain.SentimentNegative, 0.66, []string{"changed"}); err != nil {
		t.Fatalf("UpdateAnnotations: %v", err)
	}
	st, _ = repo.Stats(ctx)
	if st.Negative != 2 {
		t.Fatalf("stats after update: %+v", st)
	}
}
