package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"review_analyzer/internal/app"
	"review_analyzer/internal/domain"
)

// ---- fakes ----

type fakeRepo struct {
	inserted  []domain.Review
	updated   map[int64][]string
	page      domain.ReviewsPage
	stats     domain.Stats
	insertErr error
	nextID    int64
}

func (f *fakeRepo) Insert(ctx context.Context, r domain.Review) (domain.Review, error) {
	if f.insertErr != nil {
		return domain.Review{}, f.insertErr
	}
	f.nextID++
	r.ID = f.nextID
	f.inserted = append(f.inserted, r)
	return r, nil
}

func (f *fakeRepo) UpdateAnnotations(ctx context.Context, id int64, s domain.Sentiment, confidence float64, keyPoints []string) error {
	if f.updated == nil {
		f.updated = map[int64][]string{}
	}
	f.updated[id] = keyPoints
	return nil
}

func (f *fakeRepo) List(ctx context.Context, q domain.ReviewsQuery) (domain.ReviewsPage, error) {
	return f.page, nil
}

func (f *fakeRepo) Stats(ctx context.Context) (domain.Stats, error) { return f.stats, nil }

func (f *fakeRepo) ListTexts(ctx context.Context) ([]domain.ReviewText, error) { return nil, nil }

type fakeClassifier struct {
	s    domain.Sentiment
	conf float64
}

func (f fakeClassifier) Classify(ctx context.Context, text string) (domain.Sentiment, float64) {
	return f.s, f.conf
}

type fakeExtractor struct{ ex domain.Extraction }

func (f fakeExtractor) Extract(ctx context.Context, text string) domain.Extraction { return f.ex }

type fakeCache struct {
	store      map[string][]byte
	dels       []string
	statsValue domain.Stats
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if _, ok := c.store[key]; !ok {
		return false, nil
	}
	if d, ok := dst.(*domain.Stats); ok {
		*d = c.statsValue
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	c.store[key] = []byte("set")
	if st, ok := v.(domain.Stats); ok {
		c.statsValue = st
	}
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

// ---- tests ----

func TestAnalyze_PersistsAnnotatedReview(t *testing.T) {
	repo := &fakeRepo{}
	cache := &fakeCache{}
	svc := app.NewAnalyzeService(
		fakeClassifier{s: domain.SentimentPositive, conf: 0.93},
		fakeExtractor{ex: domain.Extraction{Points: []string{"a", "b"}, Source: domain.SourceModel}},
		repo, cache,
	)

	got, err := svc.Analyze(context.Background(), "  Widget  ", "  Love it.  ")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got.ID != 1 || got.ProductName != "Widget" || got.ReviewText != "Love it." {
		t.Fatalf("unexpected review: %+v", got)
	}
	if got.Sentiment != domain.SentimentPositive || got.Confidence != 0.93 {
		t.Fatalf("unexpected annotation: %+v", got)
	}
	if !reflect.DeepEqual(got.KeyPoints, []string{"a", "b"}) {
		t.Fatalf("key points: %v", got.KeyPoints)
	}
	if got.CreatedAt.IsZero() || got.CreatedAt.Location() != time.UTC {
		t.Fatalf("created_at not set in UTC: %v", got.CreatedAt)
	}
	if len(cache.dels) != 1 {
		t.Fatalf("expected one stats cache invalidation, got %v", cache.dels)
	}
}

func TestAnalyze_ValidationRejectsEmptyFields(t *testing.T) {
	repo := &fakeRepo{}
	svc := app.NewAnalyzeService(
		fakeClassifier{s: domain.SentimentNeutral, conf: 0.6},
		fakeExtractor{ex: domain.Extraction{Points: []string{"x"}, Source: domain.SourceFallback}},
		repo, nil,
	)

	for _, tc := range []struct{ product, text string }{
		{"", "fine"},
		{"Widget", ""},
		{"   ", "fine"},
		{"Widget", "\n\t "},
	} {
		_, err := svc.Analyze(context.Background(), tc.product, tc.text)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("(%q,%q): expected ErrInvalidInput, got %v", tc.product, tc.text, err)
		}
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("validation failure must not touch the store")
	}
}

func TestAnalyze_PersistenceErrorPropagates(t *testing.T) {
	dbErr := errors.New("db down")
	repo := &fakeRepo{insertErr: dbErr}
	svc := app.NewAnalyzeService(
		fakeClassifier{s: domain.SentimentNeutral, conf: 0.6},
		fakeExtractor{ex: domain.Extraction{Points: []string{"x"}, Source: domain.SourceFallback}},
		repo, nil,
	)

	_, err := svc.Analyze(context.Background(), "Widget", "meh")
	if !errors.Is(err, dbErr) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestStats_PercentagesAndCaching(t *testing.T) {
	repo := &fakeRepo{stats: domain.Stats{Total: 4, Positive: 2, Negative: 1, Neutral: 1}}
	cache := &fakeCache{}
	q := app.NewQueryService(repo, cache, time.Minute)

	st, err := q.Stats(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.PositivePercentage != 50.0 || st.NegativePercentage != 25.0 || st.NeutralPercentage != 25.0 {
		t.Fatalf("percentages: %+v", st)
	}

	// Second call is served from cache even after the repo changes.
	repo.stats = domain.Stats{Total: 100, Positive: 100}
	st2, _ := q.Stats(context.Background())
	if st2.Total != 4 {
		t.Fatalf("expected cached stats, got %+v", st2)
	}
}

func TestStats_EmptyTableHasZeroPercentages(t *testing.T) {
	q := app.NewQueryService(&fakeRepo{}, nil, time.Minute)

	st, err := q.Stats(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if st.Total != 0 || st.PositivePercentage != 0 || st.NegativePercentage != 0 || st.NeutralPercentage != 0 {
		t.Fatalf("expected all zeroes, got %+v", st)
	}
}

func TestReannotate_UpdatesStoredRow(t *testing.T) {
	repo := &fakeRepo{}
	svc := app.NewAnalyzeService(
		fakeClassifier{s: domain.SentimentNegative, conf: 0.7},
		fakeExtractor{ex: domain.Extraction{Points: []string{"slow"}, Source: domain.SourceFallback}},
		repo, nil,
	)

	if err := svc.Reannotate(context.Background(), domain.ReviewText{ID: 7, Text: "slow."}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if !reflect.DeepEqual(repo.updated[7], []string{"slow"}) {
		t.Fatalf("updated rows: %+v", repo.updated)
	}
}
