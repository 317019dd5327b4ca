package domain

import "context"

type ReviewRepository interface {
	// Write paths
	Insert(ctx context.Context, r Review) (Review, error)
	UpdateAnnotations(ctx context.Context, id int64, s Sentiment, confidence float64, keyPoints []string) error

	// Read paths
	List(ctx context.Context, q ReviewsQuery) (ReviewsPage, error)
	Stats(ctx context.Context) (Stats, error)
	ListTexts(ctx context.Context) ([]ReviewText, error)
}

// Classifier labels a review text. Implementations never fail: remote
// errors degrade to a deterministic local fallback.
type Classifier interface {
	Classify(ctx context.Context, text string) (Sentiment, float64)
}

// ExtractionSource tags where an Extraction came from.
type ExtractionSource string

const (
	SourceModel    ExtractionSource = "model"
	SourceFallback ExtractionSource = "fallback"
)

// Extraction is the extractor's result: key points plus whether they came
// from the generative model or from the local sentence-split fallback.
type Extraction struct {
	Points []string
	Source ExtractionSource
}

// Extractor pulls key talking points out of a review text. Like
// Classifier, it never fails outward.
type Extractor interface {
	Extract(ctx context.Context, text string) Extraction
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// Read models & queries

type SortKey string

const (
	SortCreatedDesc    SortKey = "created_at_desc"
	SortCreatedAsc     SortKey = "created_at_asc"
	SortConfidenceDesc SortKey = "confidence_desc"
	SortConfidenceAsc  SortKey = "confidence_asc"
)

type ReviewsQuery struct {
	Sentiment   *Sentiment // exact match, already uppercased
	ProductName *string    // case-insensitive substring
	Sort        SortKey
	Page        int // 1-indexed
	PageSize    int
}

func (q ReviewsQuery) Offset() int { return (q.Page - 1) * q.PageSize }

type ReviewsPage struct {
	Items []Review
	Total int // matching rows before limit/offset
}

type Stats struct {
	Total    int
	Positive int
	Negative int
	Neutral  int
}

// ReviewText is the minimal projection the reanalyzer needs.
type ReviewText struct {
	ID   int64
	Text string
}
