package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_analyzer/internal/domain"
)

// statsCacheKey is the single cached aggregate; every insert drops it so
// stats never lag behind writes.
const statsCacheKey = "reviews:stats"

// AnalyzeService runs the analysis pipeline: classify, extract, persist.
type AnalyzeService struct {
	classifier domain.Classifier
	extractor  domain.Extractor
	repo       domain.ReviewRepository
	cache      domain.Cache
}

func NewAnalyzeService(c domain.Classifier, e domain.Extractor, r domain.ReviewRepository, cache domain.Cache) *AnalyzeService {
	return &AnalyzeService{classifier: c, extractor: e, repo: r, cache: cache}
}

// Analyze validates the submission, annotates it via both adapters
// (sentiment first, then key points), and persists the combined record.
// Adapter degradation never surfaces here; only validation and persistence
// errors can come back.
func (s *AnalyzeService) Analyze(ctx context.Context, productName, reviewText string) (domain.Review, error) {
	productName = strings.TrimSpace(productName)
	reviewText = strings.TrimSpace(reviewText)
	if productName == "" || reviewText == "" {
		return domain.Review{}, domain.ErrInvalidInput
	}

	sentiment, confidence := s.classifier.Classify(ctx, reviewText)
	extraction := s.extractor.Extract(ctx, reviewText)
	if extraction.Source == domain.SourceFallback {
		log.Info().Str("product", productName).Msg("key points built from local fallback")
	}

	rev := domain.Review{
		ProductName: productName,
		ReviewText:  reviewText,
		Sentiment:   sentiment,
		Confidence:  confidence,
		KeyPoints:   extraction.Points,
		CreatedAt:   time.Now().UTC(),
	}

	saved, err := s.repo.Insert(ctx, rev)
	if err != nil {
		return domain.Review{}, err
	}

	if s.cache != nil {
		_ = s.cache.Del(ctx, statsCacheKey)
	}
	return saved, nil
}

// Reannotate re-runs both adapters over one stored review. Used by the
// batch reanalyzer.
func (s *AnalyzeService) Reannotate(ctx context.Context, rt domain.ReviewText) error {
	sentiment, confidence := s.classifier.Classify(ctx, rt.Text)
	extraction := s.extractor.Extract(ctx, rt.Text)

	if err := s.repo.UpdateAnnotations(ctx, rt.ID, sentiment, confidence, extraction.Points); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Del(ctx, statsCacheKey)
	}
	return nil
}
