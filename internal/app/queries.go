package app

import (
	"context"
	"math"
	"time"

	"review_analyzer/internal/domain"
)

type QueryService struct {
	repo     domain.ReviewRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.ReviewRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) List(ctx context.Context, q domain.ReviewsQuery) (domain.ReviewsPage, error) {
	return s.repo.List(ctx, q)
}

// StatsView is the aggregate read model served by the stats endpoint.
type StatsView struct {
	Total              int
	Positive           int
	Negative           int
	Neutral            int
	PositivePercentage float64
	NegativePercentage float64
	NeutralPercentage  float64
}

func (s *QueryService) Stats(ctx context.Context) (StatsView, error) {
	var st domain.Stats
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, statsCacheKey, &st); ok {
			return viewOf(st), nil
		}
	}

	st, err := s.repo.Stats(ctx)
	if err != nil {
		return StatsView{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, statsCacheKey, st, int(s.cacheTTL.Seconds()))
	}
	return viewOf(st), nil
}

func viewOf(st domain.Stats) StatsView {
	return StatsView{
		Total:              st.Total,
		Positive:           st.Positive,
		Negative:           st.Negative,
		Neutral:            st.Neutral,
		PositivePercentage: pct(st.Positive, st.Total),
		NegativePercentage: pct(st.Negative, st.Total),
		NeutralPercentage:  pct(st.Neutral, st.Total),
	}
}

// pct returns count/total*100 rounded to one decimal, or 0 for an empty
// table.
func pct(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
