package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/domain"
)

// Client calls a HuggingFace-style text-classification endpoint.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 30 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

type classifyRequest struct {
	Inputs string `json:"inputs"`
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify labels text with a sentiment and a confidence. It never fails:
// a non-200 response degrades to (NEUTRAL, 0.5) and a transport error
// degrades to the keyword heuristic.
func (c *Client) Classify(ctx context.Context, text string) (domain.Sentiment, float64) {
	start := time.Now()

	s, conf, err := c.classifyRemote(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("huggingface call failed, using keyword heuristic")
		observability.ObserveExternal("huggingface", "fallback", time.Since(start))
		return heuristic(text)
	}
	observability.ObserveExternal("huggingface", "ok", time.Since(start))
	return s, conf
}

func (c *Client) classifyRemote(ctx context.Context, text string) (domain.Sentiment, float64, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", 0, err
	}

	body, err := json.Marshal(classifyRequest{Inputs: text})
	if err != nil {
		return "", 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base, bytes.NewReader(body))
	if err != nil {
		return "", 0, err
	}
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", 0, ctx.Err()
		}
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Documented fixed fallback for a reachable but unhappy endpoint.
		log.Warn().Int("status", resp.StatusCode).Msg("huggingface returned non-200, using neutral fallback")
		return domain.SentimentNeutral, 0.5, nil
	}

	// Body is a list of prediction lists, one per input.
	var preds [][]labelScore
	if err := json.NewDecoder(resp.Body).Decode(&preds); err != nil {
		return "", 0, err
	}
	if len(preds) == 0 || len(preds[0]) == 0 {
		return domain.SentimentNeutral, 0.5, nil
	}

	top := preds[0][0]
	for _, p := range preds[0][1:] {
		if p.Score > top.Score {
			top = p
		}
	}
	return mapLabel(top.Label), top.Score, nil
}

// mapLabel collapses arbitrary model labels onto the three-way enum by
// case-insensitive substring match.
func mapLabel(label string) domain.Sentiment {
	u := strings.ToUpper(label)
	switch {
	case strings.Contains(u, "POSITIVE"):
		return domain.SentimentPositive
	case strings.Contains(u, "NEGATIVE"):
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// Keyword lists cover English plus Indonesian, matching the review corpus
// this service was built for.
var positiveWords = []string{
	"bagus", "baik", "luar biasa", "mantap", "suka", "puas",
	"recommended", "cepat", "hebat", "good", "great", "excellent",
	"amazing", "love", "best", "perfect",
}

var negativeWords = []string{
	"buruk", "jelek", "kurang", "kecewa", "lambat", "parah",
	"cacat", "rusak", "bad", "poor", "terrible", "worst",
	"hate", "awful", "disappointing",
}

// heuristic counts keyword occurrences on both lists; the strictly higher
// side wins with confidence min(1.0, 0.6 + 0.1*hits), ties are neutral.
func heuristic(text string) (domain.Sentiment, float64) {
	lower := strings.ToLower(text)
	pos := countHits(lower, positiveWords)
	neg := countHits(lower, negativeWords)

	switch {
	case pos > neg:
		return domain.SentimentPositive, confFor(pos)
	case neg > pos:
		return domain.SentimentNegative, confFor(neg)
	default:
		return domain.SentimentNeutral, 0.6
	}
}

func countHits(lower string, words []string) int {
	n := 0
	for _, w := range words {
		n += strings.Count(lower, w)
	}
	return n
}

func confFor(hits int) float64 {
	c := 0.6 + 0.1*float64(hits)
	if c > 1.0 {
		return 1.0
	}
	return c
}
