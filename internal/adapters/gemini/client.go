package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"review_analyzer/internal/adapters/observability"
	"review_analyzer/internal/domain"
)

// Client calls a Gemini-style generateContent endpoint to pull key
// talking points out of a review.
type Client struct {
	base  string
	model string
	hc    *http.Client
	key   string
	rl    *rate.Limiter
}

func New(base, model, key string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  base,
		model: model,
		hc:    &http.Client{Timeout: 30 * time.Second},
		key:   key,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// ---- generateContent wire format ----

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

const promptTemplate = `Analyze this product review and extract 3-5 main key points or highlights.
Return ONLY a JSON array of strings, no markdown, no extra text.

Review: %s

Format: ["point 1", "point 2", "point 3"]`

// Extract returns key points for text. It never fails outward: any call or
// parse problem yields a SourceFallback extraction built locally.
func (c *Client) Extract(ctx context.Context, text string) domain.Extraction {
	start := time.Now()

	points, err := c.extractRemote(ctx, text)
	if err != nil {
		log.Warn().Err(err).Msg("gemini call failed, using sentence-split fallback")
		observability.ObserveExternal("gemini", "fallback", time.Since(start))
		return domain.Extraction{Points: fallbackPoints(text), Source: domain.SourceFallback}
	}
	observability.ObserveExternal("gemini", "ok", time.Since(start))
	return domain.Extraction{Points: points, Source: domain.SourceModel}
}

func (c *Client) extractRemote(ctx context.Context, text string) ([]string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(promptTemplate, text)}}}},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.base, c.model, c.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content")
	}

	return parsePoints(out.Candidates[0].Content.Parts[0].Text)
}

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

// parsePoints pulls a JSON string array out of the model's free text,
// unwrapping an optional markdown code fence first.
func parsePoints(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if strings.Contains(s, "```") {
		if m := fenceRe.FindStringSubmatch(s); m != nil {
			s = m[1]
		}
	}

	var points []string
	if err := json.Unmarshal([]byte(s), &points); err != nil {
		return nil, fmt.Errorf("unparsable key points: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("empty key point array")
	}
	// Returned verbatim: item count is not clamped to 3-5 on the happy path.
	return points, nil
}

var sentenceSplitRe = regexp.MustCompile(`[.!?\n]+`)

// fallbackPoints splits the review itself into up to 3 sentences. Always
// returns at least one element.
func fallbackPoints(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
		if len(out) == 3 {
			break
		}
	}
	if len(out) == 0 {
		return []string{"Review analyzed"}
	}
	return out
}
