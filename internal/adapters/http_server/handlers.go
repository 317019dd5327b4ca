package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_analyzer/internal/app"
	"review_analyzer/internal/domain"
)

type Handlers struct {
	A *app.AnalyzeService
	Q *app.QueryService
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/", h.home)
	s.mux.Post("/api/analyze-review", h.analyzeReview)
	s.mux.Get("/api/reviews", h.listReviews)
	s.mux.Get("/api/reviews/stats", h.reviewStats)
}

// ---- response shaping ----

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type reviewJSON struct {
	ID          int64    `json:"id"`
	ProductName string   `json:"product_name"`
	ReviewText  string   `json:"review_text"`
	Sentiment   string   `json:"sentiment"`
	Confidence  float64  `json:"confidence"`
	KeyPoints   []string `json:"key_points"`
	CreatedAt   string   `json:"created_at"`
}

func toReviewJSON(r domain.Review) reviewJSON {
	kp := r.KeyPoints
	if kp == nil {
		kp = []string{}
	}
	return reviewJSON{
		ID:          r.ID,
		ProductName: r.ProductName,
		ReviewText:  r.ReviewText,
		Sentiment:   string(r.Sentiment),
		Confidence:  r.Confidence,
		KeyPoints:   kp,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ---- handlers ----

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"project": "Product Review Analyzer API",
		"version": "1.0",
		"endpoints": map[string]string{
			"POST /api/analyze-review": "Analyze new product review",
			"GET /api/reviews":         "Get all reviews with optional filters",
			"GET /api/reviews/stats":   "Get review statistics",
		},
	})
}

type analyzeRequest struct {
	ProductName string `json:"product_name"`
	ReviewText  string `json:"review_text"`
}

type analyzeResponse struct {
	Success bool `json:"success"`
	reviewJSON
	Message string `json:"message"`
}

func (h *Handlers) analyzeReview(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rev, err := h.A.Analyze(r.Context(), req.ProductName, req.ReviewText)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Error().Err(err).Msg("analyze review failed")
		writeError(w, http.StatusInternalServerError, "Error analyzing review: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:    true,
		reviewJSON: toReviewJSON(rev),
		Message:    "Review analyzed successfully",
	})
}

type listResponse struct {
	Success    bool         `json:"success"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
	Reviews    []reviewJSON `json:"reviews"`
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)

	page, err := h.Q.List(r.Context(), q)
	if err != nil {
		log.Error().Err(err).Msg("list reviews failed")
		writeError(w, http.StatusInternalServerError, "Error fetching reviews: "+err.Error())
		return
	}

	out := make([]reviewJSON, 0, len(page.Items))
	for _, rev := range page.Items {
		out = append(out, toReviewJSON(rev))
	}
	writeJSON(w, http.StatusOK, listResponse{
		Success:    true,
		Total:      page.Total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: (page.Total + q.PageSize - 1) / q.PageSize,
		Reviews:    out,
	})
}

func (h *Handlers) reviewStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Q.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("review stats failed")
		writeError(w, http.StatusInternalServerError, "Error fetching stats: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":             true,
		"total":               st.Total,
		"positive":            st.Positive,
		"negative":            st.Negative,
		"neutral":             st.Neutral,
		"positive_percentage": st.PositivePercentage,
		"negative_percentage": st.NegativePercentage,
		"neutral_percentage":  st.NeutralPercentage,
	})
}

// ---- query param parsing ----

// parseListQuery never fails: bad numbers reset paging to defaults, bad
// sort keys fall back to newest-first.
func parseListQuery(r *http.Request) domain.ReviewsQuery {
	get := r.URL.Query().Get

	q := domain.ReviewsQuery{Sort: domain.SortCreatedDesc, Page: 1, PageSize: 10}

	if v := strings.TrimSpace(get("sentiment")); v != "" {
		s := domain.Sentiment(strings.ToUpper(v))
		q.Sentiment = &s
	}
	if v := strings.TrimSpace(get("product_name")); v != "" {
		q.ProductName = &v
	}

	q.Page, q.PageSize = parsePaging(get("page"), get("page_size"))

	switch domain.SortKey(strings.ToLower(get("sort"))) {
	case domain.SortCreatedAsc:
		q.Sort = domain.SortCreatedAsc
	case domain.SortConfidenceDesc:
		q.Sort = domain.SortConfidenceDesc
	case domain.SortConfidenceAsc:
		q.Sort = domain.SortConfidenceAsc
	}
	return q
}

// parsePaging applies defaults (1, 10), resets both on any non-numeric
// input, and clamps page to >=1 and pageSize to [1,100].
func parsePaging(pageStr, sizeStr string) (page, pageSize int) {
	page, pageSize = 1, 10

	if pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil {
			return 1, 10
		}
		page = p
	}
	if sizeStr != "" {
		ps, err := strconv.Atoi(sizeStr)
		if err != nil {
			return 1, 10
		}
		pageSize = ps
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
