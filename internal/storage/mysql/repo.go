package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"review_analyzer/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Insert(ctx context.Context, rev domain.Review) (domain.Review, error) {
	kp, err := json.Marshal(rev.KeyPoints)
	if err != nil {
		return domain.Review{}, err
	}
	res, err := r.db.ExecContext(ctx, insertReviewSQL,
		rev.ProductName,
		rev.ReviewText,
		string(rev.Sentiment),
		rev.Confidence,
		string(kp),
		rev.CreatedAt,
	)
	if err != nil {
		return domain.Review{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Review{}, err
	}
	rev.ID = id
	return rev, nil
}

func (r *Repo) UpdateAnnotations(ctx context.Context, id int64, s domain.Sentiment, confidence float64, keyPoints []string) error {
	kp, err := json.Marshal(keyPoints)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, updateAnnotationsSQL, string(s), confidence, string(kp), id)
	return err
}

// whereClause assembles the shared filter for List's count and page
// queries. Values are always bound, never interpolated.
func whereClause(q domain.ReviewsQuery) (string, []any) {
	var conds []string
	var args []any
	if q.Sentiment != nil {
		conds = append(conds, "sentiment = ?")
		args = append(args, string(*q.Sentiment))
	}
	if q.ProductName != nil {
		conds = append(conds, "LOWER(product_name) LIKE ?")
		args = append(args, "%"+strings.ToLower(*q.ProductName)+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(k domain.SortKey) string {
	switch k {
	case domain.SortCreatedAsc:
		return " ORDER BY created_at ASC, id ASC"
	case domain.SortConfidenceDesc:
		return " ORDER BY confidence DESC, id DESC"
	case domain.SortConfidenceAsc:
		return " ORDER BY confidence ASC, id ASC"
	default:
		return " ORDER BY created_at DESC, id DESC"
	}
}

func (r *Repo) List(ctx context.Context, q domain.ReviewsQuery) (domain.ReviewsPage, error) {
	where, args := whereClause(q)

	// Total is counted before limit/offset so pagination never skews it.
	var total int
	if err := r.db.QueryRowContext(ctx, countReviewsPrefix+where, args...).Scan(&total); err != nil {
		return domain.ReviewsPage{}, err
	}

	pageArgs := append(append([]any{}, args...), q.PageSize, q.Offset())
	rows, err := r.db.QueryContext(ctx, selectReviewColumns+where+orderBy(q.Sort)+" LIMIT ? OFFSET ?", pageArgs...)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return domain.ReviewsPage{}, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out, Total: total}, nil
}

func scanReview(rows *sql.Rows) (domain.Review, error) {
	var rev domain.Review
	var sentiment string
	var kpRaw sql.RawBytes
	var createdAt sql.NullTime
	if err := rows.Scan(
		&rev.ID,
		&rev.ProductName,
		&rev.ReviewText,
		&sentiment,
		&rev.Confidence,
		&kpRaw,
		&createdAt,
	); err != nil {
		return domain.Review{}, err
	}
	rev.Sentiment = domain.Sentiment(sentiment)
	if len(kpRaw) > 0 {
		_ = json.Unmarshal(kpRaw, &rev.KeyPoints)
	}
	if rev.KeyPoints == nil {
		rev.KeyPoints = []string{}
	}
	if createdAt.Valid {
		rev.CreatedAt = createdAt.Time
	}
	return rev, nil
}

func (r *Repo) Stats(ctx context.Context) (domain.Stats, error) {
	rows, err := r.db.QueryContext(ctx, statsSQL)
	if err != nil {
		return domain.Stats{}, err
	}
	defer rows.Close()

	var st domain.Stats
	for rows.Next() {
		var sentiment string
		var n int
		if err := rows.Scan(&sentiment, &n); err != nil {
			return domain.Stats{}, err
		}
		st.Total += n
		switch domain.Sentiment(sentiment) {
		case domain.SentimentPositive:
			st.Positive = n
		case domain.SentimentNegative:
			st.Negative = n
		case domain.SentimentNeutral:
			st.Neutral = n
		}
	}
	return st, rows.Err()
}

func (r *Repo) ListTexts(ctx context.Context) ([]domain.ReviewText, error) {
	rows, err := r.db.QueryContext(ctx, listTextsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ReviewText
	for rows.Next() {
		var rt domain.ReviewText
		if err := rows.Scan(&rt.ID, &rt.Text); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}
