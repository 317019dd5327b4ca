package domain

import (
	"errors"
	"time"
)

// Sentiment is the categorical polarity of a review.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

type Review struct {
	ID          int64
	ProductName string
	ReviewText  string
	Sentiment   Sentiment
	Confidence  float64 // in [0,1]
	KeyPoints   []string
	CreatedAt   time.Time
}

var ErrInvalidInput = errors.New("missing required fields: product_name, review_text")
