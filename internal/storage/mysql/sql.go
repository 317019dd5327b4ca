package mysql

const insertReviewSQL = `
INSERT INTO reviews
  (product_name, review_text, sentiment, confidence, key_points, created_at)
VALUES
  (?, ?, ?, ?, ?, ?)
`

const updateAnnotationsSQL = `
UPDATE reviews
SET sentiment = ?, confidence = ?, key_points = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

// Shared column list for row scans.
const selectReviewColumns = `
SELECT id, product_name, review_text, sentiment, confidence, key_points, created_at
FROM reviews
`

const countReviewsPrefix = `SELECT COUNT(*) FROM reviews`

// Sentiment counts in one pass; the app layer derives percentages.
const statsSQL = `
SELECT sentiment, COUNT(*)
FROM reviews
GROUP BY sentiment
`

const listTextsSQL = `SELECT id, review_text FROM reviews ORDER BY id`
