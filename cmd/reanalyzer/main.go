package main

import (
	"context"
	"database/sql"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"review_analyzer/internal/adapters/gemini"
	"review_analyzer/internal/adapters/huggingface"
	"review_analyzer/internal/adapters/observability"
	redisad "review_analyzer/internal/adapters/redis"
	"review_analyzer/internal/app"
	"review_analyzer/internal/shared"
	mysqlrepo "review_analyzer/internal/storage/mysql"
)

// Re-runs sentiment and key-point annotation over every stored review.
// Useful after swapping models or extending the keyword lists.
func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)

	log.Info().
		Int("workers", cfg.Workers).
		Msg("reanalyzer starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	classifier := huggingface.New(cfg.HFBase, cfg.HFKey, 5)
	extractor := gemini.New(cfg.GeminiBase, cfg.GeminiModel, cfg.GeminiKey, 5)
	svc := app.NewAnalyzeService(classifier, extractor, repo, cache)

	texts, err := repo.ListTexts(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("listing stored reviews failed")
	}
	log.Info().Int("count", len(texts)).Msg("reviews to reannotate")

	sem := semaphore.NewWeighted(int64(cfg.Workers))
	var wg sync.WaitGroup

	for _, rt := range texts {
		rt := rt

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, int64(1)); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(int64(1))

			if err := svc.Reannotate(ctx, rt); err != nil {
				log.Warn().Int64("id", rt.ID).Err(err).Msg("reannotate failed")
				return
			}
			log.Info().Int64("id", rt.ID).Msg("reannotate ok")
		}()
	}

	wg.Wait()
	log.Info().Msg("reanalysis completed")
}
