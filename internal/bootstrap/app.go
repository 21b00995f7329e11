// Package bootstrap assembles the application from configuration: corpus
// stores, the embedding model, and the recognition pipeline.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cgoncalves94/entity-recognition-backend/internal/blueprints"
	"github.com/cgoncalves94/entity-recognition-backend/internal/embeddings"
	"github.com/cgoncalves94/entity-recognition-backend/internal/entities"
	"github.com/cgoncalves94/entity-recognition-backend/internal/lexicon"
	"github.com/cgoncalves94/entity-recognition-backend/internal/pipeline"
	"github.com/cgoncalves94/entity-recognition-backend/internal/scoring"
	"github.com/cgoncalves94/entity-recognition-backend/internal/shared/config"
	"github.com/cgoncalves94/entity-recognition-backend/internal/shared/storage/db"
	"github.com/cgoncalves94/entity-recognition-backend/internal/shared/telemetry"
	"github.com/cgoncalves94/entity-recognition-backend/internal/topics"
)

// App holds shared dependencies built once at startup.
type App struct {
	Config           config.Config
	DB               *sql.DB
	Lexicon          *lexicon.Lexicon
	Blueprints       []blueprints.Blueprint
	Embedder         embeddings.Embedder
	EntityMatcher    *entities.Matcher
	Classifier       *topics.Classifier
	Scorer           *scoring.Scorer
	BlueprintMatcher *blueprints.Matcher
	Pipeline         *pipeline.Service
}

// Build prepares shared dependencies. The embedding model is loaded eagerly
// so a broken model path fails at startup rather than on the first request.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	lex, corpus, err := loadCorpora(ctx, cfg, sqlDB)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Lexicon = lex
	app.Blueprints = corpus

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Embedder = embedder

	catalog, err := topics.LoadCatalog(cfg.TopicsPath)
	if err != nil {
		app.Close()
		return nil, err
	}
	classifier, err := topics.NewClassifier(ctx, embedder, catalog)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Classifier = classifier

	policy, err := blueprints.ParsePolicy(cfg.MatchPolicy)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.EntityMatcher = entities.NewMatcher(lex)
	app.Scorer = scoring.NewScorer(lex, embedder)
	app.BlueprintMatcher = blueprints.NewMatcher(corpus, policy)
	app.Pipeline = pipeline.NewService(
		app.EntityMatcher,
		app.Classifier,
		app.Scorer,
		app.BlueprintMatcher,
		pipeline.WithWorkers(cfg.Workers),
	)

	telemetry.Info("bootstrap complete", map[string]any{
		"env":          cfg.Env,
		"corpus_store": cfg.CorpusStore,
		"entities":     lex.Len(),
		"blueprints":   len(corpus),
		"topics":       len(catalog),
	})
	return app, nil
}

// Close releases the model session and the database pool.
func (a *App) Close() {
	if a.Embedder != nil {
		if err := a.Embedder.Close(); err != nil {
			telemetry.Error("close embedder", map[string]any{"err": err.Error()})
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			telemetry.Error("close database", map[string]any{"err": err.Error()})
		}
	}
}

// BlueprintStore opens just the blueprint corpus store, for callers that
// match without running the pipeline. The returned func releases the
// database pool when one was opened.
func BlueprintStore(ctx context.Context, cfg config.Config) (blueprints.Store, func(), error) {
	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if sqlDB != nil {
		return blueprints.PGStore{DB: sqlDB}, func() { sqlDB.Close() }, nil
	}
	return blueprints.FileStore{Path: cfg.BlueprintsPath}, func() {}, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.CorpusStore != "postgres" {
		return nil, nil
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("bootstrap: DATABASE_URL is required when CORPUS_STORE=postgres")
	}
	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	return db.Connect(ctx, cfg.DatabaseURL, opts)
}

func loadCorpora(ctx context.Context, cfg config.Config, sqlDB *sql.DB) (*lexicon.Lexicon, []blueprints.Blueprint, error) {
	var lexStore lexicon.Store
	var bpStore blueprints.Store
	if sqlDB != nil {
		lexStore = lexicon.PGStore{DB: sqlDB}
		bpStore = blueprints.PGStore{DB: sqlDB}
	} else {
		lexStore = lexicon.FileStore{Path: cfg.LexiconPath}
		bpStore = blueprints.FileStore{Path: cfg.BlueprintsPath}
	}

	lex, err := lexStore.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: load lexicon: %w", err)
	}
	corpus, err := bpStore.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: load blueprints: %w", err)
	}
	return lex, corpus, nil
}

func buildEmbedder(cfg config.Config) (embeddings.Embedder, error) {
	encoder, err := embeddings.NewEncoder(embeddings.Config{
		OrtLibraryPath: cfg.OrtLibraryPath,
		ModelPath:      cfg.ModelPath,
		TokenizerPath:  cfg.TokenizerPath,
		MaxSeqLen:      cfg.MaxSeqLen,
		ModelID:        cfg.ModelID,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load embedding model: %w", err)
	}
	if strings.TrimSpace(cfg.EmbedCacheDir) == "" {
		return encoder, nil
	}
	cached, err := embeddings.NewCached(encoder, cfg.ModelID, cfg.EmbedCacheDir)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("bootstrap: init embedding cache: %w", err)
	}
	return cached, nil
}
