package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sugarwatch/pantry-cli/internal/gateway"
	"github.com/sugarwatch/pantry-cli/internal/pipeline"
	"github.com/sugarwatch/pantry-cli/internal/store"
	anthropicpkg "github.com/sugarwatch/pantry-cli/pkg/anthropic"
	"github.com/sugarwatch/pantry-cli/pkg/perplexity"
	"github.com/sugarwatch/pantry-cli/pkg/upload"
)

// appEnv holds the initialized store, gateway, and acquisition pipeline
// shared by the add/scan/items/serve commands.
type appEnv struct {
	Store       store.Store
	Acquisition *pipeline.Acquisition
	Owner       string
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv sets up the store and API clients and builds the acquisition
// pipeline. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	perplexityClient := perplexity.NewClient(cfg.Perplexity.Key,
		perplexity.WithBaseURL(cfg.Perplexity.BaseURL),
		perplexity.WithModel(cfg.Perplexity.Model))

	var uploader upload.Client
	if cfg.Upload.BaseURL != "" {
		uploader = upload.NewClient(cfg.Upload.Key, cfg.Upload.BaseURL)
	} else {
		uploader = noUploader{}
		zap.L().Debug("PANTRY_UPLOAD_BASE_URL not set, frames are sent inline")
	}

	gw := gateway.New(anthropicClient, perplexityClient, cfg)
	acq := pipeline.New(gw, uploader,
		pipeline.ParseSafetyPolicy(cfg.Safety.OnError),
		cfg.Capture.JPEGQuality)

	return &appEnv{
		Store:       st,
		Acquisition: acq,
		Owner:       cfg.Owner,
	}, nil
}

// initStore builds the configured store backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "", "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// noUploader short-circuits the upload stage when no upload service is
// configured; the recognizer then attaches frames inline.
type noUploader struct{}

func (noUploader) Upload(ctx context.Context, filename string, data []byte) (*upload.UploadResponse, error) {
	return nil, eris.New("upload: no upload service configured")
}
