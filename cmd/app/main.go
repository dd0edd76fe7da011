package main

import (
	"expvar"
	"fmt"
	"runtime"

	"github.com/h2non/bimg"
	"github.com/xbanchon/image-optimizer/internal/env"
	"github.com/xbanchon/image-optimizer/internal/format"
	"github.com/xbanchon/image-optimizer/internal/processor"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	envErr := env.Load()

	cfg := config{
		addr: env.GetString("ADDR", ":8080"),
		env:  env.GetString("ENV", "development"),
		optimizer: optimizerConfig{
			engine:         env.GetString("OPTIMIZER_ENGINE", "native"),
			defaultQuality: env.GetInt("OPTIMIZER_DEFAULT_QUALITY", processor.DefaultQuality),
			maxUploadBytes: int64(env.GetInt("OPTIMIZER_MAX_UPLOAD_MB", 10)) << 20,
			previewWidth:   env.GetInt("OPTIMIZER_PREVIEW_WIDTH", 480),
			maxPixels:      int64(env.GetInt("OPTIMIZER_MAX_PIXELS", int(processor.DefaultMaxPixels))),
		},
	}

	//Logger (Zap)
	logger := zap.Must(newLogger(cfg.env)).Sugar()

	defer logger.Sync() //flushes buffer, if any

	if envErr != nil {
		logger.Fatal(envErr)
	}

	targets, err := format.ParseList(env.GetString("OPTIMIZER_TARGETS", "webp,jpeg,png"))
	if err != nil {
		logger.Fatal(err)
	}
	cfg.optimizer.targets = targets

	if cfg.optimizer.defaultQuality < processor.MinQuality || cfg.optimizer.defaultQuality > processor.MaxQuality {
		logger.Fatalf("OPTIMIZER_DEFAULT_QUALITY must be within [%d,%d], got %d",
			processor.MinQuality, processor.MaxQuality, cfg.optimizer.defaultQuality)
	}

	engine, err := newEngine(cfg.optimizer.engine)
	if err != nil {
		logger.Fatal(err)
	}
	if engine.Name() == "vips" {
		logger.Infow("libvips engine enabled", "vips_version", bimg.VipsVersion)
	}

	app := &application{
		config:    cfg,
		logger:    logger,
		optimizer: processor.NewReEncoder(engine, logger, cfg.optimizer.targets...).WithMaxPixels(cfg.optimizer.maxPixels),
	}

	// Metrics
	expvar.NewString("version").Set(version)
	expvar.NewString("engine").Set(engine.Name())
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	if err := app.run(mux); err != nil {
		logger.Fatal(err)
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newEngine(name string) (processor.Engine, error) {
	switch name {
	case "native":
		return processor.NativeEngine{}, nil
	case "vips":
		return processor.VipsEngine{}, nil
	default:
		return nil, fmt.Errorf("unknown OPTIMIZER_ENGINE %q (want native or vips)", name)
	}
}
