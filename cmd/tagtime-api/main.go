package main

import (
	"context"
	"os/signal"
	"syscall"

	"tagtime/internal/modkit"
	"tagtime/internal/platform/config"
	"tagtime/internal/platform/logger"
	phttp "tagtime/internal/platform/net/http"
	"tagtime/internal/platform/store"

	"tagtime/internal/services/api"
	lemod "tagtime/internal/services/logexport/module"
	pmod "tagtime/internal/services/pings/module"
)

func main() {
	// service-scoped config for HTTP etc (CORE_API_*)
	root := config.New()
	apiCfg := root.Prefix("CORE_API_")

	// bring up logging early
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// open the ping log (sqlite or postgres) plus the optional clickhouse mirror
	st, err := store.Open(ctx, store.ConfigFromEnv(root, "api"), store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.FromStore(*l, root, st)

	pings, err := pmod.New(deps, pmod.FromConfig(root))
	if err != nil {
		l.Panic().Err(err).Msg("pings module failed")
	}
	if n, err := pings.Migrate(ctx); err != nil {
		l.Panic().Err(err).Msg("migrate failed")
	} else if n > 0 {
		l.Info().Int("applied", n).Msg("ping log migrated")
	}
	pmod.Register(pings)

	leOpts, err := lemod.FromConfig(root)
	if err != nil {
		l.Panic().Err(err).Msg("logexport options")
	}
	export, err := lemod.New(deps, pings.Typed(), leOpts)
	if err != nil {
		l.Panic().Err(err).Msg("logexport module failed")
	}
	lemod.Register(export)

	// CORE_API_PORT is the listen address, default :4000
	srv := phttp.NewServer(apiCfg)

	api.Mount(
		srv.Router(),
		api.Options{
			Config:         apiCfg,
			Store:          st,
			Logger:         l,
			EnableSwagger:  apiCfg.MayBool("SWAGGER", true),
			EnableProfiler: apiCfg.MayBool("PROFILER", false),
			Pings:          pings.Typed(),
			Export:         export.Typed(),
			Tokens:         apiCfg.MayCSV("TOKENS", nil),
		},
	)

	// serves until SIGINT/SIGTERM, then drains for CORE_API_SHUTDOWN_GRACE
	if err := srv.Run(ctx); err != nil {
		l.Panic().Err(err).Msg("http server stopped")
	}
}
