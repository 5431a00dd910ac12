package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rpgo/etf-income-planner/internal/access"
	"github.com/rpgo/etf-income-planner/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, referenceFile, priceDir string
	var alpaca, secureCookies bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the JSON API with /healthz, /metrics and /api/v1 endpoints.
Each browser session gets one free simulation; requests carrying the
developer code in X-Developer-Code are not limited. Trial usage is kept in
Redis when REDIS_ADDR is set, otherwise in memory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := a.loadReference(referenceFile)
			if err != nil {
				return err
			}
			planner := a.newPlanner(ref, a.priceSource(priceDir, alpaca))

			cfg := server.DefaultConfig()
			cfg.Addr = a.settings.HTTPAddr
			if addr != "" {
				cfg.Addr = addr
			}
			cfg.SecureCookies = secureCookies

			var ledger access.Ledger
			var redisLedger *access.RedisLedger
			if a.settings.RedisAddr != "" {
				redisLedger = access.NewRedisLedger(a.settings.RedisAddr, a.settings.TrialTTL)
				ledger = redisLedger
				log.Info().Str("addr", a.settings.RedisAddr).Msg("using Redis usage ledger")
			} else {
				ledger = access.NewMemoryLedger(a.settings.TrialTTL)
				log.Warn().Msg("REDIS_ADDR not set; trial usage is kept in memory and lost on restart")
			}
			if a.settings.DevCode == "" {
				log.Warn().Msg("PLANNER_DEV_CODE not set; developer access is disabled")
			}

			srv := server.New(cfg, planner, access.NewGate(ledger, a.settings.DevCode), log.Logger)
			if redisLedger != nil {
				srv.AddHealthCheck("redis", redisLedger.Ping)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address; overrides PLANNER_HTTP_ADDR")
	cmd.Flags().StringVar(&referenceFile, "reference", "", "Reference data override file (YAML)")
	cmd.Flags().StringVar(&priceDir, "prices", "", "Directory of <TICKER>.csv price files; overrides PLANNER_PRICE_DIR")
	cmd.Flags().BoolVar(&alpaca, "alpaca", false, "Fetch prices from Alpaca (needs APCA_API_KEY_ID/APCA_API_SECRET_KEY)")
	cmd.Flags().BoolVar(&secureCookies, "secure-cookies", false, "Mark the session cookie Secure (behind HTTPS)")
	return cmd
}
