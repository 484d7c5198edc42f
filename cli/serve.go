package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/junaidrashid-git/yar-marketplace/auth"
	"github.com/junaidrashid-git/yar-marketplace/checkout"
	"github.com/junaidrashid-git/yar-marketplace/fulfillment"
	"github.com/junaidrashid-git/yar-marketplace/middleware"
	"github.com/junaidrashid-git/yar-marketplace/notify"
	"github.com/junaidrashid-git/yar-marketplace/payment"
	"github.com/junaidrashid-git/yar-marketplace/reconcile"
	"github.com/junaidrashid-git/yar-marketplace/routes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the escrow sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := notify.NewHub()
	notifier := notify.Multi{notify.Log{}, hub}

	a, err := newApp(ctx, notifier)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.cfg.ValidateServe(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "starting application", "config", describe(a.cfg))

	processor := payment.NewTelr(a.cfg.Telr, nil)
	limiter := middleware.NewIPLimiter(a.cfg.Checkout.RatePerSecond, a.cfg.Checkout.Burst)

	// Gin setup
	r := gin.Default()
	r.Use(middleware.RequestID())

	// CORS settings
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.SetupRoutes(r, routes.Deps{
		Store:        a.store,
		Engine:       a.engine,
		Checkout:     checkout.NewService(a.store, processor, notifier, a.gen, a.cfg.Currency),
		Fulfillment:  fulfillment.NewService(a.store, a.engine),
		Oversight:    a.oversight(notifier),
		Issuer:       auth.NewIssuer(a.cfg.JWT.Secret, a.cfg.JWT.TTL, nil),
		Hub:          hub,
		Instructions: payment.NewDirectory(a.cfg.Manual),
		Limiter:      limiter,
		Telr:         a.cfg.Telr,
		AdminAPIKey:  a.cfg.Admin.APIKey,
	})

	go reconcile.NewSweeper(a.engine, a.cfg.Escrow.SweepInterval, nil).Run(ctx)
	go cleanupLimiter(ctx, limiter, 10*time.Minute)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "server running", "port", a.cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func cleanupLimiter(ctx context.Context, l *middleware.IPLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.Cleanup(); n > 0 {
				slog.DebugContext(ctx, "rate limiters cleaned up", "removed", n)
			}
		}
	}
}
