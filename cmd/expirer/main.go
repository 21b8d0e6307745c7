package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	availabilityrepo "reserva/internal/availability/repository"
	availabilityservice "reserva/internal/availability/service"
	"reserva/internal/events"
	ledgerrepo "reserva/internal/ledger/repository"
	ledgerservice "reserva/internal/ledger/service"
	"reserva/internal/reservations/repository"
	"reserva/internal/reservations/service"
	"reserva/internal/settlement"
	"reserva/pkg/client"
	"reserva/pkg/config"

	"github.com/joho/godotenv"
)

const ServiceName = "expirer"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	orchestrator := initOrchestrator(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Log.Info("Starting reservation expirer",
		"interval", cfg.ExpirerInterval,
		"pending_ttl", cfg.PendingReservationTTL,
	)

	ticker := time.NewTicker(cfg.ExpirerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			cfg.Log.Info("Expirer stopped gracefully")
			return
		case <-ticker.C:
			expired, err := orchestrator.ExpireStalePending(ctx)
			if err != nil {
				cfg.Log.Error("Expiry sweep failed", "error", err)
				continue
			}
			if expired > 0 {
				cfg.Log.Info("Expiry sweep completed", "expired", expired)
			}
		}
	}
}

func initOrchestrator(cfg *config.Config) service.Orchestrator {
	guard := availabilityservice.NewGuard(
		availabilityrepo.NewBlockRepository(cfg),
		availabilityrepo.NewPropertyLockRepository(cfg),
		cfg,
	)

	settlementClient := settlement.NewClient(settlement.Config{
		BaseURL:        cfg.SettlementBaseURL,
		ConnectTimeout: cfg.SettlementConnectTimeout,
		RequestTimeout: cfg.SettlementRequestTimeout,
		MaxRetries:     cfg.SettlementMaxRetries,
		RetryBackoff:   cfg.SettlementRetryBackoff,
		BackoffCap:     cfg.SettlementBackoffCap,
	}, cfg.Log)

	return service.NewOrchestrator(
		cfg,
		repository.NewReservationRepository(cfg),
		repository.NewHistoryRepository(cfg),
		guard,
		ledgerservice.NewLedger(ledgerrepo.NewLedgerRepository(cfg), cfg),
		settlementClient,
		events.NewOutboxRepository(cfg),
		client.NewPropertyClient(cfg.PropertyServiceBaseURL, cfg.SettlementConnectTimeout, cfg.SettlementRequestTimeout),
	)
}
