package main

import (
	availabilityhandler "reserva/internal/availability/handler"
	availabilityrepo "reserva/internal/availability/repository"
	availabilityservice "reserva/internal/availability/service"
	"reserva/internal/events"
	ledgerrepo "reserva/internal/ledger/repository"
	ledgerservice "reserva/internal/ledger/service"
	"reserva/internal/reservations/handler"
	"reserva/internal/reservations/repository"
	"reserva/internal/reservations/service"
	"reserva/internal/reservations/validator"
	"reserva/internal/settlement"
	"reserva/pkg/app"
	"reserva/pkg/client"
	"reserva/pkg/config"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
)

const ServiceName = "reservations"

// apiHandler mounts the reservation and availability routes on one router.
type apiHandler struct {
	reservations *handler.ReservationHandler
	availability *availabilityhandler.AvailabilityHandler
}

func (h *apiHandler) RegisterRoutes(router *httprouter.Router) {
	h.reservations.RegisterRoutes(router)
	h.availability.RegisterRoutes(router)
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Reservations service")

	orchestrator, guard, properties := initServices(cfg)

	api := &apiHandler{
		reservations: handler.NewReservationHandler(orchestrator, validator.NewReservationValidator(cfg.Log), cfg.Log),
		availability: availabilityhandler.NewAvailabilityHandler(guard, properties, cfg.Log),
	}

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, api)
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.Orchestrator, availabilityservice.Guard, client.PropertyClient) {
	blocks := availabilityrepo.NewBlockRepository(cfg)
	locks := availabilityrepo.NewPropertyLockRepository(cfg)
	guard := availabilityservice.NewGuard(blocks, locks, cfg)

	ledger := ledgerservice.NewLedger(ledgerrepo.NewLedgerRepository(cfg), cfg)

	settlementClient := settlement.NewClient(settlement.Config{
		BaseURL:        cfg.SettlementBaseURL,
		ConnectTimeout: cfg.SettlementConnectTimeout,
		RequestTimeout: cfg.SettlementRequestTimeout,
		MaxRetries:     cfg.SettlementMaxRetries,
		RetryBackoff:   cfg.SettlementRetryBackoff,
		BackoffCap:     cfg.SettlementBackoffCap,
	}, cfg.Log)

	properties := client.NewPropertyClient(
		cfg.PropertyServiceBaseURL,
		cfg.SettlementConnectTimeout,
		cfg.SettlementRequestTimeout,
	)

	orchestrator := service.NewOrchestrator(
		cfg,
		repository.NewReservationRepository(cfg),
		repository.NewHistoryRepository(cfg),
		guard,
		ledger,
		settlementClient,
		events.NewOutboxRepository(cfg),
		properties,
	)

	cfg.Log.Info("Reservation orchestrator initialized", "database", cfg.MongoDatabaseName)
	return orchestrator, guard, properties
}
