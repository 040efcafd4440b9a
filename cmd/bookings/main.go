package main

import (
	"context"

	"carelink/internal/bookings/events"
	"carelink/internal/bookings/handler"
	"carelink/internal/bookings/repository"
	"carelink/internal/bookings/service"
	"carelink/internal/bookings/validator"
	"carelink/internal/ledger"
	providershandler "carelink/internal/providers/handler"
	providersrepo "carelink/internal/providers/repository"
	providersservice "carelink/internal/providers/service"
	providersvalidator "carelink/internal/providers/validator"
	usersrepo "carelink/internal/users/repository"
	"carelink/pkg/app"
	"carelink/pkg/auth"
	"carelink/pkg/config"
	"carelink/pkg/contracts"
	"carelink/pkg/db/memory"
	kafka_config "carelink/pkg/kafka/config"
)

const ServiceName = "bookings"

type stores struct {
	bookings  repository.BookingRepository
	providers providersrepo.ProviderRepository
	users     usersrepo.UserRepository
}

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required for the bookings service")
	}

	cfg.Log.Info("Starting Bookings service", "store", cfg.StoreDriver)
	st := initStores(cfg)
	publisher := initPublisher(cfg)

	providerService := providersservice.NewProviderService(
		st.providers,
		providersvalidator.NewProviderValidator(cfg.Log),
		cfg,
	)
	bookingService := service.NewBookingService(
		st.bookings,
		st.providers,
		st.users,
		ledger.New(st.providers, cfg.Log),
		publisher,
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func(context.Context) {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close booking event publisher", "error", err)
		}
	})
	serverApp.SetApp(
		contracts.Handlers{
			providershandler.NewProviderHandler(providerService, cfg.Log),
			handler.NewBookingHandler(bookingService, cfg.Log),
		},
		app.WithAuthentication(auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer), true),
	)
	serverApp.Run()
}

func initStores(cfg *config.Config) stores {
	if cfg.UsesMemoryStore() {
		cfg.Log.Warn("Using in-memory stores; data is lost on restart")
		return stores{
			bookings:  repository.NewMemoryBookingRepository(memory.NewTransactionManager()),
			providers: providersrepo.NewMemoryProviderRepository(),
			users:     usersrepo.NewMemoryUserRepository(),
		}
	}

	cfg.SetMongo()
	cfg.Log.Info("Booking stores initialized", "database", cfg.MongoDatabaseName)
	return stores{
		bookings:  repository.NewMongoBookingRepository(cfg),
		providers: providersrepo.NewMongoProviderRepository(cfg),
		users:     usersrepo.NewMongoUserRepository(cfg),
	}
}

func initPublisher(cfg *config.Config) events.Publisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Booking events disabled")
		return events.NewNoopPublisher()
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	publisher, err := events.NewKafkaPublisher(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQ, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking event publisher", "error", err)
	}
	cfg.Log.Info("Booking events enabled", "topic", cfg.BookingEventsTopic)
	return publisher
}
