package main

import (
	"context"
	"time"

	"carelink/internal/peerspaces/presence"
	peersrepo "carelink/internal/peerspaces/repository"
	peersservice "carelink/internal/peerspaces/service"
	peersvalidator "carelink/internal/peerspaces/validator"
	providersrepo "carelink/internal/providers/repository"
	providersservice "carelink/internal/providers/service"
	providersvalidator "carelink/internal/providers/validator"
	"carelink/pkg/config"
	"carelink/pkg/model"
)

const JobName = "seed"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	if cfg.UsesMemoryStore() {
		cfg.Log.Fatal("Seeding needs the mongo store driver")
	}
	cfg.SetMongo()

	seedProviders(ctx, cfg)
	seedRooms(ctx, cfg)

	cfg.GracefulShutdown()
	cfg.Log.Info("Seed completed")
}

func seedProviders(ctx context.Context, cfg *config.Config) {
	repo := providersrepo.NewMongoProviderRepository(cfg)
	existing, err := repo.CountBookable(ctx, model.ProviderFilter{})
	if err != nil {
		cfg.Log.Fatal("Failed to count providers", "error", err)
	}
	if existing > 0 {
		cfg.Log.Info("Providers already seeded", "count", existing)
		return
	}

	svc := providersservice.NewProviderService(repo, providersvalidator.NewProviderValidator(cfg.Log), cfg)
	for _, provider := range providers {
		if err := svc.Create(ctx, provider); err != nil {
			cfg.Log.Fatal("Failed to seed provider", "name", provider.Name, "error", err)
		}
	}
	cfg.Log.Info("Providers seeded", "count", len(providers))
}

func seedRooms(ctx context.Context, cfg *config.Config) {
	roomsRepo := peersrepo.NewMongoRoomRepository(cfg)
	existing, err := roomsRepo.FindActive(ctx)
	if err != nil {
		cfg.Log.Fatal("Failed to list rooms", "error", err)
	}
	if len(existing) > 0 {
		cfg.Log.Info("Rooms already seeded", "count", len(existing))
		return
	}

	svc := peersservice.NewSpaceService(
		roomsRepo,
		peersrepo.NewMongoMessageRepository(cfg),
		peersrepo.NewMongoVisitRepository(cfg),
		peersrepo.NewMongoSessionRepository(cfg),
		presence.NewTracker(),
		peersvalidator.NewPeerSpaceValidator(cfg.ChatMaxMessageLength, cfg.Log),
		cfg,
	)
	for _, room := range rooms {
		if err := svc.CreateRoom(ctx, room); err != nil {
			cfg.Log.Fatal("Failed to seed room", "name", room.Name, "error", err)
		}
	}
	cfg.Log.Info("Rooms seeded", "count", len(rooms))
}
