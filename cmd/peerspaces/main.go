package main

import (
	"context"

	"carelink/internal/peerspaces/handler"
	"carelink/internal/peerspaces/presence"
	"carelink/internal/peerspaces/repository"
	"carelink/internal/peerspaces/service"
	"carelink/internal/peerspaces/validator"
	"carelink/pkg/app"
	"carelink/pkg/auth"
	"carelink/pkg/config"
)

const ServiceName = "peerspaces"

type stores struct {
	rooms    repository.RoomRepository
	messages repository.MessageRepository
	visits   repository.VisitRepository
	sessions repository.SessionRepository
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Peer Spaces service", "store", cfg.StoreDriver)

	st := initStores(cfg)
	tracker := presence.NewTracker()
	hub := handler.NewHub(cfg.Log)
	peerValidator := validator.NewPeerSpaceValidator(cfg.ChatMaxMessageLength, cfg.Log)

	chat := service.NewChatService(st.rooms, st.messages, st.visits, st.sessions, tracker, hub, peerValidator, cfg)
	spaces := service.NewSpaceService(st.rooms, st.messages, st.visits, st.sessions, tracker, peerValidator, cfg)

	var verifier auth.Verifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer)
	} else {
		cfg.Log.Warn("JWT_SECRET not set; every peer space connection is anonymous")
	}

	opts := []app.Option{
		app.WithStream(handler.WebSocketPath, handler.NewSocketHandler(hub, chat, verifier, cfg)),
	}
	if verifier != nil {
		opts = append(opts, app.WithAuthentication(verifier, false))
	}

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(func(context.Context) {
		hub.CloseAll()
		tracker.Reset()
		cfg.Log.Info("Presence cleared")
	})
	serverApp.SetApp(handler.NewPeerSpaceHandler(spaces, cfg.Log), opts...)
	serverApp.Run()
}

func initStores(cfg *config.Config) stores {
	if cfg.UsesMemoryStore() {
		cfg.Log.Warn("Using in-memory stores; data is lost on restart")
		return stores{
			rooms:    repository.NewMemoryRoomRepository(),
			messages: repository.NewMemoryMessageRepository(),
			visits:   repository.NewMemoryVisitRepository(),
			sessions: repository.NewMemorySessionRepository(),
		}
	}

	cfg.SetMongo()
	cfg.Log.Info("Peer space stores initialized", "database", cfg.MongoDatabaseName)
	return stores{
		rooms:    repository.NewMongoRoomRepository(cfg),
		messages: repository.NewMongoMessageRepository(cfg),
		visits:   repository.NewMongoVisitRepository(cfg),
		sessions: repository.NewMongoSessionRepository(cfg),
	}
}
