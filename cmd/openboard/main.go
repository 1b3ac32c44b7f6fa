package main

import (
	"context"
	"crypto/rand"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"openboard/internal/broadcast"
	"openboard/internal/client"
	"openboard/internal/cluster"
	"openboard/internal/config"
	"openboard/internal/files"
	"openboard/internal/handlers"
	"openboard/internal/logging"
	"openboard/internal/middleware"
	"openboard/internal/room"
	"openboard/internal/transport"
)

func main() {
	godotenv.Load()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logging.New("info")
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.Log.Level)

	store, err := files.NewStore(cfg.Files.Dir, cfg.Files.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open file store")
	}

	secret := []byte(cfg.Sign.Secret)
	if len(secret) == 0 {
		// Ephemeral secret: signed URLs do not survive a restart.
		secret = make([]byte, 32)
		rand.Read(secret)
		log.Warn().Msg("sign.secret not set, using ephemeral secret")
	}
	signer := files.NewSigner(secret, cfg.Sign.TTL)

	limits := &middleware.Limits{
		MaxRoomSize:       cfg.Limits.MaxRoomSize,
		MaxObjects:        cfg.Limits.MaxObjects,
		MaxMessageSize:    cfg.Limits.MaxMessageSize,
		MaxRooms:          cfg.Limits.MaxRooms,
		MaxObjectDepth:    cfg.Limits.MaxObjectDepth,
		MaxObjectElements: cfg.Limits.MaxObjectElements,
		MessagesPerSecond: cfg.Limits.MessagesPerSecond,
		BurstSize:         cfg.Limits.BurstSize,
	}

	sessions := client.NewSessionManager(cfg.Cleanup.SessionTTL, cfg.Limits.MessagesPerSecond, cfg.Limits.BurstSize)
	rooms := room.NewManager(cfg.Limits.MaxRooms, cfg.Cleanup.RoomIdle, log)

	// The gateway and the bus reference each other: outbound events go
	// through the bus, inbound peer events come back through the gateway.
	var gw *broadcast.Gateway
	var bus cluster.Bus
	var peerBus *cluster.PeerBus
	if len(cfg.Cluster.Peers) > 0 {
		node := cfg.Cluster.Node
		if node == "" {
			node = uuid.NewString()
		}
		peerBus = cluster.NewPeerBus(node, cfg.Cluster.Peers, func(m cluster.Message) {
			gw.HandleCluster(m)
		}, log)
		bus = peerBus
		log.Info().Str("node", node).Int("peers", len(cfg.Cluster.Peers)).Msg("cluster mode")
	} else {
		bus = cluster.NoopBus{}
	}
	defer bus.Close()

	gw = broadcast.NewGateway(rooms, bus, store, signer, log)
	processor := handlers.NewProcessor(gw, store, signer, limits, log)
	router := handlers.NewRouter(processor)

	ipLimiter := middleware.NewIPRateLimit()
	wsHandler := transport.NewHandler(limits, ipLimiter, sessions, rooms, router, processor, cfg.Server.Domains, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go rooms.StartCleanup(ctx, cfg.Cleanup.Interval)
	go func() {
		ticker := time.NewTicker(cfg.Cleanup.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Cleanup()
				ipLimiter.Cleanup()
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/files/", files.NewHandler(store, signer, log))
	if peerBus != nil {
		mux.Handle("/cluster", peerBus)
	}

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.Server.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server failed")
	}
	log.Info().Msg("server stopped")
}
