package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/layer-3/hyperdash/adapters/events"
	"github.com/layer-3/hyperdash/adapters/google"
	"github.com/layer-3/hyperdash/adapters/store"
	"github.com/layer-3/hyperdash/adapters/tokenizer"
	"github.com/layer-3/hyperdash/adapters/userstore"
	"github.com/layer-3/hyperdash/config"
	"github.com/layer-3/hyperdash/gateway"
	"github.com/layer-3/hyperdash/ports"
	"github.com/layer-3/hyperdash/service"
	"github.com/layer-3/hyperdash/session"
	identityhttp "github.com/layer-3/hyperdash/transport/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const identityAddr = "127.0.0.1:9000"

func main() {
	cfg := config.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	upstreamURL := cfg.UpstreamURL
	if cfg.EmbedIdentity {
		runIdentity(cfg, log)
		upstreamURL = "http://" + identityAddr
	}

	client := gateway.NewClient(upstreamURL,
		gateway.WithTimeout(cfg.UpstreamTimeout),
		gateway.WithLogger(log),
	)

	metrics := gateway.NewMetrics(prometheus.DefaultRegisterer)
	server := gateway.NewServer(client,
		gateway.WithServerLogger(log),
		gateway.WithDocsDir(cfg.DocsDir),
		gateway.WithMetrics(metrics),
		gateway.WithCookieOptions(session.CookieOptions{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		}),
	)

	log.Info().Str("addr", cfg.ListenAddr).Str("upstream", upstreamURL).Msg("gateway listening")
	if err := server.Router().Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("gateway server failed")
	}
}

// runIdentity starts the in-process identity service the gateway proxies to.
func runIdentity(cfg config.Config, log zerolog.Logger) {
	// The signing key is generated per process; tokens do not survive a
	// restart. Load a persistent key here before running more than one
	// instance.
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		log.Fatal().Err(err).Msg("generating signing key")
	}

	var (
		authStore ports.Store
		eventPub  ports.EventPublisher
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("parsing REDIS_URL")
		}
		redisClient := redis.NewClient(opts)
		authStore = store.NewRedisStore(redisClient)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("creating event publisher")
		}
		eventPub = events.NewWatermillPublisher(publisher)
	} else {
		authStore = store.NewMemoryStore()
	}

	var users ports.UserStore
	if cfg.IdentityDSN != "" {
		users, err = userstore.NewSQLiteStore(cfg.IdentityDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("opening user store")
		}
	} else {
		users = userstore.NewMemoryStore()
	}

	var verifier ports.GoogleVerifier
	if cfg.GoogleClientID != "" {
		verifier, err = google.NewVerifier(context.Background(), cfg.GoogleClientID)
		if err != nil {
			log.Fatal().Err(err).Msg("creating google verifier")
		}
	}

	authService := service.NewAuthService(
		tokenizer.NewJWTTokenizer(privateKey),
		authStore,
		users,
		verifier,
		eventPub,
		log,
	)

	router := identityhttp.SetupRouter(authService)
	go func() {
		if err := router.Run(identityAddr); err != nil {
			log.Fatal().Err(err).Msg("identity server failed")
		}
	}()
	log.Info().Str("addr", identityAddr).Msg("embedded identity service listening")
}
