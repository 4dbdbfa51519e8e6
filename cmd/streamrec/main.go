// Streamrec - Real-Time Streaming Recommendation Pipeline
// Copyright 2026 Streamrec Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamrec/streamrec

// Command streamrec runs the full pipeline in one process: embedded NATS
// JetStream, the stream processors, the state stores, and the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/streamrec/streamrec/internal/api"
	"github.com/streamrec/streamrec/internal/codec"
	"github.com/streamrec/streamrec/internal/config"
	"github.com/streamrec/streamrec/internal/logging"
	"github.com/streamrec/streamrec/internal/pipeline"
	"github.com/streamrec/streamrec/internal/state"
	"github.com/streamrec/streamrec/internal/stream"
	"github.com/streamrec/streamrec/internal/supervisor"
	"github.com/streamrec/streamrec/internal/supervisor/services"
	"github.com/streamrec/streamrec/internal/window"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Fatal error")
	}
}

//nolint:gocyclo // startup wiring is inherently sequential
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logging.Info().Msg("Starting streamrec")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Transport: embedded server or external cluster.
	natsURL := cfg.NATS.URL
	var embedded *stream.EmbeddedServer
	if cfg.NATS.EmbeddedServer {
		embedded, err = stream.NewEmbeddedServer(&stream.ServerConfig{
			Host:              "127.0.0.1",
			Port:              4222,
			StoreDir:          cfg.NATS.StoreDir,
			JetStreamMaxMem:   cfg.NATS.MaxMemory,
			JetStreamMaxStore: cfg.NATS.MaxStore,
		})
		if err != nil {
			return fmt.Errorf("starting embedded NATS: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.NATS.CloseTimeout)
			defer cancel()
			if err := embedded.Shutdown(shutdownCtx); err != nil {
				logging.Error().Err(err).Msg("Embedded NATS shutdown failed")
			}
		}()
		natsURL = embedded.ClientURL()
		logging.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	}

	// Provision the streams before any publisher or subscriber connects.
	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.NATS.MaxReconnects),
		natsgo.ReconnectWait(cfg.NATS.ReconnectWait),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("creating JetStream context: %w", err)
	}
	retention := time.Duration(cfg.NATS.RetentionDays) * 24 * time.Hour
	initializer, err := stream.NewStreamInitializer(js, stream.DefaultStreams(retention))
	if err != nil {
		return fmt.Errorf("creating stream initializer: %w", err)
	}
	if err := initializer.EnsureStreams(ctx); err != nil {
		return fmt.Errorf("provisioning streams: %w", err)
	}
	logging.Info().Msg("JetStream streams ready")

	// State: profile store recovered from the changelog, recommendation
	// serving store, and the in-memory catalog projection.
	c := codec.NewJSON()

	changelog, err := state.OpenChangelog(filepath.Join(cfg.Store.Path, "profiles"))
	if err != nil {
		return fmt.Errorf("opening profile changelog: %w", err)
	}
	defer changelog.Close()

	profiles := state.NewProfileStore(changelog, c)
	recovered, err := profiles.Recover()
	if err != nil {
		return fmt.Errorf("recovering profiles: %w", err)
	}
	logging.Info().Int("profiles", recovered).Msg("Profile store recovered")

	recStore, err := state.OpenRecommendationStore(filepath.Join(cfg.Store.Path, "recommendations"), c)
	if err != nil {
		return fmt.Errorf("opening recommendation store: %w", err)
	}
	defer recStore.Close()
	guardedRecs := state.NewGuardedStore(recStore)

	catalog := state.NewCatalogStore()
	windows := window.NewTumbling(cfg.Pipeline.WindowSize, cfg.Pipeline.WindowGrace)
	executor := pipeline.NewExecutor(cfg.Pipeline.Partitions)

	// Watermill transport.
	wmLogger := logging.NewWatermillLogger()
	publisher, err := stream.NewPublisher(stream.DefaultPublisherConfig(natsURL), wmLogger)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer publisher.Close()

	newSubscriber := func(streamName, suffix string) (*stream.Subscriber, error) {
		return stream.NewSubscriber(&stream.SubscriberConfig{
			URL:              natsURL,
			StreamName:       streamName,
			DurableName:      cfg.NATS.DurableName + suffix,
			QueueGroup:       cfg.NATS.QueueGroup + suffix,
			SubscribersCount: cfg.NATS.SubscribersCount,
			AckWaitTimeout:   cfg.NATS.AckWaitTimeout,
			MaxDeliver:       cfg.NATS.MaxDeliver,
			MaxAckPending:    cfg.NATS.MaxAckPending,
			CloseTimeout:     cfg.NATS.CloseTimeout,
			MaxReconnects:    cfg.NATS.MaxReconnects,
			ReconnectWait:    cfg.NATS.ReconnectWait,
		}, wmLogger)
	}

	aggSub, err := newSubscriber(stream.StreamEvents, "-aggregator")
	if err != nil {
		return fmt.Errorf("creating aggregator subscriber: %w", err)
	}
	defer aggSub.Close()
	featSub, err := newSubscriber(stream.StreamEvents, "-features")
	if err != nil {
		return fmt.Errorf("creating features subscriber: %w", err)
	}
	defer featSub.Close()
	catSub, err := newSubscriber(stream.StreamCatalog, "-catalog")
	if err != nil {
		return fmt.Errorf("creating catalog subscriber: %w", err)
	}
	defer catSub.Close()
	genSub, err := newSubscriber(stream.StreamProfiles, "-generator")
	if err != nil {
		return fmt.Errorf("creating generator subscriber: %w", err)
	}
	defer genSub.Close()

	router, err := stream.NewRouter(&stream.RouterConfig{
		CloseTimeout:         cfg.NATS.CloseTimeout,
		RetryMaxRetries:      cfg.NATS.RetryMaxRetries,
		RetryInitialInterval: cfg.NATS.RetryInitialInterval,
		RetryMaxInterval:     cfg.NATS.RetryMaxInterval,
		RetryMultiplier:      2.0,
		PoisonTopic:          cfg.NATS.PoisonTopic,
	}, publisher.WatermillPublisher(), wmLogger)
	if err != nil {
		return fmt.Errorf("creating router: %w", err)
	}

	// Processing stages.
	aggregator := pipeline.NewProfileAggregator(c, profiles, windows, executor)
	router.AddHandler("profile-aggregator",
		stream.SubjectUserEvents, aggSub.WatermillSubscriber(),
		stream.SubjectProfilesUpdated, publisher.WatermillPublisher(),
		aggregator.Handle)

	extractor := pipeline.NewFeatureExtractor(c, catalog)
	router.AddConsumerHandler("feature-extractor",
		stream.SubjectUserEvents, featSub.WatermillSubscriber(), extractor.Handle)

	projector := pipeline.NewCatalogProjector(c, catalog)
	router.AddConsumerHandler("catalog-projector",
		stream.SubjectCatalogItems, catSub.WatermillSubscriber(), projector.Handle)

	generator := pipeline.NewGenerator(c, catalog, guardedRecs, executor)
	router.AddConsumerHandler("recommendation-generator",
		stream.SubjectProfilesUpdated, genSub.WatermillSubscriber(), generator.Handle)

	// HTTP boundary.
	handler := api.NewHandler(c, publisher, guardedRecs)
	httpServer := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewRouter(handler, api.RouterConfig{
			RequestLimit:       cfg.HTTP.RequestLimit,
			RequestLimitWindow: cfg.HTTP.RequestLimitWindow,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Supervision.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddPipelineService(services.NewRouterService(router))
	tree.AddPipelineService(services.NewMaintenanceService(windows, profiles, cfg.Pipeline.EvictInterval, cfg.Store.SnapshotInterval))
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.HTTP.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", cfg.HTTP.Addr).Msg("Streamrec running")

	<-ctx.Done()
	logging.Info().Msg("Shutting down")

	// Stop intake, then wait for every in-flight partition task before
	// the stores close underneath them.
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.NATS.CloseTimeout)
	defer cancel()
	if err := executor.Drain(drainCtx); err != nil {
		logging.Error().Err(err).Msg("Partition drain failed")
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor exited with error")
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
