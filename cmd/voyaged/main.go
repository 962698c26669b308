package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	kitgrpc "github.com/go-kit/kit/transport/grpc"
	stdopentracing "github.com/opentracing/opentracing-go"
	stdzipkin "github.com/openzipkin/zipkin-go"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"google.golang.org/grpc"

	"github.com/Qalifah/voyage-tracker/booking"
	"github.com/Qalifah/voyage-tracker/cargo"
	"github.com/Qalifah/voyage-tracker/config"
	"github.com/Qalifah/voyage-tracker/geocoding"
	"github.com/Qalifah/voyage-tracker/handling"
	"github.com/Qalifah/voyage-tracker/inmem"
	"github.com/Qalifah/voyage-tracker/journey"
	"github.com/Qalifah/voyage-tracker/location"
	"github.com/Qalifah/voyage-tracker/mongo"
	"github.com/Qalifah/voyage-tracker/routing"
	"github.com/Qalifah/voyage-tracker/sqlite"
	"github.com/Qalifah/voyage-tracker/tracker"
	"github.com/Qalifah/voyage-tracker/tracking"
)

func main() {
	var (
		configFile = flag.String("config", "", "YAML configuration file")
		envFile    = flag.String("env", ".env", "dotenv file overlaid on the environment")
		httpAddr   = flag.String("http.addr", "", "HTTP listen address, overrides the configuration")
		grpcAddr   = flag.String("grpc.addr", "", "gRPC listen address, overrides the configuration")
		debug      = flag.Bool("debug", false, "log debug messages")
	)
	flag.Parse()

	var logger log.Logger
	logger = log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	if *debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	cfg, err := config.Load(*configFile, *envFile)
	if err != nil {
		level.Error(logger).Log("msg", "configuration", "err", err)
		os.Exit(1)
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if *grpcAddr != "" {
		cfg.GRPC.Addr = *grpcAddr
	}

	ctx := context.Background()

	var zipkinTracer *stdzipkin.Tracer
	if cfg.Zipkin.URL != "" {
		reporter := zipkinhttp.NewReporter(cfg.Zipkin.URL)
		defer reporter.Close()
		zEP, _ := stdzipkin.NewEndpoint("voyaged", cfg.HTTP.Addr)
		zipkinTracer, err = stdzipkin.NewTracer(reporter, stdzipkin.WithLocalEndpoint(zEP))
		if err != nil {
			level.Error(logger).Log("msg", "zipkin", "err", err)
			os.Exit(1)
		}
		level.Info(logger).Log("tracer", "Zipkin", "URL", cfg.Zipkin.URL)
	}
	otTracer := stdopentracing.GlobalTracer()

	// Port catalog, consulted before the geocoding API.
	catalog, err := sqlite.Open(ctx, cfg.Catalog.Path, log.With(logger, "component", "catalog"))
	if err != nil {
		level.Error(logger).Log("msg", "port catalog", "err", err)
		os.Exit(1)
	}
	defer catalog.Close()
	if err := catalog.Seed(ctx, location.SampleLocations()); err != nil {
		level.Error(logger).Log("msg", "seed port catalog", "err", err)
		os.Exit(1)
	}

	resolvers := []location.Resolver{location.NewRepositoryResolver(catalog)}
	if cfg.Geocoder.URL != "" {
		geocoder, err := geocoding.NewHTTPClient(cfg.Geocoder.URL, cfg.Geocoder.APIKey, otTracer, zipkinTracer, log.With(logger, "component", "geocoder"))
		if err != nil {
			level.Error(logger).Log("msg", "geocoder", "err", err)
			os.Exit(1)
		}
		if cfg.Redis.Addr != "" {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			defer rdb.Close()
			geocoder = geocoding.NewCachingResolver(geocoding.RedisCache{Client: rdb}, geocoder, cfg.Geocoder.CacheTTL, log.With(logger, "component", "geocache"))
		}
		resolvers = append(resolvers, geocoder)
	}
	resolver := location.Chain(resolvers...)

	var planner routing.Service
	planner, err = routing.NewHTTPClient(cfg.Router.URL, cfg.Router.Units, cfg.Router.Pace, otTracer, zipkinTracer, log.With(logger, "component", "router"))
	if err != nil {
		level.Error(logger).Log("msg", "route planner", "err", err)
		os.Exit(1)
	}
	planner = routing.NewLoggingService(log.With(logger, "component", "routing"), planner)

	var ts tracker.Service
	ts, err = tracker.NewHTTPClient(cfg.Tracker.Endpoint, cfg.Tracker.APIKey, otTracer, zipkinTracer, log.With(logger, "component", "tracker"))
	if err != nil {
		level.Error(logger).Log("msg", "tracking provider", "err", err)
		os.Exit(1)
	}
	ts = tracker.NewLoggingService(log.With(logger, "component", "tracker"), ts)

	poller := tracker.NewPoller(ts, log.With(logger, "component", "poller"))
	poller.MaxAttempts = cfg.Tracker.PollAttempts
	poller.Interval = cfg.Tracker.PollInterval

	reconstructor := journey.NewReconstructor(resolver, planner, log.With(logger, "component", "journey"))

	var (
		cargos         cargo.Repository
		handlingEvents cargo.HandlingEventRepository
	)
	if cfg.Mongo.URI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := mongo.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err == nil {
			err = mongo.EnsureIndexes(connectCtx, db)
		}
		cancel()
		if err != nil {
			level.Error(logger).Log("msg", "document store", "err", err)
			os.Exit(1)
		}
		defer db.Client().Disconnect(context.Background())
		cargos = mongo.NewCargoRepository(db)
		handlingEvents = mongo.NewHandlingEventRepository(db)
	} else {
		level.Info(logger).Log("msg", "no document store configured, keeping cargos in memory")
		cargos = inmem.NewCargoRepository()
		handlingEvents = inmem.NewHandlingEventRepository()
	}

	handlingEventFactory := cargo.HandlingEventFactory{
		CargoRepository:    cargos,
		LocationRepository: catalog,
	}

	fieldKeys := []string{"method"}
	duration := kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
		Namespace: "voyaged",
		Subsystem: "endpoints",
		Name:      "request_duration_seconds",
		Help:      "Request duration in seconds.",
	}, []string{"method", "success"})

	var bs booking.Service
	bs = booking.NewService(cargos, catalog)
	bs = booking.NewLoggingService(log.With(logger, "component", "booking"), bs)

	var hs handling.Service
	hs = handling.NewService(handlingEvents, handlingEventFactory, log.With(logger, "component", "handling"))
	hs = handling.NewLoggingService(log.With(logger, "component", "handling"), hs)

	var trs tracking.Service
	trs = tracking.NewService(cargos, handlingEvents, ts, poller, reconstructor, log.With(logger, "component", "tracking"))
	trs = tracking.NewLoggingService(log.With(logger, "component", "tracking"), trs)
	trs = tracking.NewInstrumentingService(
		kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: "api",
			Subsystem: "tracking_service",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, fieldKeys),
		kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
			Namespace: "api",
			Subsystem: "tracking_service",
			Name:      "request_latency_microseconds",
			Help:      "Total duration of requests in microseconds.",
		}, fieldKeys),
		trs,
	)

	endpointLogger := log.With(logger, "component", "endpoint")
	bookingSet := booking.NewSet(bs, endpointLogger, duration, otTracer, zipkinTracer)
	handlingSet := handling.NewSet(hs, endpointLogger, duration, otTracer, zipkinTracer)
	trackingSet := tracking.NewSet(trs, endpointLogger, duration, otTracer, zipkinTracer)

	httpLogger := log.With(logger, "component", "http")

	mux := http.NewServeMux()
	mux.Handle("/booking/v1/", booking.MakeHandler(bookingSet, httpLogger))
	mux.Handle("/handling/v1/", handling.MakeHandler(handlingSet, httpLogger))
	mux.Handle("/tracking/v1/", tracking.MakeHandler(trackingSet, httpLogger))
	mux.Handle("/metrics", promhttp.Handler())

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(mux)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		// A track request may poll for the whole budget.
		WriteTimeout: time.Duration(cfg.Tracker.PollAttempts)*cfg.Tracker.PollInterval + time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(kitgrpc.Interceptor))
	newgRPCServers(bookingSet, handlingSet, trackingSet, otTracer, zipkinTracer, log.With(logger, "component", "grpc")).register(grpcServer)

	errs := make(chan error, 3)
	go func() {
		level.Info(logger).Log("transport", "http", "address", cfg.HTTP.Addr, "msg", "listening")
		errs <- server.ListenAndServe()
	}()
	go func() {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			errs <- err
			return
		}
		level.Info(logger).Log("transport", "grpc", "address", cfg.GRPC.Addr, "msg", "listening")
		errs <- grpcServer.Serve(lis)
	}()
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		errs <- fmt.Errorf("%s", <-c)
	}()

	level.Info(logger).Log("terminated", <-errs)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
}
