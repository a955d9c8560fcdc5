package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"
	"google.golang.org/api/option"

	"github.com/2beens/ironlog/internal/auth"
	"github.com/2beens/ironlog/internal/config"
	"github.com/2beens/ironlog/internal/db"
	"github.com/2beens/ironlog/internal/events"
	"github.com/2beens/ironlog/internal/favorites"
	"github.com/2beens/ironlog/internal/middleware"
	"github.com/2beens/ironlog/internal/misc"
	"github.com/2beens/ironlog/internal/telemetry/metrics"
	"github.com/2beens/ironlog/internal/users"
	"github.com/2beens/ironlog/internal/workouts"
)

const verifiedTokenCacheTTL = 5 * time.Minute

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	dbPool      *pgxpool.Pool
	fsClient    *firestore.Client
	redisClient *redis.Client
	rateLimiter middleware.RequestRateLimiter
	verifier    auth.TokenVerifier
	publisher   events.Publisher

	usersRepo     usersStore
	workoutsRepo  workoutsStore
	favoritesRepo favoritesStore

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
}

type NewServerParams struct {
	Config           *config.Config
	VersionInfo      string
	RedisPassword    string
	StaticAuthSecret string
}

type workoutsStore interface {
	Add(ctx context.Context, workout workouts.Workout) (*workouts.Workout, error)
	List(ctx context.Context, ownerID string) ([]workouts.Workout, error)
	ListByExercise(ctx context.Context, ownerID, exerciseID string) ([]workouts.Workout, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type favoritesStore interface {
	List(ctx context.Context, ownerID string) ([]string, error)
	Toggle(ctx context.Context, ownerID, exerciseID string) (bool, error)
}

type usersStore interface {
	Create(ctx context.Context, user users.User) (*users.User, error)
	Get(ctx context.Context, uid string) (*users.User, error)
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
	}

	var storeCollectors []prometheus.Collector
	switch cfg.StoreBackend {
	case "postgres", "":
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: cfg.TracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		s.dbPool = dbPool
		s.usersRepo = users.NewPostgresRepo(dbPool)
		s.workoutsRepo = workouts.NewPostgresRepo(dbPool)
		s.favoritesRepo = favorites.NewPostgresRepo(dbPool)
		storeCollectors = append(storeCollectors, pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		))
	case "firestore":
		var opts []option.ClientOption
		if cfg.FirestoreCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
		}
		fsClient, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("new firestore client: %w", err)
		}
		s.fsClient = fsClient
		s.usersRepo = users.NewFirestoreRepo(fsClient)
		s.workoutsRepo = workouts.NewFirestoreRepo(fsClient)
		s.favoritesRepo = favorites.NewFirestoreRepo(fsClient)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}

	s.promRegistry = metrics.SetupPrometheus(storeCollectors...)
	s.metricsManager = metrics.NewManager("ironlog", "main", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	s.redisClient = redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	rdbStatus := s.redisClient.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}
	s.rateLimiter = redis_rate.NewLimiter(s.redisClient)

	switch cfg.AuthProvider {
	case "oidc", "":
		oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCProviderURL, cfg.OIDCClientID)
		if err != nil {
			return nil, fmt.Errorf("new oidc verifier: %w", err)
		}
		s.verifier = auth.NewCachedVerifier(oidcVerifier, verifiedTokenCacheTTL)
	case "static":
		if params.StaticAuthSecret == "" {
			return nil, errors.New("static auth provider needs a secret")
		}
		s.verifier = auth.NewStaticVerifier(params.StaticAuthSecret)
	default:
		return nil, fmt.Errorf("unknown auth provider: %s", cfg.AuthProvider)
	}

	if len(cfg.EventsBrokers) > 0 && cfg.EventsTopic != "" {
		s.publisher = events.NewKafkaPublisher(cfg.EventsBrokers, cfg.EventsTopic)
		log.Debugf("kafka events enabled, topic: %s", cfg.EventsTopic)
	} else {
		s.publisher = events.NoopPublisher{}
	}

	return s, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	apiRouter := r.PathPrefix("/api").Subrouter()

	usersHandler := users.NewHandler(s.usersRepo, s.verifier, s.publisher, s.metricsManager)
	registerRateLimit := middleware.RateLimit(
		s.rateLimiter,
		"register",
		s.config.RegisterRateLimitAllowedPerMin,
		s.metricsManager,
	)
	apiRouter.Handle(
		"/auth/register",
		registerRateLimit(http.HandlerFunc(usersHandler.HandleRegister)),
	).Methods("POST", "OPTIONS").Name("register")
	apiRouter.HandleFunc("/auth/me", usersHandler.HandleMe).Methods("GET", "OPTIONS").Name("me")

	workoutsHandler := workouts.NewHandler(s.workoutsRepo, s.publisher, s.metricsManager)
	apiRouter.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	apiRouter.HandleFunc("/workouts", workoutsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	apiRouter.HandleFunc("/workouts/exercise/{exerciseId}", workoutsHandler.HandleListByExercise).Methods("GET", "OPTIONS").Name("workouts-by-exercise")
	apiRouter.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-workout")

	favoritesHandler := favorites.NewHandler(s.favoritesRepo, s.publisher, s.metricsManager)
	apiRouter.HandleFunc("/favorites", favoritesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-favorites")
	apiRouter.HandleFunc("/favorites/toggle", favoritesHandler.HandleToggle).Methods("POST", "OPTIONS").Name("toggle-favorite")

	miscHandler := misc.NewHandler(s.versionInfo)
	apiRouter.HandleFunc("/health", miscHandler.HandleHealth).Methods("GET", "OPTIONS").Name("health")
	apiRouter.HandleFunc("/version", miscHandler.HandleVersion).Methods("GET", "OPTIONS").Name("version")

	// all the rest - unhandled paths
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.verifier)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	var closeErr error
	if err := s.publisher.Close(); err != nil {
		closeErr = multierr.Append(closeErr, fmt.Errorf("close events publisher: %w", err))
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("close redis client: %w", err))
		}
	}
	if s.fsClient != nil {
		if err := s.fsClient.Close(); err != nil {
			closeErr = multierr.Append(closeErr, fmt.Errorf("close firestore client: %w", err))
		}
	}
	if closeErr != nil {
		log.Errorf("graceful shutdown: %s", closeErr)
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
