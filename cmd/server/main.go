package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"newsrec/internal/auth"
	"newsrec/internal/cache"
	"newsrec/internal/database"
	"newsrec/internal/handlers"
	"newsrec/internal/logger"
	"newsrec/internal/recommender"
	"newsrec/internal/services"
	"newsrec/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// No .env file is fine; plain environment variables work too.
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer database.Close()
	log.Info("connected to database", "host", dbConfig.Host, "db", dbConfig.DBName)

	if err := database.Migrate(); err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	log.Info("database migrations completed")

	cfg := recommender.DefaultScoringConfig()

	statsCache := buildStatsCache(log)

	interactions := recommender.NewInteractionService(database.DB, cfg, log, nil)
	scorer := buildCategoryScorer(interactions, statsCache, cfg, log)
	interactions.SetInvalidator(scorer)

	ranker := recommender.NewPostgresRanker(database.DB, os.Getenv("SEARCH_CONFIG"))
	ranking := recommender.NewRankingService(database.DB, cfg, scorer, ranker, log)
	recommend := recommender.NewRecommendService(database.DB, cfg, scorer, ranker, log)

	dispatcher := worker.NewDispatcher(4, 256, 2*time.Second, log)
	dispatcher.Start()

	hooks := recommender.NewHooks(database.DB, cfg, interactions, ranking, dispatcher, log)

	searchHistory := services.NewSearchHistoryService(database.DB, hooks, log)
	preferences := services.NewPreferenceService(database.DB, hooks, log)
	feedback := services.NewFeedbackService(database.DB, log)

	setupGracefulShutdown(dispatcher, log)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-change-me"
		log.Warn("JWT_SECRET not set, using development fallback")
	}
	tokenIssuer := auth.NewTokenIssuer(jwtSecret, 24*time.Hour)

	router := setupRouter(tokenIssuer, recommend, hooks, searchHistory, preferences, feedback)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info("starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("server exited", "error", err)
	}
}

// buildStatsCache prefers Redis when configured so softmax stats are
// shared across replicas, and falls back to the in-process cache.
func buildStatsCache(log *logger.Logger) cache.StatsCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Info("REDIS_ADDR not set, using in-memory stats cache")
		return cache.NewMemoryCache()
	}
	redisCache, err := cache.NewRedisCache(addr)
	if err != nil {
		log.Warn("redis unavailable, using in-memory stats cache", "error", err)
		return cache.NewMemoryCache()
	}
	log.Info("using redis stats cache", "addr", addr)
	return redisCache
}

// buildCategoryScorer selects the normalization strategy. The log curve
// is the default; softmax is kept for comparison deployments.
func buildCategoryScorer(interactions *recommender.InteractionService, statsCache cache.StatsCache, cfg recommender.ScoringConfig, log *logger.Logger) recommender.CategoryScorer {
	if os.Getenv("CATEGORY_SCORER") == "softmax" {
		log.Info("using softmax category scorer")
		return recommender.NewSoftmaxScorer(interactions, statsCache, cfg, log)
	}
	return recommender.NewLogNormScorer(interactions, cfg)
}

func setupGracefulShutdown(dispatcher *worker.Dispatcher, log *logger.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("received shutdown signal, gracefully shutting down")
		dispatcher.Stop()
		database.Close()
		log.Sync()
		os.Exit(0)
	}()
}

func setupRouter(tokenIssuer *auth.TokenIssuer, recommend *recommender.RecommendService, hooks *recommender.Hooks, searchHistory *services.SearchHistoryService, preferences *services.PreferenceService, feedback *services.FeedbackService) *gin.Engine {
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.Use(tokenIssuer.OptionalAuth())

	recommendHandler := handlers.NewRecommendHandler(recommend)
	trackingHandler := handlers.NewTrackingHandler(hooks)
	preferenceHandler := handlers.NewPreferenceHandler(searchHistory, preferences, feedback)
	docsHandler := handlers.NewDocsHandler()

	r.GET("/health", recommendHandler.HealthCheck)
	r.GET("/docs/:doc", docsHandler.ServeMarkdownAsHTML)

	api := r.Group("/api")
	{
		api.GET("/recommender/recommendations", recommendHandler.GetRecommendations)
		api.POST("/recommender/log-view-time", trackingHandler.LogViewTime)
		api.POST("/recommender/track-source-click", trackingHandler.TrackSourceClick)

		api.POST("/search-history", preferenceHandler.RecordSearch)
		api.PUT("/preferences/keywords", preferenceHandler.SetFavoriteKeywords)
		api.POST("/summaries/:id/feedback", preferenceHandler.SetFeedback)
	}

	return r
}
