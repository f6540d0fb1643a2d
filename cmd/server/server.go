package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/thereayou/wetube/internal/config"
	"github.com/thereayou/wetube/internal/database"
	"github.com/thereayou/wetube/internal/github"
	"github.com/thereayou/wetube/internal/handlers"
	"github.com/thereayou/wetube/internal/middleware"
	"github.com/thereayou/wetube/internal/services"
	"github.com/thereayou/wetube/internal/session"
	"github.com/thereayou/wetube/internal/storage"
	"github.com/thereayou/wetube/internal/views"
	"github.com/thereayou/wetube/pkg/auth"
)

const (
	uploadsPrefix = "/uploads"

	// аватар плюс поля формы
	maxRequestBody = storage.MaxAvatarSize + 1<<20
)

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	AuthH      *handlers.AuthHandler
	UserH      *handlers.UserHandler

	cfg *config.Config
	log *slog.Logger
}

func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, error) {
	s := &Server{cfg: cfg, log: log, DB: &database.Database{}}

	if err := s.DB.Connect(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	store, err := s.sessionStore(ctx)
	if err != nil {
		return nil, err
	}

	avatars, err := s.avatarStorage(ctx)
	if err != nil {
		return nil, err
	}

	s.JWTManager = auth.NewJWTManager(cfg.Session.Secret, cfg.Session.TTL)
	sessions := session.NewManager(store, s.JWTManager, cfg.Session.CookieName, cfg.IsProduction())

	gh := github.NewClient(github.Config{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		Timeout:      cfg.GitHub.Timeout,
	})
	account := services.NewAccountService(s.DB, auth.NewBcryptHasher(bcrypt.DefaultCost), gh)

	s.AuthH = handlers.NewAuthHandler(account, avatars, log)
	s.UserH = handlers.NewUserHandler(account, avatars, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	tmpl, err := views.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.MaxMultipartMemory = 8 << 20
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.BodyLimit(maxRequestBody),
		middleware.Session(sessions, log),
	)
	if !cfg.IsProduction() {
		router.Static(uploadsPrefix, cfg.Storage.UploadsDir)
	}
	APIEndpoints(router, s.AuthH, s.UserH, log)
	s.Router = router

	return s, nil
}

// sessionStore использует Redis, а без REDIS_URL вне production хранит сессии в памяти
func (s *Server) sessionStore(ctx context.Context) (session.Store, error) {
	if s.cfg.RedisURL == "" {
		s.log.Warn("REDIS_URL is not set, sessions are kept in memory")
		return session.NewMemoryStore(), nil
	}

	redisOpts, err := redis.ParseURL(s.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	s.Redis = rdb
	return session.NewRedisStore(rdb), nil
}

// avatarStorage: S3 в production, локальная папка в остальных окружениях
func (s *Server) avatarStorage(ctx context.Context) (storage.AvatarStorage, error) {
	st := s.cfg.Storage
	if !s.cfg.IsProduction() {
		return storage.NewLocalStorage(st.UploadsDir, uploadsPrefix), nil
	}

	s3Storage, err := storage.NewS3Storage(ctx, storage.S3Config{
		Bucket:    st.S3Bucket,
		Region:    st.S3Region,
		Endpoint:  st.S3Endpoint,
		AccessKey: st.S3AccessKey,
		SecretKey: st.S3SecretKey,
		PublicURL: st.S3PublicURL,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 storage: %w", err)
	}
	return s3Storage, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливается
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "port", s.cfg.Port, "env", s.cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("server shutdown error", "error", err)
	}
	return s.close()
}

func (s *Server) close() error {
	var errs []error
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	errs = append(errs, s.DB.Close())
	return errors.Join(errs...)
}
