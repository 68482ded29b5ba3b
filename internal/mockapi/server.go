package mockapi

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/MrEthical07/goCampus/internal/logger"
	"github.com/MrEthical07/goCampus/jwt"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// Config configures a Server.
type Config struct {
	Addr string
	// SigningMethod defaults to HS256 with Secret. Ed25519 signs with SigningKey, a raw or
	// PEM private key, or with a key generated at start when SigningKey is empty.
	SigningMethod jwt.SigningMethod
	Secret        []byte
	SigningKey    []byte
	Issuer        string
	AccessTTL     time.Duration
	BcryptCost    int
	Seeds         []Seed
}

// DefaultConfig listens on :3000 with the default seeds and HS256. Secret must still be set.
func DefaultConfig() Config {
	return Config{
		Addr:          ":3000",
		SigningMethod: jwt.MethodHS256,
		Issuer:        "campus-mockapi",
		AccessTTL:     12 * time.Hour,
		BcryptCost:    bcrypt.DefaultCost,
		Seeds:         DefaultSeeds(),
	}
}

// Server is the in-memory backend.
type Server struct {
	cfg    Config
	log    logger.Logger
	tokens *jwt.Manager
	users  *directory
	router *gin.Engine

	mu         sync.Mutex
	lessons    map[string]lessonRecord
	pushTokens map[string]string
	chats      map[string][]chatMessage
}

// New seeds the directory and builds the routes.
func New(cfg Config, log logger.Logger) (*Server, error) {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultConfig().AccessTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultConfig().Issuer
	}

	jcfg := jwt.Config{
		AccessTTL:  cfg.AccessTTL,
		Issuer:     cfg.Issuer,
		Leeway:     30 * time.Second,
		RequireIAT: true,
	}
	switch cfg.SigningMethod {
	case "", jwt.MethodHS256:
		if len(cfg.Secret) < 32 {
			return nil, errors.New("mockapi: secret must be at least 32 bytes")
		}
		jcfg.SigningMethod = jwt.MethodHS256
		jcfg.PrivateKey = cfg.Secret
	case jwt.MethodEd25519:
		priv, err := ed25519Key(cfg.SigningKey)
		if err != nil {
			return nil, fmt.Errorf("mockapi: %w", err)
		}
		jcfg.SigningMethod = jwt.MethodEd25519
		jcfg.PrivateKey = priv
		jcfg.PublicKey = priv.Public().(ed25519.PublicKey)
	default:
		return nil, fmt.Errorf("mockapi: unsupported signing method %q", cfg.SigningMethod)
	}

	tokens, err := jwt.NewManager(jcfg)
	if err != nil {
		return nil, fmt.Errorf("mockapi: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		log:        logger.OrNop(log),
		tokens:     tokens,
		users:      newDirectory(cfg.BcryptCost),
		lessons:    make(map[string]lessonRecord),
		pushTokens: make(map[string]string),
		chats:      make(map[string][]chatMessage),
	}
	for _, seed := range cfg.Seeds {
		if _, err := s.users.add(seed); err != nil {
			return nil, fmt.Errorf("mockapi: seed %s: %w", seed.Email, err)
		}
	}
	s.seedLessons()
	s.router = s.routes()
	return s, nil
}

func ed25519Key(raw []byte) (ed25519.PrivateKey, error) {
	if len(raw) == 0 {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		return priv, err
	}
	return jwt.ParseEd25519PrivateKey(raw)
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("mock backend listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("mock backend stopped")
		return nil
	}
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	api.POST("/login", s.login)
	api.GET("/auth/me", s.requireBearer(), s.me)
	api.POST("/register-push-token", s.requireBearer(), s.registerPushToken)

	api.GET("/departments", s.departments)
	api.GET("/positions", s.positions)
	api.GET("/stats", s.stats)
	api.GET("/profile/:id", s.profile)
	api.GET("/marks/:id", s.marks)
	api.GET("/schedule/:groupId", s.schedule)

	api.POST("/ai/chat", s.chat)
	api.GET("/ai/history/:id", s.chatHistory)

	admin := api.Group("/admin")
	admin.GET("/groups", s.groups)
	admin.GET("/check-room", s.checkRoom)
	admin.POST("/create-lesson", s.createLesson)
	admin.DELETE("/schedule/:id", s.deleteLesson)

	api.POST("/generate-schedule", s.requireBearer(), s.generateSchedule)

	teacher := api.Group("/teacher")
	teacher.GET("/schedule/:id", s.teacherSchedule)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}
