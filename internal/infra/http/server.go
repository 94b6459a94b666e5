package http

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/n-arms/md-pgp-server/internal/config"
	"github.com/n-arms/md-pgp-server/internal/domain"
	"github.com/n-arms/md-pgp-server/internal/infra/db"
	"github.com/n-arms/md-pgp-server/internal/infra/memstore"
	"github.com/n-arms/md-pgp-server/internal/infra/pgp"
	"github.com/n-arms/md-pgp-server/internal/infra/ratelimit"
	"github.com/n-arms/md-pgp-server/internal/usecase"
)

type Server struct {
	cfg config.Config
	r   *gin.Engine

	registerUC *usecase.RegisterAccount
	createUC   *usecase.CreateDocument
	shareUC    *usecase.ShareDocument
	listUC     *usecase.ListDocuments

	dbMode bool

	rateLimiter         domain.RateLimiter
	rateLimitRequests   int
	rateLimitWindow     time.Duration
	rateLimitFailClosed bool
}

// NewServer wires the default dependency graph: database repositories when
// the store is connected, in-memory ones otherwise.
func NewServer(cfg config.Config, store *db.Store) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r}
	s.initDeps(store)
	s.routes()
	return s
}

// ServerDeps lets tests and embedders supply their own repositories.
type ServerDeps struct {
	Accounts    usecase.AccountRepository
	Documents   usecase.DocumentRepository
	Crypto      usecase.CryptoService
	RateLimiter domain.RateLimiter
}

func NewServerWithDeps(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{cfg: cfg, r: r}
	crypto := deps.Crypto
	if crypto == nil {
		crypto = pgp.Service{}
	}
	s.buildUsecases(deps.Accounts, deps.Documents, crypto)
	s.initRateLimit(deps.RateLimiter)
	s.routes()
	return s
}

func (s *Server) initDeps(store *db.Store) {
	var (
		accounts  usecase.AccountRepository
		documents usecase.DocumentRepository
	)
	if store != nil && store.DB != nil {
		accounts = db.NewAccountRepository(store.DB)
		documents = db.NewDocumentRepository(store.DB)
		s.dbMode = true
	} else {
		mem := memstore.New()
		accounts = mem
		documents = mem
	}
	s.buildUsecases(accounts, documents, pgp.Service{})
	s.initRateLimit(nil)
}

func (s *Server) buildUsecases(accounts usecase.AccountRepository, documents usecase.DocumentRepository, crypto usecase.CryptoService) {
	s.registerUC = &usecase.RegisterAccount{Accounts: accounts, Crypto: crypto}
	s.createUC = &usecase.CreateDocument{Documents: documents}
	s.shareUC = &usecase.ShareDocument{Documents: documents, Accounts: accounts}
	s.listUC = &usecase.ListDocuments{Documents: documents}
}

func (s *Server) initRateLimit(override domain.RateLimiter) {
	if override != nil {
		s.rateLimiter = override
	}
	if s.rateLimiter == nil && s.cfg.RateLimitRequests > 0 {
		if s.cfg.RedisAddr != "" {
			limiter, err := ratelimit.NewRedisLimiter(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, nil)
			if err != nil {
				log.Printf("redis rate limiter unavailable (%v); falling back to in-memory limiter", err)
			} else {
				s.rateLimiter = limiter
			}
		}
		if s.rateLimiter == nil {
			s.rateLimiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{
				MaxKeys: s.cfg.RateLimitMaxKeys,
			})
		}
	}
	s.rateLimitRequests = s.cfg.RateLimitRequests
	if s.cfg.RateLimitWindowSeconds > 0 {
		s.rateLimitWindow = time.Duration(s.cfg.RateLimitWindowSeconds) * time.Second
	}
	s.rateLimitFailClosed = s.cfg.RateLimitFailClosed
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		mode := "no-db"
		if s.dbMode {
			mode = "db"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "mode": mode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/accounts", s.handleRegister)
		v1.POST("/documents", s.handleCreateDocument)
		v1.POST("/documents/:doc_id/share", s.handleShareDocument)
		v1.GET("/documents", s.handleListDocuments)
		v1.GET("/documents/shared", s.handleListSharedDocuments)
	}
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.r
}
