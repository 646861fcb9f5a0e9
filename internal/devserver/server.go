// Package devserver is an in-memory implementation of the EditSync REST
// surface. It exists so the SDK and CLI have a realistic endpoint during
// development and in integration tests; it is not a production backend and
// deliberately persists nothing.
package devserver

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/editsync/editsync/pkg/logger"
	"github.com/editsync/editsync/pkg/metrics"
)

type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// Zero RPS disables the limiter.
	RateLimitRPS   float64
	RateLimitBurst int
	// Nil selects the in-process blacklist.
	Blacklist Blacklist
}

type Server struct {
	store     *memoryStore
	secret    []byte
	ttl       time.Duration
	blacklist Blacklist

	rps      float64
	burst    int
	limiters sync.Map // map[string]*rate.Limiter
}

func New(cfg Config) *Server {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = "editsync-dev-secret"
		logger.Warn("DEVSERVER_JWT_SECRET not set, using the built-in dev secret")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	bl := cfg.Blacklist
	if bl == nil {
		bl = newMemoryBlacklist()
	}
	return &Server{
		store:     newMemoryStore(),
		secret:    []byte(secret),
		ttl:       ttl,
		blacklist: bl,
		rps:       cfg.RateLimitRPS,
		burst:     cfg.RateLimitBurst,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.rps > 0 {
		r.Use(s.rateLimit())
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	g := r.Group("/api")
	g.POST("/auth/register", s.handleRegister)
	g.POST("/auth/login", s.handleLogin)

	authed := g.Group("", s.authRequired())
	authed.POST("/auth/logout", s.handleLogout)
	authed.GET("/users/profile", s.handleProfile)
	authed.PATCH("/users/profile", s.handleUpdateProfile)
	authed.DELETE("/users/me", s.handleDeleteAccount)

	authed.GET("/documents", s.handleListDocuments)
	authed.POST("/documents", s.handleCreateDocument)
	authed.POST("/documents/import", s.handleImportDocument)
	authed.GET("/documents/:id", s.handleGetDocument)
	authed.PUT("/documents/:id", s.handleUpdateDocument)
	authed.DELETE("/documents/:id", s.handleDeleteDocument)
	authed.POST("/documents/:id/duplicate", s.handleDuplicateDocument)

	authed.GET("/documents/:id/users", s.handleSharedUsers)
	authed.POST("/documents/:id/invite", s.handleInvite)
	authed.DELETE("/documents/:id/users/:userId", s.handleRemoveUser)
	authed.POST("/documents/:id/share", s.handleShareSettings)
	authed.POST("/documents/:id/share-email", s.handleShareEmail)

	return r
}

func (s *Server) mintToken(u *userRecord) (string, error) {
	claims := jwt.MapClaims{
		"userId": u.ID,
		"email":  u.Email,
		"name":   u.Name,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", err
	}
	id, _ := claims["userId"].(string)
	if id == "" {
		return "", errors.New("token has no userId claim")
	}
	return id, nil
}

func unauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"code": code, "message": message})
}

// authRequired verifies the bearer token and resolves the acting user. The
// 401 bodies carry the error codes the client's global invalidation rule
// recognizes.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c, "INVALID_TOKEN", "missing Authorization header")
			return
		}
		var raw string
		if n, _ := fmt.Sscanf(auth, "Bearer %s", &raw); n != 1 {
			unauthorized(c, "INVALID_TOKEN", "invalid Authorization header")
			return
		}

		if revoked, err := s.blacklist.Has(c.Request.Context(), raw); err != nil {
			logger.Warnf("blacklist check failed: %v", err)
		} else if revoked {
			unauthorized(c, "INVALID_TOKEN", "token has been revoked")
			return
		}

		userID, err := s.parseToken(raw)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				unauthorized(c, "TOKEN_EXPIRED", "session expired, please sign in again")
				return
			}
			unauthorized(c, "INVALID_TOKEN", "invalid token")
			return
		}
		if _, ok := s.store.userByID(userID); !ok {
			unauthorized(c, "USER_NOT_FOUND", "user no longer exists")
			return
		}

		c.Set("userID", userID)
		c.Set("token", raw)
		c.Next()
	}
}

func actingUser(c *gin.Context) string {
	return c.GetString("userID")
}

// respondUpdateErr maps store/update errors to HTTP responses; returns true
// when the caller may proceed with its success response.
func respondUpdateErr(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, errNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "document not found"})
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, gin.H{"message": "you do not have permission to do that"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	}
	return false
}

// rateLimit enforces a per-caller token bucket, same shape as the production
// gateway's limiter. Authenticated callers are keyed by bearer token,
// anonymous ones by client IP.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("Authorization")
		if key == "" {
			key = c.ClientIP()
		}
		if key == "" {
			key = "unknown"
		}
		v, ok := s.limiters.Load(key)
		if !ok {
			v, _ = s.limiters.LoadOrStore(key, rate.NewLimiter(rate.Limit(s.rps), s.burst))
		}
		lim := v.(*rate.Limiter)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
