// Package stubserver is a local stand-in for the quiznox auth and quiz
// gateways. It exists so the client can be exercised end-to-end offline
// and so integration tests have a real HTTP surface; it is not the
// production backend.
package stubserver

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quiznox/quiznox-client/internal/config"
	"github.com/quiznox/quiznox-client/internal/model"
	"github.com/quiznox/quiznox-client/internal/response"
	"github.com/quiznox/quiznox-client/internal/validator"
)

const contextKeyClaims = "claims"

// Server bundles the stub's services behind one gin engine serving both
// gateway surfaces: /auth/* and /questions.
type Server struct {
	cfg    *config.Config
	tokens *TokenService
	users  *UserStore
	log    zerolog.Logger
}

// New creates a stub server with empty in-memory state.
func New(cfg *config.Config, log zerolog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		tokens: NewTokenService(cfg),
		users:  NewUserStore(cfg.BcryptCost),
		log:    log.With().Str("component", "stubserver").Logger(),
	}
}

// Tokens exposes the token service, used by tests to mint expired tokens.
func (s *Server) Tokens() *TokenService { return s.tokens }

// Router builds the gin engine with all gateway routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(s.cfg.GinMode)
	validator.Setup()

	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(s.cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	// Auth gateway surface.
	r.POST("/auth/register", s.handleRegister)
	r.POST("/auth/login", s.handleLogin)
	r.POST("/auth/refresh", s.handleRefresh)
	r.POST("/auth/logout", s.handleLogout)

	authed := r.Group("", s.requireJWT())
	authed.GET("/auth/me", s.handleMe)
	authed.PUT("/auth/username", s.handleUpdateUsername)
	authed.PUT("/auth/password", s.handleUpdatePassword)

	// Quiz gateway surface.
	authed.GET("/questions", s.handleQuestions)

	return r
}

// requireJWT validates the access token from the Authorization header.
func (s *Server) requireJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := ""
		if h := c.GetHeader("Authorization"); h != "" {
			parts := strings.SplitN(h, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				tokenStr = parts[1]
			}
		}
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := s.tokens.Validate(tokenStr)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(contextKeyClaims, claims)
		c.Next()
	}
}

func getClaims(c *gin.Context) *Claims {
	val, exists := c.Get(contextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// ─── Handlers ──────────────────────────────────────────────────────────

func (s *Server) handleRegister(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailMessage(c, http.StatusUnprocessableEntity, validator.Translate(err))
		return
	}

	user, err := s.users.Register(req.Username, req.Password)
	if err == ErrUserExists {
		response.Fail(c, http.StatusConflict, response.ErrUserExists)
		return
	}
	if err != nil {
		s.log.Error().Err(err).Msg("register failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("issue tokens failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, model.AuthPayload{User: user, Tokens: pair})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailMessage(c, http.StatusUnprocessableEntity, validator.Translate(err))
		return
	}

	user, err := s.users.Authenticate(req.Username, req.Password)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Username)
	if err != nil {
		s.log.Error().Err(err).Msg("issue tokens failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.AuthPayload{User: user, Tokens: pair})
}

func (s *Server) handleRefresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailMessage(c, http.StatusUnprocessableEntity, validator.Translate(err))
		return
	}

	pair, _, err := s.tokens.Rotate(req.RefreshToken)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrRefreshInvalid)
		return
	}

	response.Success(c, http.StatusOK, pair)
}

func (s *Server) handleLogout(c *gin.Context) {
	var req model.LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailMessage(c, http.StatusUnprocessableEntity, validator.Translate(err))
		return
	}

	s.tokens.Revoke(req.RefreshToken)
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handleMe(c *gin.Context) {
	claims := getClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	user, err := s.users.Get(claims.Subject)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (s *Server) handleUpdateUsername(c *gin.Context) {
	claims := getClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	var req model.UpdateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailMessage(c, http.StatusUnprocessableEntity, validator.Translate(err))
		return
	}

	user, err := s.users.Rename(claims.Subject, req.Username)
	if err == ErrUserExists {
		response.Fail(c, http.StatusConflict, response.ErrUserExists)
		return
	}
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (s *Server) handleUpdatePassword(c *gin.Context) {
	claims := getClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	var req model.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FailMessage(c, http.StatusUnprocessableEntity, validator.Translate(err))
		return
	}

	switch err := s.users.ChangePassword(claims.Subject, req.CurrentPassword, req.NewPassword); err {
	case nil:
		response.Success(c, http.StatusOK, gin.H{"message": "password updated"})
	case ErrInvalidCredentials:
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	default:
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	}
}

// handleQuestions serves a topic's bank as a bare JSON array, matching
// the quiz gateway wire format.
func (s *Server) handleQuestions(c *gin.Context) {
	topicID := c.Query("topicId")
	if topicID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	c.JSON(http.StatusOK, questionBank(topicID))
}
