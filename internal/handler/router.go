package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cognicore/lmclass/pkg/lmclass/classify"
	"github.com/cognicore/lmclass/pkg/lmclass/internalerr"
	"github.com/cognicore/lmclass/pkg/lmclass/lm"
	"github.com/cognicore/lmclass/pkg/lmclass/store"
)

// Engine is the part of lmclass.Engine the HTTP surface needs
type Engine interface {
	Scores(text string, mode lm.Mode) ([]classify.Score, error)
	Priors() (map[string]float64, error)
	Stats() ([]lm.Stats, error)
	Runs(ctx context.Context, limit int) ([]store.Run, error)
}

const defaultRunLimit = 20

// ClassifyRequest is the body of POST /api/v1/classify
type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
	Mode string `json:"mode"` // U, B, S or the mode name; empty uses the server default
}

// ScoreResponse is one class's score. LogProb is null when the class gives
// the text zero probability.
type ScoreResponse struct {
	Label   string   `json:"label"`
	LogProb *float64 `json:"log_prob"`
	Prior   float64  `json:"prior"`
}

// ClassifyResponse is the result of POST /api/v1/classify
type ClassifyResponse struct {
	Label  string          `json:"label"`
	Mode   lm.Mode         `json:"mode"`
	Scores []ScoreResponse `json:"scores"`
}

type api struct {
	engine      Engine
	defaultMode lm.Mode
	logger      *zap.Logger
}

// SetupRouter builds the gin engine serving the /api/v1 routes
func SetupRouter(engine Engine, defaultMode lm.Mode, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	a := &api{engine: engine, defaultMode: defaultMode, logger: logger}

	router := gin.New()
	router.Use(CustomRecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/classify", a.classify)
		v1.GET("/priors", a.priors)
		v1.GET("/stats", a.stats)
		v1.GET("/runs", a.runs)
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "healthy",
			})
		})
	}

	return router
}

func (a *api) classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mode := a.defaultMode
	if req.Mode != "" {
		m, err := lm.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mode = m
	}

	scores, err := a.engine.Scores(req.Text, mode)
	if err != nil {
		a.fail(c, err)
		return
	}

	resp := ClassifyResponse{Label: classify.Best(scores), Mode: mode, Scores: make([]ScoreResponse, len(scores))}
	for i, s := range scores {
		resp.Scores[i] = ScoreResponse{Label: s.Label, Prior: s.Prior}
		if !math.IsInf(s.LogProb, 0) && !math.IsNaN(s.LogProb) {
			lp := s.LogProb
			resp.Scores[i].LogProb = &lp
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (a *api) priors(c *gin.Context) {
	priors, err := a.engine.Priors()
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"priors": priors})
}

func (a *api) stats(c *gin.Context) {
	stats, err := a.engine.Stats()
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": stats})
}

func (a *api) runs(c *gin.Context) {
	limit := defaultRunLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := a.engine.Runs(c.Request.Context(), limit)
	if err != nil {
		a.fail(c, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (a *api) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, internalerr.ErrNotTrained), errors.Is(err, internalerr.ErrEmptyCorpus):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// LoggerMiddleware logs every request
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		)
		c.Next()
	}
}

// CustomRecoveryMiddleware turns a panic into a logged 500 response
func CustomRecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
