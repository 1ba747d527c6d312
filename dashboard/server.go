// Package dashboard serves the interactive taxi orders forecasting page. Every browser
// gets its own forecasting session tracked by a cookie.
package dashboard

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"time"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	DefaultCookieName = "taxiforecaster_session"
	DefaultSessionTTL = 2 * time.Hour
)

const (
	sessionKey      = "session"
	htmlContentType = "text/html; charset=utf-8"
	jsonContentType = "application/json; charset=utf-8"
)

var ErrNoSession = errors.New("no session bound to request")

// Options configures the dashboard server
type Options struct {
	CookieName string
	SessionTTL time.Duration
	HistoryLen int
}

func NewDefaultOptions() *Options {
	return &Options{
		CookieName: DefaultCookieName,
		SessionTTL: DefaultSessionTTL,
		HistoryLen: forecaster.HistoryLen,
	}
}

type Server struct {
	opt    *Options
	store  *Store
	logger *slog.Logger
	router *gin.Engine
}

// New creates the dashboard over the session store. If no options are provided a default
// is used.
func New(store *Store, opt *Options, logger *slog.Logger) *Server {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opt:    opt,
		store:  store,
		logger: logger,
	}
	s.router = s.setupRoutes()
	return s
}

// Handler returns the http handler of the dashboard
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.logger))
	router.SetHTMLTemplate(template.Must(
		template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"),
	))

	router.GET("/health", s.health)

	sessions := router.Group("/", s.sessions())
	sessions.GET("/", s.index)
	sessions.POST("/", s.submit)
	sessions.GET("/charts/sample", s.chartSample)
	sessions.GET("/charts/backtest", s.chartBacktest)
	sessions.GET("/api/options", s.getOptions)
	sessions.PUT("/api/options", s.putOptions)
	sessions.GET("/api/folds", s.getFolds)
	sessions.GET("/api/backtest", s.getBacktest)
	return router
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			logger.Error("request failed", append(attrs, "error", c.Errors.String())...)
			return
		}
		logger.Info("request", attrs...)
	}
}

// sessions binds the session of the request cookie, starting a new one when the cookie is
// missing or expired. The cookie is reissued on every request so its lifetime follows the
// session's sliding TTL.
func (s *Server) sessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session
		var exists bool
		id, err := c.Cookie(s.opt.CookieName)
		if err == nil {
			sess, exists = s.store.get(id)
		}
		if !exists {
			var created *session
			id, created, err = s.store.create()
			if err != nil {
				_ = c.Error(err)
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			sess = created
			s.logger.Debug("started session", "session_id", id)
		}
		c.SetCookie(s.opt.CookieName, id, int(s.opt.SessionTTL/time.Second), "/", "", false, true)
		c.Set(sessionKey, sess)
		c.Next()
	}
}

// withSession runs fn holding the lock of the request session
func withSession(c *gin.Context, fn func(f Forecaster)) {
	val, exists := c.Get(sessionKey)
	sess, ok := val.(*session)
	if !exists || !ok {
		_ = c.Error(ErrNoSession)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	fn(sess.f)
}

// statusFor maps invalid parameters to 400 and insufficient data to 422
func statusFor(err error) int {
	switch {
	case errors.Is(err, forecaster.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, forecaster.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) health(c *gin.Context) {
	writeJSON(c, http.StatusOK, healthResponse{
		Status:   "healthy",
		Sessions: s.store.Len(),
	})
}

func (s *Server) index(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		data := newPage(f.Options())
		status := data.evaluate(f)
		if status == http.StatusInternalServerError {
			_ = c.Error(data.err)
			c.AbortWithStatus(status)
			return
		}
		c.HTML(status, "index.html", data)
	})
}

func (s *Server) submit(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		opt, err := parseForm(c, f.Options())
		if err == nil {
			err = f.SetOptions(opt)
		}
		if err != nil {
			if opt == nil {
				opt = f.Options()
			}
			data := newPage(opt)
			data.Error = err.Error()
			c.HTML(http.StatusBadRequest, "index.html", data)
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	})
}

func (s *Server) chartSample(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		s.renderChart(c, f.PlotSample)
	})
}

func (s *Server) chartBacktest(c *gin.Context) {
	withSession(c, func(f Forecaster) {
		s.renderChart(c, func(w io.Writer) error {
			return f.PlotBacktest(w, s.opt.HistoryLen)
		})
	})
}

// renderChart buffers the chart page so a failed plot still gets a clean status
func (s *Server) renderChart(c *gin.Context, plot func(w io.Writer) error) {
	var buf bytes.Buffer
	if err := plot(&buf); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			_ = c.Error(err)
			c.AbortWithStatus(status)
			return
		}
		c.String(status, err.Error())
		return
	}
	c.Data(http.StatusOK, htmlContentType, buf.Bytes())
}
