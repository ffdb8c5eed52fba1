// Package handlers is the JSON HTTP surface of the service.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"storefront/internal/accounts"
	"storefront/internal/catalog"
	"storefront/internal/media"
	"storefront/internal/metrics"
)

const sessionName = "storefront_session"

// Deps are the collaborators of the router.
type Deps struct {
	Catalog    *catalog.Service
	Categories *catalog.CategoryCache
	Accounts   *accounts.Service
	Media      media.Store
	Metrics    *metrics.Metrics
	Log        zerolog.Logger

	SessionSecret string
	SessionMaxAge time.Duration
	SecureCookies bool
	// MediaRoot is served under MediaURL when both are set.
	MediaRoot      string
	MediaURL       string
	MaxUploadBytes int64
	// Health reports the storage state for /health.
	Health func(ctx context.Context) error
}

type server struct {
	Deps
}

func NewRouter(d Deps) *gin.Engine {
	if d.SessionSecret == "" {
		d.SessionSecret = "dev_fallback_secret"
		d.Log.Warn().Msg("SESSION_SECRET is empty, using the development secret")
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 8 << 20
	}
	s := &server{Deps: d}

	r := gin.New()
	r.MaxMultipartMemory = d.MaxUploadBytes
	r.Use(requestID(), requestLogger(d.Log), recovery(d.Log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}
	if d.MediaRoot != "" && d.MediaURL != "" {
		r.Static(d.MediaURL, d.MediaRoot)
	}

	store := cookie.NewStore([]byte(d.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(d.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store), s.loadUser())

	r.GET("/health", s.health)

	users := r.Group("/users")
	users.POST("/register", s.register)
	users.GET("/verify/:token", s.verify)
	users.POST("/login", s.login)
	users.POST("/logout", s.logout)
	users.GET("/me", mustLogin(), s.me)
	users.PATCH("/me", mustLogin(), s.updateProfile)

	products := r.Group("/products", mustLogin())
	products.GET("", s.listProducts)
	products.GET("/mine", s.listMyProducts)
	products.POST("", s.createProduct)
	products.GET("/:id", s.viewProduct)
	products.GET("/:id/edit", s.editForm)
	products.PUT("/:id", s.updateProduct)
	products.POST("/:id/image", s.uploadProductImage)
	products.POST("/:id/toggle", s.toggleProduct)
	products.DELETE("/:id", s.deleteProduct)

	categories := r.Group("/categories", mustLogin())
	categories.GET("", s.listCategories)
	categories.POST("", mustStaff(), s.createCategory)
	categories.DELETE("/:id", mustStaff(), s.deleteCategory)

	r.POST("/contacts", mustLogin(), s.contact)
	return r
}

func (s *server) health(c *gin.Context) {
	if s.Health != nil {
		if err := s.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "db": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
