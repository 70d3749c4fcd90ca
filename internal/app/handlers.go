package app

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scrapconnect/sync-client/internal/model"
)

func (a *App) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/healthz", a.handleHealthz)
	r.GET("/readyz", a.handleReadyz)

	api := r.Group("/api")
	{
		api.POST("/users", a.handleCreateUser)
		api.GET("/session", a.handleSession)
		api.POST("/location", a.handleSetLocation)
		api.POST("/logout", a.handleLogout)

		api.POST("/listings", a.handleCreateListing)
		api.GET("/listings", a.handleListings)
		api.POST("/listings/:id/complete", a.requireRole(model.RoleDealer), a.handleCompleteListing)

		api.GET("/marketplace", a.handleMarketplace)
		api.GET("/history", a.handleHistory)
		api.GET("/dashboard", a.handleDashboard)
		api.GET("/profile/stats", a.handleProfileStats)
		api.GET("/price", a.handlePrice)

		api.GET("/notices", a.handleNotices)
		api.GET("/loading", a.handleLoading)
	}

	return r
}

func (a *App) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		a.logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// requireRole rejects requests unless the session user has role.
func (a *App) requireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := a.svc.Session().CurrentUser()
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please log in first"})
			return
		}
		if u.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only " + string(role) + " accounts can do this"})
			return
		}
		c.Next()
	}
}

func (a *App) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (a *App) handleReadyz(c *gin.Context) {
	if a.svc == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "starting"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "ready",
		"cache_backend": a.cfg.CacheBackend,
		"notices_mqtt":  a.mqtt != nil,
	})
}

func (a *App) handleCreateUser(c *gin.Context) {
	var in model.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	in.Role = model.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	if err := in.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := a.svc.CreateUser(c.Request.Context(), in)
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

func (a *App) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Session().Snapshot())
}

func (a *App) handleSetLocation(c *gin.Context) {
	var p model.GeoPoint
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "location out of range"})
		return
	}

	a.svc.SetLocation(c.Request.Context(), p)
	c.Status(http.StatusNoContent)
}

func (a *App) handleLogout(c *gin.Context) {
	a.svc.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (a *App) handleCreateListing(c *gin.Context) {
	var in model.ListingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if err := in.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing := a.svc.CreateListing(c.Request.Context(), in)
	c.JSON(http.StatusCreated, gin.H{"listing": listing, "local": model.IsLocalID(listing.ID)})
}

func (a *App) handleListings(c *gin.Context) {
	var f model.Filters
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filters"})
		return
	}
	c.JSON(http.StatusOK, a.svc.GetListings(c.Request.Context(), f))
}

func (a *App) handleCompleteListing(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	listing, ok := a.svc.CompleteListing(c.Request.Context(), id)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "this listing can only be completed while online"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

func (a *App) handleMarketplace(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.Marketplace(c.Request.Context()))
}

func (a *App) handleHistory(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.History(c.Request.Context()))
}

func (a *App) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.DealerDashboard(c.Request.Context()))
}

func (a *App) handleProfileStats(c *gin.Context) {
	c.JSON(http.StatusOK, a.svc.ProfileStats())
}

func (a *App) handlePrice(c *gin.Context) {
	category := model.Category(strings.TrimSpace(c.Query("category")))
	if category == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrMissingCategory.Error()})
		return
	}
	quantity, err := strconv.ParseFloat(c.Query("quantity"), 64)
	if err != nil || !model.ValidQuantity(quantity) {
		c.JSON(http.StatusBadRequest, gin.H{"error": model.ErrInvalidQuantity.Error()})
		return
	}

	r := a.svc.EstimatePrice(category, quantity)
	c.JSON(http.StatusOK, gin.H{
		"category":       category,
		"quantity":       quantity,
		"min":            r.Min,
		"max":            r.Max,
		"estimatedPrice": r.String(),
	})
}

func (a *App) handleNotices(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= noticeHistory {
			limit = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{"notices": a.notices.Recent(limit)})
}

func (a *App) handleLoading(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"loading": a.indicator.Loading()})
}
