package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/httpx"
	"github.com/oggyb/model-agency/internal/service/moderation"
)

const viewTimeout = 5 * time.Second

// Registrar ties the public read views into the HTTP server
type Registrar struct {
	service *Service
	engine  *moderation.Engine
	log     *slog.Logger
}

// NewRegistrar creates a new Registrar for the public catalog. engine
// records profile views.
func NewRegistrar(appCtx *app.AppContext, service *Service, engine *moderation.Engine) *Registrar {
	return &Registrar{service: service, engine: engine, log: appCtx.Logger}
}

// Register attaches the public routes to the /api group
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.GET("/models", r.listModels)
	api.GET("/models/:id", r.getModel)
	api.GET("/slider", r.listSlider)
	api.GET("/settings", r.getSettings)
}

func (r *Registrar) listModels(c *gin.Context) {
	f := ModelFilter{
		Query:  c.Query("q"),
		Cursor: c.Query("cursor"),
	}
	if v := c.Query("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			httpx.BadRequest(c, "featured must be true or false")
			return
		}
		f.Featured = &featured
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			httpx.BadRequest(c, "limit must be a number")
			return
		}
		f.Limit = limit
	}

	page, err := r.service.ListModels(c.Request.Context(), f)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// getModel answers first and counts the view in the background.
func (r *Registrar) getModel(c *gin.Context) {
	p, err := r.service.GetModel(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)

	go func(profileID string) {
		ctx, cancel := context.WithTimeout(context.Background(), viewTimeout)
		defer cancel()
		if err := r.engine.RecordView(ctx, profileID); err != nil {
			r.log.Warn("record view failed", "profile_id", profileID, "err", err)
		}
	}(p.ID)
}

func (r *Registrar) listSlider(c *gin.Context) {
	photos, err := r.service.ListSlider(c.Request.Context())
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}

func (r *Registrar) getSettings(c *gin.Context) {
	st, err := r.service.GetSettings(c.Request.Context())
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
