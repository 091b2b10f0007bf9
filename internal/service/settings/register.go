package settings

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/httpx"
)

// Registrar ties settings editing into the HTTP server. The public read is
// served by the catalog.
type Registrar struct {
	service *Service
	log     *slog.Logger
}

func NewRegistrar(appCtx *app.AppContext, service *Service) *Registrar {
	return &Registrar{service: service, log: appCtx.Logger}
}

func (r *Registrar) Register(api *gin.RouterGroup) {
	api.PUT("/settings", r.update)
}

func (r *Registrar) update(c *gin.Context) {
	var patch Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	st, err := r.service.Update(c.Request.Context(), auth.FromContext(c), patch)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, st)
}
