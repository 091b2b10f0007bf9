package account

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/httpx"
)

// Registrar ties accounts into the HTTP server
type Registrar struct {
	service *Service
	log     *slog.Logger
}

func NewRegistrar(appCtx *app.AppContext, service *Service) *Registrar {
	return &Registrar{service: service, log: appCtx.Logger}
}

func (r *Registrar) Register(api *gin.RouterGroup) {
	api.POST("/auth/register", r.register)
	api.POST("/auth/login", r.login)
	api.POST("/auth/logout", r.logout)
	api.GET("/me", r.me)
}

func (r *Registrar) register(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	user, err := r.service.Register(c.Request.Context(), in)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (r *Registrar) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	res, err := r.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (r *Registrar) logout(c *gin.Context) {
	if err := r.service.Logout(c.Request.Context(), auth.FromContext(c)); err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Registrar) me(c *gin.Context) {
	id := auth.FromContext(c)
	if id == nil {
		httpx.Error(c, r.log, svcErr.Unauthenticated("authentication required"))
		return
	}
	c.JSON(http.StatusOK, id)
}
