package dashboard

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/httpx"
)

// Registrar ties the dashboard into the HTTP server
type Registrar struct {
	service *Service
	log     *slog.Logger
}

func NewRegistrar(appCtx *app.AppContext, service *Service) *Registrar {
	return &Registrar{service: service, log: appCtx.Logger}
}

// Register attaches owner and back-office routes to the /api group
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.GET("/me/profile", r.myProfile)
	api.PATCH("/me/profile", r.updateMyProfile)

	admin := api.Group("/admin")
	admin.GET("/profiles", r.listProfiles)
	admin.GET("/profiles/:id", r.getProfile)
	admin.GET("/photos", r.listPhotos)
}

func (r *Registrar) myProfile(c *gin.Context) {
	p, err := r.service.MyProfile(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) updateMyProfile(c *gin.Context) {
	var in ProfileInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	p, err := r.service.UpdateMyProfile(c.Request.Context(), auth.FromContext(c), in)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// statusQuery reads ?status=, case-insensitive. Absent means all.
func statusQuery(c *gin.Context) *db.Status {
	v := strings.TrimSpace(c.Query("status"))
	if v == "" {
		return nil
	}
	s := db.Status(strings.ToUpper(v))
	return &s
}

func (r *Registrar) listProfiles(c *gin.Context) {
	profiles, err := r.service.ListProfiles(c.Request.Context(), auth.FromContext(c), statusQuery(c))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (r *Registrar) getProfile(c *gin.Context) {
	p, err := r.service.GetProfile(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) listPhotos(c *gin.Context) {
	photos, err := r.service.ListPhotos(c.Request.Context(), auth.FromContext(c), statusQuery(c))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}
