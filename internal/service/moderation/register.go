package moderation

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/httpx"
)

// Registrar ties the moderation routes into the HTTP server
type Registrar struct {
	engine *Engine
	log    *slog.Logger
}

// NewRegistrar creates a new Registrar for the moderation engine
func NewRegistrar(appCtx *app.AppContext, engine *Engine) *Registrar {
	return &Registrar{engine: engine, log: appCtx.Logger}
}

// Register attaches the moderation routes to the /api group
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.POST("/approve/:id", r.approve)
	api.POST("/reject/:id", r.reject)
	api.PATCH("/models/:id/status", r.setProfileStatus)
	api.PATCH("/models/:id/featured", r.setFeatured)
	api.PATCH("/models/:id/photos/:photoId", r.setPhotoStatus)
	api.PATCH("/photos/:id/profile-photo", r.setProfilePhoto)
	api.POST("/slider", r.addToSlider)
	api.DELETE("/slider/:photoId", r.removeFromSlider)
	api.GET("/admin/slider", r.listSlider)
}

type decisionRequest struct {
	Type   Kind   `json:"type"`
	Reason string `json:"reason"`
}

func (r *Registrar) approve(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	out, err := r.engine.Approve(c.Request.Context(), auth.FromContext(c), c.Param("id"), req.Type)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (r *Registrar) reject(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	out, err := r.engine.Reject(c.Request.Context(), auth.FromContext(c), c.Param("id"), req.Type, req.Reason)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

type statusRequest struct {
	Status db.Status `json:"status"`
	Reason string    `json:"reason"`
}

func (r *Registrar) setProfileStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	p, err := r.engine.SetProfileStatus(c.Request.Context(), auth.FromContext(c), c.Param("id"), req.Status)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) setPhotoStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.BadRequest(c, "invalid request body")
		return
	}
	p, err := r.engine.SetPhotoStatus(c.Request.Context(), auth.FromContext(c), c.Param("id"), c.Param("photoId"), req.Status, req.Reason)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) setFeatured(c *gin.Context) {
	var req struct {
		Featured *bool `json:"featured"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Featured == nil {
		httpx.BadRequest(c, "featured must be a boolean")
		return
	}
	p, err := r.engine.SetFeatured(c.Request.Context(), auth.FromContext(c), c.Param("id"), *req.Featured)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) setProfilePhoto(c *gin.Context) {
	p, err := r.engine.SetProfilePhoto(c.Request.Context(), auth.FromContext(c), c.Param("id"))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) addToSlider(c *gin.Context) {
	var req struct {
		PhotoID string `json:"photoId"`
		Order   int    `json:"order"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.PhotoID == "" {
		httpx.BadRequest(c, "photoId is required")
		return
	}
	p, err := r.engine.AddToSlider(c.Request.Context(), auth.FromContext(c), req.PhotoID, req.Order)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) removeFromSlider(c *gin.Context) {
	p, err := r.engine.RemoveFromSlider(c.Request.Context(), auth.FromContext(c), c.Param("photoId"))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (r *Registrar) listSlider(c *gin.Context) {
	photos, err := r.engine.ListSlider(c.Request.Context(), auth.FromContext(c))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, photos)
}
