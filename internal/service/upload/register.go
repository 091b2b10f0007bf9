package upload

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/httpx"
)

// multipart overhead allowed on top of MaxSize before the body is cut off
const formSlack = 1 << 20

// Registrar ties the upload pipeline into the HTTP server
type Registrar struct {
	pipeline *Pipeline
	log      *slog.Logger
}

// NewRegistrar creates a new Registrar for the upload pipeline
func NewRegistrar(appCtx *app.AppContext, pipeline *Pipeline) *Registrar {
	return &Registrar{pipeline: pipeline, log: appCtx.Logger}
}

// Register attaches upload and delete routes to the /api group
func (r *Registrar) Register(api *gin.RouterGroup) {
	api.POST("/photos/upload", r.upload)
	api.POST("/models/:id/photos", r.upload)
	api.DELETE("/photos/:id", r.deletePhoto)
	api.DELETE("/models/:id/photos/:photoId", r.deleteProfilePhoto)
}

// upload reads a multipart form with a "file" part and optional profileId,
// title, category and isProfilePhoto fields. The profile in the path, when
// present, wins over the form field.
func (r *Registrar) upload(c *gin.Context) {
	caller := auth.FromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxSize+formSlack)

	fh, err := c.FormFile("file")
	if err != nil {
		httpx.BadRequest(c, "file missing or request too large")
		return
	}
	f, err := fh.Open()
	if err != nil {
		httpx.BadRequest(c, "file unreadable")
		return
	}
	defer f.Close()

	profileID := c.Param("id")
	if profileID == "" {
		profileID = c.PostForm("profileId")
	}
	in := Input{
		ProfileID:      profileID,
		OriginalName:   fh.Filename,
		MimeType:       fh.Header.Get("Content-Type"),
		Size:           fh.Size,
		Body:           f,
		Title:          optional(c.PostForm("title")),
		Category:       optional(c.PostForm("category")),
		IsProfilePhoto: parseBool(c.PostForm("isProfilePhoto")),
	}

	photo, err := r.pipeline.Upload(c.Request.Context(), caller, in)
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

func (r *Registrar) deletePhoto(c *gin.Context) {
	if err := r.pipeline.Delete(c.Request.Context(), auth.FromContext(c), c.Param("id")); err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (r *Registrar) deleteProfilePhoto(c *gin.Context) {
	err := r.pipeline.DeleteFromProfile(c.Request.Context(), auth.FromContext(c), c.Param("id"), c.Param("photoId"))
	if err != nil {
		httpx.Error(c, r.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}
