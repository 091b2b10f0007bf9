package server

import "github.com/gin-gonic/gin"

// Registrar is a common interface for all HTTP service registrars.
// Routes are attached under the /api group.
type Registrar interface {
	Register(api *gin.RouterGroup)
}
