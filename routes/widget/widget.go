package widget

import (
	"path/filepath"

	"SupportChat/pkg/config"

	"github.com/gin-gonic/gin"
)

// Register serves the embeddable widget script.
func Register(r *gin.Engine) {
	r.Static("/widget", filepath.Join(config.StaticDir, "widget"))
}
