//go:build embed
// +build embed

package main

import (
	"net/http"

	"houseprice/internal/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupStaticFiles serves the stylesheet compiled into the binary
func setupStaticFiles(router *gin.Engine, log *zap.Logger) {
	log.Info("Using embedded static assets")
	router.StaticFS("/static", http.FS(web.Static()))
}
