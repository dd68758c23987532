//go:build !embed
// +build !embed

package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupStaticFiles serves static assets from disk so edits show up without a rebuild
func setupStaticFiles(router *gin.Engine, log *zap.Logger) {
	log.Info("Using local filesystem for static assets (development mode)",
		zap.String("dir", "./internal/web/static"))
	router.Static("/static", "./internal/web/static")
}
