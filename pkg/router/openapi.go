package router

import (
	"path/filepath"

	"casino-simulator/backend/pkg/validator"
)

// AddOpenAPIValidation validates requests against the document at
// schemaPath and serves it under /api/docs. It must run before
// SetupRoutes. A missing or invalid document is logged and skipped.
func (r *Router) AddOpenAPIValidation(schemaPath string) {
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		r.Logger.Warn("OpenAPI validation disabled", "path", schemaPath, "error", err.Error())
		return
	}

	r.Engine.Use(v.Middleware())
	r.Engine.StaticFile("/api/docs/"+filepath.Base(schemaPath), schemaPath)

	r.Logger.Info("OpenAPI validation enabled",
		"schema", schemaPath,
		"url", "/api/docs/"+filepath.Base(schemaPath),
	)
}
