package routes

import (
	"net/http"

	"cleancut/internal/config"
	"cleancut/internal/handlers"
	"cleancut/internal/logger"
	"cleancut/internal/middleware"
	"cleancut/internal/services"
)

// SetupRoutes registers the API endpoints and wraps the mux with the
// authentication middleware.
func SetupRoutes(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Job endpoints
	mux.HandleFunc("/api/jobs/create", handlers.CreateJobHandler(manager, cfg, logger))
	mux.HandleFunc("/api/jobs/get", handlers.GetJobHandler(manager, logger))
	mux.HandleFunc("/api/jobs/list", handlers.ListJobsHandler(manager, logger))
	mux.HandleFunc("/api/jobs/cancel", handlers.CancelJobHandler(manager, logger))
	mux.HandleFunc("/api/jobs/ranges", handlers.GetJobRangesHandler(manager, logger))
	mux.HandleFunc("/api/jobs/download", handlers.DownloadOutputHandler(manager, logger))

	// Progress stream
	mux.HandleFunc("/api/progress", handlers.ProgressWebsocketHandler(manager, logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowInfoLogsHandler(cfg))
	mux.HandleFunc("/logs/warning", handlers.ShowWarningLogsHandler(cfg))
	mux.HandleFunc("/logs/error", handlers.ShowErrorLogsHandler(cfg))

	mux.HandleFunc("/logs/info/clear", handlers.ClearInfoLogsHandler(logger))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearWarningLogsHandler(logger))
	mux.HandleFunc("/logs/error/clear", handlers.ClearErrorLogsHandler(logger))

	// Auth endpoints
	mux.HandleFunc("/auth/login", handlers.LoginHandler(cfg, logger))
	mux.HandleFunc("/auth/logout", handlers.LogoutHandler)

	return middleware.AuthMiddleware(mux)
}
