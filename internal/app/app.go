package app

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"cleancut/internal/config"
	"cleancut/internal/logger"
	"cleancut/internal/repository/sqlite"
	"cleancut/internal/routes"
	"cleancut/internal/services"
	"cleancut/internal/services/websocket"
)

type App struct {
	config  *config.Config
	logger  *logger.Logger
	db      *sqlite.DB
	hub     *websocket.HubService
	manager *services.Manager
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg.LogDirectory)

	if err := os.MkdirAll(cfg.DataDirectory, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	hub := websocket.NewHubService(log)
	manager := services.NewManager(cfg, sqlite.NewJobRepository(db), hub, log)

	return &App{
		config:  cfg,
		logger:  log,
		db:      db,
		hub:     hub,
		manager: manager,
	}, nil
}

func (a *App) Run() error {
	go a.hub.Run()

	router := routes.SetupRoutes(a.manager, a.config, a.logger)

	a.logger.Info("Cleancut server listening on http://localhost:%d", a.config.Port)
	a.logger.Info("Data directory: %s", a.config.DataDirectory)
	a.logger.Info("Database: %s", a.config.DatabasePath)

	return http.ListenAndServe(fmt.Sprintf(":%d", a.config.Port), router)
}

func (a *App) Close() error {
	return a.db.Close()
}
