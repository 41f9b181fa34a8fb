package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cleancut/internal/config"
	"cleancut/internal/logger"
	"cleancut/internal/model"
	"cleancut/internal/repository/sqlite"
	"cleancut/internal/session"
	"cleancut/internal/services/websocket"
	"cleancut/internal/video"
	"cleancut/internal/vision"
)

// Manager owns the processing worker pool: it takes submitted jobs off a
// queue, runs the calibrate-scan-segment pipeline on each, persists the
// resulting ranges and invokes the transcoder.
type Manager struct {
	cfg        *config.Config
	jobs       *sqlite.JobRepository
	hub        *websocket.HubService
	transcoder *video.Transcoder
	prober     *video.Prober
	logger     *logger.Logger

	queue    chan int64
	cancels  map[int64]context.CancelFunc
	cancelMu sync.Mutex
	wg       sync.WaitGroup
}

// progressMessage is the JSON payload broadcast to viewers.
type progressMessage struct {
	JobID         int64   `json:"jobId"`
	Status        string  `json:"status"`
	FramesScanned int     `json:"framesScanned,omitempty"`
	Timestamp     float64 `json:"timestamp,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	Percent       float64 `json:"percent,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func NewManager(cfg *config.Config, jobs *sqlite.JobRepository, hub *websocket.HubService, logger *logger.Logger) *Manager {
	manager := &Manager{
		cfg:        cfg,
		jobs:       jobs,
		hub:        hub,
		transcoder: video.NewTranscoder(cfg.FFmpegPath, logger),
		prober:     video.NewProber(cfg.FFprobePath),
		logger:     logger,
		queue:      make(chan int64, 100),
		cancels:    make(map[int64]context.CancelFunc),
	}

	for i := 0; i < cfg.ProcessingWorkers; i++ {
		manager.wg.Add(1)
		go manager.processingWorker(i)
	}

	manager.logger.Info("Manager started with %d processing worker(s)", cfg.ProcessingWorkers)
	return manager
}

// Submit queues a pending job for processing.
func (m *Manager) Submit(jobID int64) error {
	select {
	case m.queue <- jobID:
		m.logger.Info("Job %d queued for processing", jobID)
		return nil
	default:
		return fmt.Errorf("processing queue is full")
	}
}

// Cancel requests cooperative cancellation of a running job. It reports
// whether the job was running.
func (m *Manager) Cancel(jobID int64) bool {
	m.cancelMu.Lock()
	defer m.cancelMu.Unlock()

	cancel, ok := m.cancels[jobID]
	if ok {
		cancel()
	}
	return ok
}

// VisionOptions maps the configured detection policy onto the vision package.
func VisionOptions(cfg *config.Config) vision.Options {
	bg := cfg.MenuBackgroundColor
	accent := cfg.MenuAccentColor
	return vision.Options{
		Background:     vision.RangeFromColor(bg.R, bg.G, bg.B, cfg.BackgroundTolH, cfg.BackgroundTolS, cfg.BackgroundTolV),
		Accent:         vision.RangeFromColor(accent.R, accent.G, accent.B, cfg.AccentTolH, cfg.AccentTolS, cfg.AccentTolV),
		Text:           vision.TextRange(cfg.TextSatMax, cfg.TextValMin),
		MinAreaRatio:   cfg.MinAreaRatio,
		IoUThreshold:   cfg.IoUThreshold,
		AccentMinRatio: cfg.AccentMinRatio,
		TextMinRatio:   cfg.TextMinRatio,
	}
}

// processingWorker drains the job queue.
func (m *Manager) processingWorker(workerID int) {
	defer m.wg.Done()

	m.logger.Info("Processing worker %d started", workerID)

	for jobID := range m.queue {
		m.processJob(jobID)
	}

	m.logger.Info("Processing worker %d stopped", workerID)
}

// processJob runs the whole pipeline for one job and records its terminal
// status.
func (m *Manager) processJob(jobID int64) {
	job, err := m.jobs.GetByID(jobID)
	if err != nil || job == nil {
		m.logger.Error("Job %d not found: %v", jobID, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelMu.Lock()
	m.cancels[jobID] = cancel
	m.cancelMu.Unlock()
	defer func() {
		cancel()
		m.cancelMu.Lock()
		delete(m.cancels, jobID)
		m.cancelMu.Unlock()
	}()

	if err := m.jobs.UpdateStatus(jobID, model.StatusRunning, ""); err != nil {
		m.logger.Error("Job %d: failed to mark running: %v", jobID, err)
		return
	}
	m.broadcastStatus(jobID, model.StatusRunning, "")

	if err := m.runPipeline(ctx, job); err != nil {
		if errors.Is(err, session.ErrSessionAborted) || errors.Is(err, context.Canceled) {
			m.logger.Warning("Job %d aborted", jobID)
			m.jobs.UpdateStatus(jobID, model.StatusAborted, "")
			m.broadcastStatus(jobID, model.StatusAborted, "")
			return
		}
		m.logger.Error("Job %d failed: %v", jobID, err)
		m.jobs.UpdateStatus(jobID, model.StatusFailed, err.Error())
		m.broadcastStatus(jobID, model.StatusFailed, err.Error())
		return
	}

	m.jobs.UpdateStatus(jobID, model.StatusCompleted, "")
	m.broadcastStatus(jobID, model.StatusCompleted, "")
	m.logger.Info("Job %d completed", jobID)
}

// runPipeline is calibrate -> scan -> segment -> persist -> transcode.
func (m *Manager) runPipeline(ctx context.Context, job *model.Job) error {
	opts := VisionOptions(m.cfg)

	refData, err := os.ReadFile(job.ReferencePath)
	if err != nil {
		return fmt.Errorf("failed to read reference image: %w", err)
	}

	// Calibration failures halt the pipeline before any scanning resources
	// are allocated.
	profile, err := vision.CalibrateImage(refData, opts)
	if err != nil {
		return err
	}

	source, err := video.OpenSource(job.SourcePath, m.cfg.SampleFPS)
	if err != nil {
		return err
	}
	defer source.Close()

	// The container metadata is more trustworthy than decoder frame counts.
	if duration, err := m.prober.Duration(ctx, job.SourcePath); err == nil {
		source.SetDuration(duration)
	} else {
		m.logger.Warning("Job %d: ffprobe duration unavailable, using decoder estimate: %v", job.ID, err)
	}

	scanner := vision.NewScanner(profile, opts, m.logger)
	sess := session.New(scanner, session.Options{
		ClusterTolerance: m.cfg.ClusterTolerance,
		MinSegment:       m.cfg.MinSegment,
		ProgressInterval: m.cfg.ProgressInterval,
		Progress: func(scanned int, timestamp, duration float64) {
			m.broadcastProgress(job.ID, scanned, timestamp, duration)
		},
	}, m.logger)

	result, err := sess.Run(ctx, source)
	if err != nil {
		return err
	}

	if err := m.jobs.SaveRanges(job.ID, result.Detections, result.Keeps); err != nil {
		return err
	}

	outputPath := filepath.Join(m.cfg.DataDirectory, "outputs", fmt.Sprintf("job_%d_clean.mp4", job.ID))
	if len(result.Keeps) == 0 {
		// The overlay covers the entire timeline; nothing to export.
		m.logger.Warning("Job %d: no clean footage to export", job.ID)
		return m.jobs.SetResult(job.ID, "", result.Duration, result.FramesScanned)
	}

	if err := m.transcoder.Export(ctx, job.SourcePath, result.Keeps, outputPath); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	return m.jobs.SetResult(job.ID, outputPath, result.Duration, result.FramesScanned)
}

func (m *Manager) broadcastProgress(jobID int64, scanned int, timestamp, duration float64) {
	percent := 0.0
	if duration > 0 {
		percent = timestamp / duration * 100
	}
	msg, err := json.Marshal(progressMessage{
		JobID:         jobID,
		Status:        string(model.StatusRunning),
		FramesScanned: scanned,
		Timestamp:     timestamp,
		Duration:      duration,
		Percent:       percent,
	})
	if err != nil {
		return
	}
	m.hub.TryBroadcast(msg)
}

func (m *Manager) broadcastStatus(jobID int64, status model.JobStatus, errMsg string) {
	msg, err := json.Marshal(progressMessage{
		JobID:  jobID,
		Status: string(status),
		Error:  errMsg,
	})
	if err != nil {
		return
	}
	m.hub.TryBroadcast(msg)
}

// GetHubService exposes the websocket hub to the HTTP layer.
func (m *Manager) GetHubService() *websocket.HubService {
	return m.hub
}

// GetJobRepository exposes the job store to the HTTP layer.
func (m *Manager) GetJobRepository() *sqlite.JobRepository {
	return m.jobs
}
