package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"cleancut/internal/config"
	"cleancut/internal/logger"
	"cleancut/internal/model"
	"cleancut/internal/services"
	"cleancut/internal/timeline"
)

const maxUploadSize = 4 << 30 // 4 GB

// jobRangesResponse bundles a job's stored ranges.
type jobRangesResponse struct {
	JobID      int64                     `json:"jobId"`
	Detections []timeline.DetectionRange `json:"detections"`
	Keeps      []timeline.KeepRange      `json:"keeps"`
}

// CreateJobHandler accepts a multipart upload with a "video" file and a
// "reference" screenshot, stores both, inserts a pending job and queues it.
func CreateJobHandler(manager *services.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			logger.Warning("Invalid job upload: %v", err)
			http.Error(w, "Invalid multipart form", http.StatusBadRequest)
			return
		}

		uploadDir := filepath.Join(cfg.DataDirectory, "uploads")
		if err := os.MkdirAll(uploadDir, 0755); err != nil {
			logger.Error("Failed to create upload directory: %v", err)
			http.Error(w, "Storage error", http.StatusInternalServerError)
			return
		}

		prefix := time.Now().Format("20060102_150405")
		videoPath, err := saveUpload(r, "video", uploadDir, prefix)
		if err != nil {
			logger.Warning("Video upload failed: %v", err)
			http.Error(w, "Missing or invalid video file", http.StatusBadRequest)
			return
		}
		refPath, err := saveUpload(r, "reference", uploadDir, prefix)
		if err != nil {
			logger.Warning("Reference upload failed: %v", err)
			http.Error(w, "Missing or invalid reference image", http.StatusBadRequest)
			return
		}

		jobID, err := manager.GetJobRepository().Insert(&model.Job{
			SourcePath:    videoPath,
			ReferencePath: refPath,
		})
		if err != nil {
			logger.Error("Failed to insert job: %v", err)
			http.Error(w, "Storage error", http.StatusInternalServerError)
			return
		}

		if err := manager.Submit(jobID); err != nil {
			logger.Error("Failed to queue job %d: %v", jobID, err)
			manager.GetJobRepository().UpdateStatus(jobID, model.StatusFailed, err.Error())
			http.Error(w, "Processing queue is full", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]interface{}{"jobId": jobID})
	}
}

// saveUpload stores one multipart file field under dir and returns its path.
func saveUpload(r *http.Request, field, dir, prefix string) (string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", err
	}
	defer file.Close()

	name := fmt.Sprintf("%s_%s_%s", prefix, field, filepath.Base(header.Filename))
	path := filepath.Join(dir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// GetJobHandler returns one job by id.
func GetJobHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := lookupJob(w, r, manager, logger)
		if !ok {
			return
		}
		writeJSON(w, job)
	}
}

// ListJobsHandler returns all jobs, newest first.
func ListJobsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := manager.GetJobRepository().List()
		if err != nil {
			logger.Error("Failed to list jobs: %v", err)
			http.Error(w, "Storage error", http.StatusInternalServerError)
			return
		}
		if jobs == nil {
			jobs = []model.Job{}
		}
		writeJSON(w, jobs)
	}
}

// CancelJobHandler requests cooperative cancellation of a running job.
func CancelJobHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		job, ok := lookupJob(w, r, manager, logger)
		if !ok {
			return
		}

		if !manager.Cancel(job.ID) {
			http.Error(w, "Job is not running", http.StatusConflict)
			return
		}
		logger.Info("Cancellation requested for job %d", job.ID)
		w.WriteHeader(http.StatusAccepted)
	}
}

// GetJobRangesHandler returns the stored detection and keep ranges of a job.
func GetJobRangesHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := lookupJob(w, r, manager, logger)
		if !ok {
			return
		}

		detections, err := manager.GetJobRepository().GetDetectionRanges(job.ID)
		if err != nil {
			logger.Error("Failed to load detection ranges: %v", err)
			http.Error(w, "Storage error", http.StatusInternalServerError)
			return
		}
		keeps, err := manager.GetJobRepository().GetKeepRanges(job.ID)
		if err != nil {
			logger.Error("Failed to load keep ranges: %v", err)
			http.Error(w, "Storage error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, jobRangesResponse{JobID: job.ID, Detections: detections, Keeps: keeps})
	}
}

// DownloadOutputHandler serves the trimmed output file of a completed job.
func DownloadOutputHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, ok := lookupJob(w, r, manager, logger)
		if !ok {
			return
		}

		if job.Status != model.StatusCompleted || job.OutputPath == "" {
			http.Error(w, "Output not available", http.StatusConflict)
			return
		}
		if _, err := os.Stat(job.OutputPath); os.IsNotExist(err) {
			http.Error(w, "Output file missing", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", filepath.Base(job.OutputPath)))
		http.ServeFile(w, r, job.OutputPath)
	}
}

// lookupJob parses the id query parameter and loads the job, writing the
// HTTP error itself when either step fails.
func lookupJob(w http.ResponseWriter, r *http.Request, manager *services.Manager, logger *logger.Logger) (*model.Job, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid job id", http.StatusBadRequest)
		return nil, false
	}

	job, err := manager.GetJobRepository().GetByID(id)
	if err != nil {
		logger.Error("Failed to load job %d: %v", id, err)
		http.Error(w, "Storage error", http.StatusInternalServerError)
		return nil, false
	}
	if job == nil {
		http.Error(w, "Job not found", http.StatusNotFound)
		return nil, false
	}
	return job, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
