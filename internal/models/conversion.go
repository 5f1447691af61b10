package models

import (
	"time"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether a status permits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type Category string

const (
	CategoryImage    Category = "image"
	CategoryAudio    Category = "audio"
	CategoryVideo    Category = "video"
	CategoryDocument Category = "document"
	CategoryData     Category = "data"
)

// Job is the tracked unit of asynchronous conversion work. ResultFiles is
// populated only on completion, Error only on failure; the JobManager
// enforces both.
type Job struct {
	ID             string     `json:"id"`
	ConversionType string     `json:"conversionType"`
	Status         JobStatus  `json:"status"`
	Progress       int        `json:"progress"`
	Message        string     `json:"message,omitempty"`
	ResultFiles    []string   `json:"resultFiles,omitempty"`
	Error          string     `json:"error,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`

	// Paths are internal bookkeeping for the TTL sweep, never exposed.
	ResultPaths []string `json:"-"`
	InputFileID string   `json:"-"`
}

// FileInfo is the ephemeral upload acknowledgment. It exists between upload
// and job creation and is never persisted.
type FileInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// AdvancedOptions is the optional bag of category-specific parameters.
// Pointer fields distinguish "absent" from zero values.
type AdvancedOptions struct {
	// image
	Width   *int `json:"width,omitempty"`
	Height  *int `json:"height,omitempty"`
	Quality *int `json:"quality,omitempty"`

	// audio: trim window in seconds; nil TrimEnd means "to natural end"
	TrimStart *float64 `json:"trimStart,omitempty"`
	TrimEnd   *float64 `json:"trimEnd,omitempty"`

	// video: downscale target, e.g. "1280x720"
	Resolution string `json:"resolution,omitempty"`

	// data
	SheetName string `json:"sheetName,omitempty"`
}

type ConvertRequest struct {
	FileID         string           `json:"fileId" binding:"required"`
	ConversionType string           `json:"conversionType" binding:"required"`
	Options        *AdvancedOptions `json:"options,omitempty"`
}

type ConvertResponse struct {
	JobID string `json:"jobId"`
}

type UploadResponse struct {
	Files []FileInfo `json:"files"`
}

type ProgressUpdate struct {
	JobID    string `json:"jobId"`
	Progress int    `json:"progress"`
}
