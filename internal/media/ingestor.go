package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"sync"
	"time"
)

// Storage persists media content under a key and returns its public location.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
}

// AssetUpdater records the outcome of a video ingestion.
type AssetUpdater interface {
	MarkAssetReady(ctx context.Context, videoID, location string, duration float64) error
	MarkAssetFailed(ctx context.Context, videoID string) error
}

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
}

// UploadJob describes one staged video file awaiting upload. StagedPath is a
// temp file owned by the ingestor once the job is enqueued.
type UploadJob struct {
	VideoID     string
	StagedPath  string
	FileName    string
	ContentType string
	Duration    float64
}

var (
	errIngestorClosed = errors.New("media ingestor closed")
	errQueueFull      = errors.New("ingest queue full")
)

// Ingestor moves staged video uploads into the media store in the background
// so large files do not hold the publishing request open. Each video row
// starts out pending and is flipped to ready or failed here.
type Ingestor struct {
	storage Storage
	updater AssetUpdater
	logger  *slog.Logger

	jobs chan UploadJob
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewIngestor constructs the background worker pool.
func NewIngestor(storage Storage, updater AssetUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ing := &Ingestor{
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan UploadJob, cfg.QueueSize),
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules the staged upload for background persistence. It never
// blocks: a full queue is reported immediately so the caller can push back
// on the upload.
func (i *Ingestor) Enqueue(ctx context.Context, job UploadJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The send happens under the same lock that flips closed, so Shutdown
	// can never close the channel between the check and the send.
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errIngestorClosed
	}

	select {
	case i.jobs <- job:
		return nil
	default:
		return errQueueFull
	}
}

// Shutdown stops accepting new jobs and waits for the worker pool to drain
// everything already queued.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.mu.Lock()
	if !i.closed {
		i.closed = true
		close(i.jobs)
	}
	i.mu.Unlock()

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *Ingestor) worker() {
	defer i.wg.Done()

	for job := range i.jobs {
		i.handleJob(job)
	}
}

func (i *Ingestor) handleJob(job UploadJob) {
	defer os.Remove(job.StagedPath)

	if i.storage == nil || i.updater == nil {
		i.logger.Error("media ingestor missing dependencies", "hasStorage", i.storage != nil, "hasUpdater", i.updater != nil)
		return
	}

	file, err := os.Open(job.StagedPath)
	if err != nil {
		i.logger.Error("open staged upload", "videoId", job.VideoID, "error", err)
		i.recordFailure(job.VideoID)
		return
	}
	defer file.Close()

	uploadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	key := path.Join("videos", job.VideoID+path.Ext(job.FileName))
	location, err := i.storage.Save(uploadCtx, key, file, job.ContentType)
	if err != nil {
		i.logger.Error("video upload failed", "videoId", job.VideoID, "error", err)
		i.recordFailure(job.VideoID)
		return
	}

	if err := i.recordSuccess(job.VideoID, location, job.Duration); err != nil {
		i.logger.Error("mark asset ready", "videoId", job.VideoID, "error", err)
		i.recordFailure(job.VideoID)
	}
}

func (i *Ingestor) recordFailure(videoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := i.updater.MarkAssetFailed(ctx, videoID); err != nil {
		i.logger.Error("record asset failure", "videoId", videoID, "error", err)
	}
}

func (i *Ingestor) recordSuccess(videoID, location string, duration float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return i.updater.MarkAssetReady(ctx, videoID, location, duration)
}
