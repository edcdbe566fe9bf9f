package upload

import (
	"log/slog"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

// emitter serializes progress reporting for one transfer invocation. Part
// tasks run concurrently, so events are emitted under a mutex; after a
// terminal completed or failed event nothing further is delivered.
type emitter struct {
	fn     transfertypes.ProgressFunc
	logger *slog.Logger

	bucket     string
	key        string
	sourcePath string
	totalBytes int64
	totalParts int32

	mu   sync.Mutex
	done bool
}

func newEmitter(
	logger *slog.Logger,
	cfg *transfertypes.UploadConfig,
	bucket, key, sourcePath string,
	totalBytes int64,
	totalParts int32,
) *emitter {
	e := &emitter{
		logger:     logger,
		bucket:     bucket,
		key:        key,
		sourcePath: sourcePath,
		totalBytes: totalBytes,
		totalParts: totalParts,
	}
	if cfg != nil {
		e.fn = cfg.Progress
	}
	return e
}

// send emits one progress event. Terminal statuses latch the emitter shut so
// stragglers from an already-settled batch cannot report after the fact.
func (e *emitter) send(status transfertypes.Status, bytesDone int64, partsDone int32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.done {
		return
	}
	if status == transfertypes.StatusCompleted || status == transfertypes.StatusFailed {
		e.done = true
	}

	var percentage float64
	if e.totalBytes > 0 {
		percentage = float64(bytesDone) / float64(e.totalBytes) * 100
	} else if status == transfertypes.StatusCompleted {
		percentage = 100
	}

	e.logger.Debug("transfer progress",
		"bucket", e.bucket,
		"key", e.key,
		"status", string(status),
		"transferred", humanize.Bytes(uint64(bytesDone)),
		"total", humanize.Bytes(uint64(e.totalBytes)),
		"parts_completed", partsDone,
	)

	if e.fn == nil {
		return
	}
	e.fn(transfertypes.ProgressEvent{
		Bucket:           e.bucket,
		Key:              e.key,
		SourcePath:       e.sourcePath,
		BytesTransferred: bytesDone,
		TotalBytes:       e.totalBytes,
		Percentage:       percentage,
		PartsCompleted:   partsDone,
		TotalParts:       e.totalParts,
		Status:           status,
	})
}
