// Package upload implements the upload orchestration engine: size-based
// routing between single-request and chunked transfers, bounded concurrent
// part fan-out, per-part retry, and cooperative pause/resume/abort.
package upload

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/gateway"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/partplan"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/pool"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/registry"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

// Config holds the tuning knobs for an Orchestrator.
type Config struct {
	Gateway *gateway.Gateway
	FS      fs.Filesystem
	Logger  *slog.Logger

	// MultipartThreshold routes sources at or above this size to the chunked
	// path.
	MultipartThreshold int64

	// PartSize is the fixed chunk size for chunked transfers.
	PartSize int64

	// MaxConcurrentParts bounds the part fan-out per transfer.
	MaxConcurrentParts int

	// MaxPartRetries is the number of extra attempts per part beyond the
	// first.
	MaxPartRetries int

	// RetryBaseDelay is the initial backoff delay between part attempts; it
	// doubles on each subsequent attempt.
	RetryBaseDelay time.Duration
}

// Orchestrator drives uploads end to end. It owns the transfer registry, so
// pause, resume, abort, and snapshot all route through it.
type Orchestrator struct {
	gw      *gateway.Gateway
	fs      fs.Filesystem
	reg     *registry.Registry
	buffers *pool.BufferPool
	logger  *slog.Logger

	threshold   int64
	partSize    int64
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
}

// New creates an Orchestrator from the given configuration. All fields are
// assumed validated by the caller.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		gw:          cfg.Gateway,
		fs:          cfg.FS,
		reg:         registry.New(),
		buffers:     pool.New(cfg.PartSize),
		logger:      cfg.Logger,
		threshold:   cfg.MultipartThreshold,
		partSize:    cfg.PartSize,
		concurrency: cfg.MaxConcurrentParts,
		maxRetries:  cfg.MaxPartRetries,
		retryDelay:  cfg.RetryBaseDelay,
	}
}

// Upload transfers the file at sourcePath to bucket/key. Sources below the
// multipart threshold go up in a single request; everything else is chunked.
// Calling Upload for a bucket/key pair with paused or failed state resumes
// that transfer instead of starting over.
func (o *Orchestrator) Upload(
	ctx context.Context,
	bucket, key, sourcePath string,
	cfg *transfertypes.UploadConfig,
) (*transfertypes.UploadResult, error) {
	start := time.Now()

	if st, ok := o.reg.Get(bucket, key); ok {
		return o.resume(ctx, st, cfg, start)
	}

	info, err := o.fs.Stat(sourcePath)
	if err != nil {
		return nil, errors.NewObjectError("upload", bucket, key,
			fmt.Errorf("%w: stat %s: %v", errors.ErrSourceRead, sourcePath, err))
	}
	size := info.Size()

	if size < o.threshold {
		return o.uploadSimple(ctx, bucket, key, sourcePath, size, cfg, start)
	}
	return o.uploadChunked(ctx, bucket, key, sourcePath, size, cfg, start)
}

// Pause requests a cooperative pause of the transfer registered for
// bucket/key. It returns true when a transfer was found; in-flight parts run
// to completion before the transfer settles as paused.
func (o *Orchestrator) Pause(bucket, key string) bool {
	st, ok := o.reg.Get(bucket, key)
	if !ok {
		return false
	}
	st.Pause()
	o.logger.Info("transfer pause requested", "bucket", bucket, "key", key)
	return true
}

// Resume continues the paused or failed transfer registered for bucket/key.
// The completed part set is re-seeded from the backend listing before any
// part is scheduled.
func (o *Orchestrator) Resume(
	ctx context.Context,
	bucket, key string,
	cfg *transfertypes.UploadConfig,
) (*transfertypes.UploadResult, error) {
	st, ok := o.reg.Get(bucket, key)
	if !ok {
		return nil, errors.NewObjectError("resume", bucket, key, errors.ErrNoSuchTransfer)
	}
	return o.resume(ctx, st, cfg, time.Now())
}

// Abort cancels the transfer registered for bucket/key and releases the
// backend resources held for it. Aborting an unknown transfer is a no-op.
func (o *Orchestrator) Abort(ctx context.Context, bucket, key string) error {
	st, ok := o.reg.Get(bucket, key)
	if !ok {
		return nil
	}
	st.MarkAborted()

	if !st.BeginAbort() {
		return nil
	}
	if err := o.gw.Abort(ctx, bucket, key, st.UploadID()); err != nil {
		st.RetryAbort()
		return err
	}
	o.reg.Remove(bucket, key)
	o.logger.Info("transfer aborted", "bucket", bucket, "key", key)
	return nil
}

// Snapshot returns a point-in-time view of the transfer registered for
// bucket/key.
func (o *Orchestrator) Snapshot(bucket, key string) (*transfertypes.StateSnapshot, error) {
	st, ok := o.reg.Get(bucket, key)
	if !ok {
		return nil, errors.NewObjectError("state", bucket, key, errors.ErrNoSuchTransfer)
	}
	return st.Snapshot(), nil
}

// uploadSimple performs a single-request upload.
func (o *Orchestrator) uploadSimple(
	ctx context.Context,
	bucket, key, sourcePath string,
	size int64,
	cfg *transfertypes.UploadConfig,
	start time.Time,
) (*transfertypes.UploadResult, error) {
	em := newEmitter(o.logger, cfg, bucket, key, sourcePath, size, 0)
	em.send(transfertypes.StatusUploading, 0, 0)

	data, err := o.fs.ReadFile(sourcePath)
	if err != nil {
		em.send(transfertypes.StatusFailed, 0, 0)
		return nil, errors.NewObjectError("upload", bucket, key,
			fmt.Errorf("%w: read %s: %v", errors.ErrSourceRead, sourcePath, err))
	}

	etag, err := o.gw.PutObject(ctx, bucket, key, data, cfg)
	if err != nil {
		em.send(transfertypes.StatusFailed, 0, 0)
		return nil, err
	}

	em.send(transfertypes.StatusCompleted, size, 0)
	return &transfertypes.UploadResult{
		Bucket:   bucket,
		Key:      key,
		Size:     size,
		ETag:     etag,
		Status:   transfertypes.StatusCompleted,
		Duration: time.Since(start),
	}, nil
}

// uploadChunked sets up the transfer state for a chunked upload and runs the
// transfer loop.
func (o *Orchestrator) uploadChunked(
	ctx context.Context,
	bucket, key, sourcePath string,
	size int64,
	cfg *transfertypes.UploadConfig,
	start time.Time,
) (*transfertypes.UploadResult, error) {
	totalParts := partplan.Count(size, o.partSize)

	var uploadID string
	resumed := false
	if cfg != nil && cfg.UploadID != "" {
		uploadID = cfg.UploadID
		resumed = true
	} else {
		id, err := o.gw.Initiate(ctx, bucket, key, cfg)
		if err != nil {
			return nil, err
		}
		uploadID = id
	}

	st := o.reg.Create(registry.NewState(bucket, key, sourcePath, uploadID, size, o.partSize, totalParts))

	if resumed {
		if err := o.seed(ctx, st); err != nil {
			return nil, err
		}
	}

	o.logger.Info("chunked transfer started",
		"bucket", bucket,
		"key", key,
		"upload_id", uploadID,
		"total_parts", totalParts,
	)
	return o.run(ctx, st, cfg, start)
}

// resume re-seeds a registered transfer from the authoritative backend part
// listing and re-enters the transfer loop.
func (o *Orchestrator) resume(
	ctx context.Context,
	st *registry.State,
	cfg *transfertypes.UploadConfig,
	start time.Time,
) (*transfertypes.UploadResult, error) {
	if st.IsAborted() {
		return nil, errors.NewObjectError("resume", st.Bucket(), st.Key(), errors.ErrTransferAborted)
	}
	st.ClearPaused()

	if err := o.seed(ctx, st); err != nil {
		return nil, err
	}

	o.logger.Info("transfer resumed",
		"bucket", st.Bucket(),
		"key", st.Key(),
		"parts_completed", st.CompletedCount(),
		"total_parts", st.TotalParts(),
	)
	return o.run(ctx, st, cfg, start)
}

// seed replaces the local completed set with the backend part listing.
func (o *Orchestrator) seed(ctx context.Context, st *registry.State) error {
	parts, err := o.gw.ListCompletedParts(ctx, st.Bucket(), st.Key(), st.UploadID())
	if err != nil {
		return err
	}
	st.Seed(parts)
	return nil
}

// run is the transfer loop. Each iteration checks the abort and pause flags,
// selects the next batch of missing parts, and fans the batch out with
// bounded concurrency. Pause and abort take effect only at these batch
// boundaries: parts already in flight run to completion.
func (o *Orchestrator) run(
	ctx context.Context,
	st *registry.State,
	cfg *transfertypes.UploadConfig,
	start time.Time,
) (*transfertypes.UploadResult, error) {
	em := newEmitter(o.logger, cfg, st.Bucket(), st.Key(), st.SourcePath(), st.TotalBytes(), st.TotalParts())

	f, err := o.fs.Open(st.SourcePath())
	if err != nil {
		em.send(transfertypes.StatusFailed, st.BytesCompleted(), st.CompletedCount())
		return nil, errors.NewObjectError("upload", st.Bucket(), st.Key(),
			fmt.Errorf("%w: open %s: %v", errors.ErrSourceRead, st.SourcePath(), err))
	}
	defer f.Close()

	em.send(transfertypes.StatusUploading, st.BytesCompleted(), st.CompletedCount())

	for {
		if st.IsAborted() {
			return o.resolveAbort(ctx, st, start)
		}
		if st.IsPaused() {
			em.send(transfertypes.StatusPaused, st.BytesCompleted(), st.CompletedCount())
			o.logger.Info("transfer paused",
				"bucket", st.Bucket(),
				"key", st.Key(),
				"parts_completed", st.CompletedCount(),
				"total_parts", st.TotalParts(),
			)
			return &transfertypes.UploadResult{
				Bucket:   st.Bucket(),
				Key:      st.Key(),
				Size:     st.BytesCompleted(),
				Status:   transfertypes.StatusPaused,
				Duration: time.Since(start),
			}, nil
		}

		batch := st.Missing(o.concurrency)
		if len(batch) == 0 {
			return o.finalize(ctx, st, em, start)
		}

		// Deliberately not errgroup.WithContext: a failing part must not
		// cancel its batch siblings mid-flight. Every part in the batch
		// settles before the loop reacts.
		var g errgroup.Group
		for _, number := range batch {
			g.Go(func() error {
				return o.uploadPart(ctx, f, st, em, number)
			})
		}
		if err := g.Wait(); err != nil {
			if goerrors.Is(err, errors.ErrTransferAborted) || st.IsAborted() {
				return o.resolveAbort(ctx, st, start)
			}
			em.send(transfertypes.StatusFailed, st.BytesCompleted(), st.CompletedCount())
			return nil, err
		}
	}
}

// uploadPart reads one part from the source and uploads it, retrying
// transient gateway failures with exponential backoff. The completed set is
// updated only after the gateway acknowledges the part.
func (o *Orchestrator) uploadPart(
	ctx context.Context,
	f fs.File,
	st *registry.State,
	em *emitter,
	number int32,
) error {
	part := partplan.Describe(number, st.TotalBytes(), st.PartSize())

	buf := o.buffers.Get(part.Length)
	defer o.buffers.Put(buf)

	n, err := f.ReadAt(buf, part.Offset)
	if int64(n) != part.Length {
		if err == nil || goerrors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return errors.NewObjectError("uploadPart", st.Bucket(), st.Key(),
			fmt.Errorf("%w: part %d at offset %d: %v", errors.ErrSourceRead, number, part.Offset, err))
	}

	etag, err := o.sendPart(ctx, st, number, buf)
	if err != nil {
		return err
	}

	st.RecordPart(number, etag)
	em.send(transfertypes.StatusUploading, st.BytesCompleted(), st.CompletedCount())
	return nil
}

// sendPart pushes one part through the gateway under the retry policy. An
// abort observed between attempts stops the retries immediately.
func (o *Orchestrator) sendPart(
	ctx context.Context,
	st *registry.State,
	number int32,
	data []byte,
) (string, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = o.retryDelay
	bo.RandomizationFactor = 0
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(o.maxRetries)), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (string, error) {
		if st.IsAborted() {
			return "", backoff.Permanent(errors.ErrTransferAborted)
		}
		attempt++
		etag, err := o.gw.UploadPart(ctx, st.Bucket(), st.Key(), st.UploadID(), number, data)
		if err != nil {
			o.logger.Warn("part attempt failed",
				"bucket", st.Bucket(),
				"key", st.Key(),
				"part", number,
				"attempt", attempt,
				"error", err,
			)
			return "", err
		}
		return etag, nil
	}, policy)
}

// finalize completes the chunked upload. On failure the transfer state stays
// registered so the caller can resume and retry finalization without
// re-uploading parts.
func (o *Orchestrator) finalize(
	ctx context.Context,
	st *registry.State,
	em *emitter,
	start time.Time,
) (*transfertypes.UploadResult, error) {
	if st.CompletedCount() != st.TotalParts() {
		em.send(transfertypes.StatusFailed, st.BytesCompleted(), st.CompletedCount())
		return nil, errors.NewObjectError("complete", st.Bucket(), st.Key(), errors.ErrTransferIncomplete)
	}

	etag, err := o.gw.Complete(ctx, st.Bucket(), st.Key(), st.UploadID(), st.CompletedParts())
	if err != nil {
		em.send(transfertypes.StatusFailed, st.BytesCompleted(), st.CompletedCount())
		return nil, err
	}

	o.reg.Remove(st.Bucket(), st.Key())
	em.send(transfertypes.StatusCompleted, st.TotalBytes(), st.TotalParts())
	o.logger.Info("transfer completed",
		"bucket", st.Bucket(),
		"key", st.Key(),
		"total_parts", st.TotalParts(),
	)
	return &transfertypes.UploadResult{
		Bucket:   st.Bucket(),
		Key:      st.Key(),
		Size:     st.TotalBytes(),
		ETag:     etag,
		Status:   transfertypes.StatusCompleted,
		Duration: time.Since(start),
	}, nil
}

// resolveAbort settles an aborted transfer. The backend abort is issued by
// whichever of the external abort call and the transfer loop claims it first.
// No progress event is emitted for aborts.
func (o *Orchestrator) resolveAbort(
	ctx context.Context,
	st *registry.State,
	start time.Time,
) (*transfertypes.UploadResult, error) {
	if st.BeginAbort() {
		if err := o.gw.Abort(ctx, st.Bucket(), st.Key(), st.UploadID()); err != nil {
			st.RetryAbort()
			return nil, err
		}
		o.reg.Remove(st.Bucket(), st.Key())
		o.logger.Info("transfer aborted", "bucket", st.Bucket(), "key", st.Key())
	}
	return &transfertypes.UploadResult{
		Bucket:   st.Bucket(),
		Key:      st.Key(),
		Status:   transfertypes.StatusAborted,
		Duration: time.Since(start),
	}, nil
}
