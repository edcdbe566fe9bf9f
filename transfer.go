// High-level upload orchestration operations: UploadFile, Pause, Resume,
// Abort, and State.
package transfer

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

// detectionSampleSize is how much of the source is read for content type
// sniffing.
const detectionSampleSize = 3072

// UploadFile uploads the file at sourcePath to bucket/key.
//
// Sources below the multipart threshold are uploaded in a single request.
// Larger sources are split into fixed-size parts uploaded with bounded
// concurrency; each part is retried with exponential backoff before the
// transfer fails. Chunked transfers keep registered state while paused or
// failed, so a later UploadFile or Resume for the same bucket/key continues
// where the transfer left off instead of starting over.
//
// The content type is detected from the source file unless WithContentType
// is supplied.
//
// Returns:
//   - StatusCompleted when the object is durably visible at the backend
//   - StatusPaused when a pause request settled the transfer with partial progress
//   - StatusAborted when an abort request settled the transfer
//
// Errors:
//   - ErrInvalidBucketName / ErrInvalidObjectKey for invalid destinations
//   - ErrSourceRead when the source cannot be statted or read (never retried)
//   - gateway errors when the backend rejects an operation after retries
//
// Example:
//
//	result, err := client.UploadFile(ctx, "my-bucket", "data/report.csv", "/tmp/report.csv",
//	    transfer.WithStorageClass(transfertypes.StorageClassStandardIA),
//	)
func (c *Client) UploadFile(
	ctx context.Context,
	bucket, key, sourcePath string,
	opts ...transfertypes.UploadOption,
) (*transfertypes.UploadResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}

	cfg := &transfertypes.UploadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := validation.ValidateMetadata(cfg.Metadata); err != nil {
		return nil, err
	}
	if cfg.ContentType == "" {
		cfg.ContentType = c.detectContentType(sourcePath)
	}

	return c.orch.Upload(ctx, bucket, key, sourcePath, cfg)
}

// Pause requests a cooperative pause of the chunked transfer for bucket/key.
// Parts already in flight run to completion; no new parts are scheduled once
// the transfer loop observes the request. Partial progress is retained and
// the transfer stays registered for a later Resume.
//
// Returns true when a transfer was found for the pair. Pausing an unknown
// pair is a no-op and returns false.
func (c *Client) Pause(bucket, key string) bool {
	return c.orch.Pause(bucket, key)
}

// Resume continues the paused or failed chunked transfer for bucket/key.
// The completed part set is first re-seeded from the authoritative backend
// part listing, so parts durably stored before a crash or failure are never
// uploaded twice.
//
// Errors:
//   - ErrNoSuchTransfer when no transfer is registered for the pair
//   - ErrTransferAborted when the registered transfer was aborted
func (c *Client) Resume(
	ctx context.Context,
	bucket, key string,
	opts ...transfertypes.UploadOption,
) (*transfertypes.UploadResult, error) {
	if err := validation.ValidateBucketName(bucket); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}

	cfg := &transfertypes.UploadConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return c.orch.Resume(ctx, bucket, key, cfg)
}

// Abort cancels the chunked transfer for bucket/key and releases the backend
// resources held for it. A transfer currently in flight settles as aborted at
// its next batch boundary; the backend abort is issued exactly once no matter
// how the cancellation races with the transfer loop.
//
// Aborting an unknown pair is a no-op and returns nil.
func (c *Client) Abort(ctx context.Context, bucket, key string) error {
	return c.orch.Abort(ctx, bucket, key)
}

// State returns a point-in-time snapshot of the chunked transfer registered
// for bucket/key. The snapshot carries the backend upload ID, so callers can
// persist it and resume the transfer in another process via WithUploadID.
//
// Errors:
//   - ErrNoSuchTransfer when no transfer is registered for the pair
func (c *Client) State(bucket, key string) (*transfertypes.StateSnapshot, error) {
	return c.orch.Snapshot(bucket, key)
}

// detectContentType sniffs the content type from the first bytes of the
// source, falling back to the file extension when sniffing is inconclusive.
// Detection failures are not errors; the upload proceeds without an explicit
// content type and the backend applies its default.
func (c *Client) detectContentType(sourcePath string) string {
	f, err := c.fs.Open(sourcePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, detectionSampleSize)
	n, _ := f.Read(buf)

	detected := mimetype.Detect(buf[:n]).String()
	if strings.HasPrefix(detected, "application/octet-stream") {
		if byExt := mime.TypeByExtension(filepath.Ext(sourcePath)); byExt != "" {
			return byExt
		}
	}
	return detected
}
