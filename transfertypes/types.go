// Package transfertypes provides shared type definitions for the transfer module.
package transfertypes

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
)

// StorageClass represents the S3 storage class for uploaded objects.
type StorageClass string

// Predefined storage classes
const (
	// StorageClassStandard is the default storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassOneZoneIA provides one zone infrequent access storage
	StorageClassOneZoneIA StorageClass = "ONEZONE_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides Glacier archival storage
	StorageClassGlacier StorageClass = "GLACIER"
)

// Status represents the observable state of a transfer.
type Status string

// Transfer statuses. Progress events carry the first four; StatusAborted is
// reported only through the returned UploadResult.
const (
	// StatusUploading indicates parts are being transferred
	StatusUploading Status = "uploading"

	// StatusPaused indicates the transfer was paused with partial progress retained
	StatusPaused Status = "paused"

	// StatusCompleted indicates the object is durably visible at the backend
	StatusCompleted Status = "completed"

	// StatusFailed indicates the transfer ended in error
	StatusFailed Status = "failed"

	// StatusAborted indicates the transfer was aborted and backend resources released
	StatusAborted Status = "aborted"
)

// CompletedPart identifies one durably stored part of a chunked transfer.
// The ETag is the backend-issued proof of receipt, supplied back at
// finalize time.
type CompletedPart struct {
	// Number is the 1-based part index
	Number int32

	// ETag is the backend-issued entity tag for the part
	ETag string
}

// ProgressEvent represents a progress update during an upload.
type ProgressEvent struct {
	// Bucket is the destination bucket
	Bucket string

	// Key is the destination object key
	Key string

	// SourcePath is the local path being uploaded
	SourcePath string

	// BytesTransferred is the cumulative bytes transferred so far
	BytesTransferred int64

	// TotalBytes is the total expected size
	TotalBytes int64

	// Percentage is BytesTransferred over TotalBytes, in [0, 100]
	Percentage float64

	// PartsCompleted is the number of parts durably stored (chunked transfers only)
	PartsCompleted int32

	// TotalParts is the planned part count (chunked transfers only)
	TotalParts int32

	// Status is one of uploading, paused, completed, failed
	Status Status
}

// ProgressFunc is called during uploads to report progress.
// Implementations should be efficient as this may be called frequently.
// It is invoked at the start of a transfer, after every completed part of a
// chunked transfer, and exactly once with a terminal status; it is never
// invoked again after a completed or failed event.
type ProgressFunc func(event ProgressEvent)

// StateSnapshot is a point-in-time view of a registered transfer, exposed so
// callers can persist enough to resume across processes by re-supplying the
// upload ID.
type StateSnapshot struct {
	// UploadID is the backend-assigned multipart upload identity
	UploadID string

	// Bucket is the destination bucket
	Bucket string

	// Key is the destination object key
	Key string

	// SourcePath is the local path being uploaded
	SourcePath string

	// TotalBytes is the source size in bytes
	TotalBytes int64

	// PartSize is the fixed part size the transfer was planned with
	PartSize int64

	// PartsCompleted is the number of parts durably stored
	PartsCompleted int32

	// TotalParts is the planned part count
	TotalParts int32

	// Paused reports whether the transfer is currently paused
	Paused bool
}

// UploadResult contains the result of an upload operation.
type UploadResult struct {
	// Bucket is the destination bucket
	Bucket string

	// Key is the object key that was uploaded
	Key string

	// Size is the number of bytes durably stored when the call returned.
	// Equals the source size for completed transfers and the completed-part
	// total for paused ones.
	Size int64

	// ETag is the entity tag for the uploaded object (completed transfers only)
	ETag string

	// Status is the terminal status of this invocation
	Status Status

	// Duration is how long the call took
	Duration time.Duration
}

// ClientConfig holds configuration for the transfer client.
type ClientConfig struct {
	Region             string
	Endpoint           string
	ForcePathStyle     bool
	MultipartThreshold int64
	PartSize           int64
	MaxConcurrentParts int
	MaxPartRetries     int
	RetryBaseDelay     time.Duration
	CustomAWSConfig    *aws.Config
	Filesystem         fs.Filesystem // Filesystem abstraction for source reads
	Logger             *slog.Logger
}

// UploadConfig holds per-upload configuration applied via functional options.
type UploadConfig struct {
	ContentType  string
	Metadata     map[string]string
	StorageClass StorageClass
	Progress     ProgressFunc

	// UploadID resumes an existing backend multipart upload instead of
	// initiating a new one. The completed part set is re-seeded from the
	// backend, so resume works even when local state was lost.
	UploadID string
}

// Option is a functional option for configuring the transfer client.
type (
	Option func(*ClientConfig)
	// UploadOption is a functional option for configuring a single upload.
	UploadOption func(*UploadConfig)
)
