// Functional options for configuring client and per-upload behavior.
package transfer

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/input-output-hk/catalyst-forge-libs/fs"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

// WithRegion sets the AWS region for transfer operations.
// If not specified, uses the default AWS region from the credential chain.
func WithRegion(region string) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint URL.
// This is useful for S3-compatible services or local testing with LocalStack.
func WithEndpoint(endpoint string) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.Endpoint = endpoint
	}
}

// WithForcePathStyle forces the use of path-style URLs instead of virtual-hosted style.
// This is required for S3-compatible services that don't support virtual hosting.
// Default is false (uses virtual-hosted style).
func WithForcePathStyle(forcePathStyle bool) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.ForcePathStyle = forcePathStyle
	}
}

// WithAWSConfig allows providing a custom AWS configuration.
// This overrides the default configuration loading behavior.
func WithAWSConfig(config *aws.Config) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.CustomAWSConfig = config
	}
}

// WithFilesystem sets a custom filesystem implementation for source reads.
// This allows using in-memory filesystems for testing or virtual filesystems.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem fs.Filesystem) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the structured logger for transfer operations.
// If not specified, slog.Default() is used.
func WithLogger(logger *slog.Logger) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithMultipartThreshold sets the size at which uploads switch from a single
// request to the chunked path. Default is 5 MiB.
func WithMultipartThreshold(threshold int64) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		if threshold > 0 {
			c.MultipartThreshold = threshold
		}
	}
}

// WithPartSize sets the part size for chunked uploads.
// Default is 5 MiB. Must be at least 5 MiB.
func WithPartSize(partSize int64) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		if partSize > 0 {
			c.PartSize = partSize
		}
	}
}

// WithMaxConcurrentParts sets the maximum number of parts uploaded
// concurrently per transfer. Default is 3.
func WithMaxConcurrentParts(concurrency int) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		if concurrency > 0 {
			c.MaxConcurrentParts = concurrency
		}
	}
}

// WithMaxPartRetries sets the number of extra attempts per part beyond the
// first. Default is 3. Set to 0 to disable retries.
func WithMaxPartRetries(retries int) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		if retries >= 0 {
			c.MaxPartRetries = retries
		}
	}
}

// WithRetryBaseDelay sets the initial backoff delay between part attempts.
// The delay doubles on each subsequent attempt. Default is 1 second.
func WithRetryBaseDelay(delay time.Duration) transfertypes.Option {
	return func(c *transfertypes.ClientConfig) {
		if delay > 0 {
			c.RetryBaseDelay = delay
		}
	}
}

// WithContentType sets the content type for the uploaded object.
// If not specified, the content type is detected from the source file.
func WithContentType(contentType string) transfertypes.UploadOption {
	return func(c *transfertypes.UploadConfig) {
		c.ContentType = contentType
	}
}

// WithMetadata sets user metadata for the uploaded object.
func WithMetadata(metadata map[string]string) transfertypes.UploadOption {
	return func(c *transfertypes.UploadConfig) {
		if c.Metadata == nil {
			c.Metadata = make(map[string]string)
		}
		for k, v := range metadata {
			c.Metadata[k] = v
		}
	}
}

// WithStorageClass sets the storage class for the uploaded object.
func WithStorageClass(storageClass transfertypes.StorageClass) transfertypes.UploadOption {
	return func(c *transfertypes.UploadConfig) {
		c.StorageClass = storageClass
	}
}

// WithProgress sets a progress callback for the upload. The callback is
// invoked at the start of the transfer, after every completed part, and
// exactly once with a terminal status.
func WithProgress(fn transfertypes.ProgressFunc) transfertypes.UploadOption {
	return func(c *transfertypes.UploadConfig) {
		c.Progress = fn
	}
}

// WithUploadID resumes an existing backend multipart upload instead of
// initiating a new one. Use this to continue a transfer across processes:
// persist the upload ID from State, then supply it to UploadFile in the new
// process. The completed part set is re-seeded from the backend.
func WithUploadID(uploadID string) transfertypes.UploadOption {
	return func(c *transfertypes.UploadConfig) {
		c.UploadID = uploadID
	}
}
