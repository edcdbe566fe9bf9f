package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/gateway"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/operations/upload"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/partplan"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

// Default tuning values applied by New when the corresponding option is not
// supplied.
const (
	// DefaultMultipartThreshold is the size at which uploads switch from a
	// single request to the chunked path.
	DefaultMultipartThreshold = 5 * 1024 * 1024

	// DefaultPartSize is the fixed chunk size for chunked uploads.
	DefaultPartSize = 5 * 1024 * 1024

	// DefaultMaxConcurrentParts bounds the part fan-out per transfer.
	DefaultMaxConcurrentParts = 3

	// DefaultMaxPartRetries is the number of extra attempts per part beyond
	// the first.
	DefaultMaxPartRetries = 3

	// DefaultRetryBaseDelay is the initial backoff delay between part
	// attempts.
	DefaultRetryBaseDelay = time.Second
)

// Client is the entry point for upload orchestration. It is safe for
// concurrent use; transfers to distinct bucket/key pairs proceed
// independently.
type Client struct {
	// api is the underlying S3 client
	api s3api.S3API

	// orch drives uploads and owns the transfer registry
	orch *upload.Orchestrator

	// fs is the filesystem abstraction for source reads
	fs fs.Filesystem

	// logger receives structured transfer logs
	logger *slog.Logger
}

// New creates a new transfer client with the provided options.
// It loads AWS credentials using the default credential chain and applies
// the specified configuration options.
//
// Example:
//
//	client, err := transfer.New(
//	    transfer.WithRegion("us-west-2"),
//	    transfer.WithPartSize(8*1024*1024),
//	)
func New(opts ...transfertypes.Option) (*Client, error) {
	clientCfg := defaultConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}
	if err := validateConfig(clientCfg); err != nil {
		return nil, err
	}

	var cfg aws.Config
	var err error
	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		cfg, err = config.LoadDefaultConfig(context.Background())
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1" // AWS default region
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return newClient(s3.NewFromConfig(cfg, s3Opts...), clientCfg), nil
}

// NewWithClient creates a transfer client with a custom S3API implementation.
// This is primarily used for testing with mocked clients or for sharing an
// already-configured SDK client.
func NewWithClient(api s3api.S3API, opts ...transfertypes.Option) (*Client, error) {
	clientCfg := defaultConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}
	if err := validateConfig(clientCfg); err != nil {
		return nil, err
	}
	return newClient(api, clientCfg), nil
}

func newClient(api s3api.S3API, clientCfg *transfertypes.ClientConfig) *Client {
	filesystem := clientCfg.Filesystem
	if filesystem == nil {
		// Default to OS filesystem rooted at /
		filesystem = billy.NewOSFS("/")
	}
	logger := clientCfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	orch := upload.New(upload.Config{
		Gateway:            gateway.New(api),
		FS:                 filesystem,
		Logger:             logger,
		MultipartThreshold: clientCfg.MultipartThreshold,
		PartSize:           clientCfg.PartSize,
		MaxConcurrentParts: clientCfg.MaxConcurrentParts,
		MaxPartRetries:     clientCfg.MaxPartRetries,
		RetryBaseDelay:     clientCfg.RetryBaseDelay,
	})

	return &Client{
		api:    api,
		orch:   orch,
		fs:     filesystem,
		logger: logger,
	}
}

func defaultConfig() *transfertypes.ClientConfig {
	return &transfertypes.ClientConfig{
		MultipartThreshold: DefaultMultipartThreshold,
		PartSize:           DefaultPartSize,
		MaxConcurrentParts: DefaultMaxConcurrentParts,
		MaxPartRetries:     DefaultMaxPartRetries,
		RetryBaseDelay:     DefaultRetryBaseDelay,
	}
}

func validateConfig(cfg *transfertypes.ClientConfig) error {
	if cfg.PartSize < partplan.MinPartSize {
		return errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("part size must be at least 5 MiB")
	}
	if cfg.MultipartThreshold <= 0 {
		return errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("multipart threshold must be positive")
	}
	if cfg.MaxConcurrentParts <= 0 {
		return errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("max concurrent parts must be positive")
	}
	if cfg.MaxPartRetries < 0 {
		return errors.NewError("client initialization", errors.ErrInvalidInput).
			WithMessage("max part retries cannot be negative")
	}
	return nil
}
