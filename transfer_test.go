package transfer

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

func newTestClient(t *testing.T, mock *testutil.MockS3Client, fsys *billy.FS, opts ...transfertypes.Option) *Client {
	t.Helper()
	opts = append(opts, WithFilesystem(fsys))
	client, err := NewWithClient(mock, opts...)
	require.NoError(t, err)
	return client
}

func TestNewWithClientRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opts []transfertypes.Option
	}{
		{
			name: "part size below minimum",
			opts: []transfertypes.Option{WithPartSize(1024)},
		},
		{
			name: "zero concurrency",
			opts: []transfertypes.Option{func(c *transfertypes.ClientConfig) {
				c.MaxConcurrentParts = 0
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithClient(&testutil.MockS3Client{}, tt.opts...)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestUploadFileValidatesDestination(t *testing.T) {
	client := newTestClient(t, &testutil.MockS3Client{}, billy.NewInMemoryFS())

	_, err := client.UploadFile(context.Background(), "Bad_Bucket", "key", "file.txt")
	assert.ErrorIs(t, err, errors.ErrInvalidBucketName)

	_, err = client.UploadFile(context.Background(), "good-bucket", "../escape", "file.txt")
	assert.ErrorIs(t, err, errors.ErrInvalidObjectKey)

	_, err = client.UploadFile(context.Background(), "good-bucket", "key", "file.txt",
		WithMetadata(map[string]string{"aws:reserved": "x"}))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestUploadFileSimple(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("notes/readme.txt", []byte("hello, transfer engine\n"), 0o644))

	var gotContentType string
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			gotContentType = aws.ToString(input.ContentType)
			assert.Equal(t, "my-bucket", aws.ToString(input.Bucket))
			assert.Equal(t, "docs/readme.txt", aws.ToString(input.Key))
			return &s3.PutObjectOutput{ETag: aws.String("etag-1")}, nil
		},
	}

	client := newTestClient(t, mock, fsys)
	result, err := client.UploadFile(context.Background(), "my-bucket", "docs/readme.txt", "notes/readme.txt")
	require.NoError(t, err)

	assert.Equal(t, transfertypes.StatusCompleted, result.Status)
	assert.Equal(t, "etag-1", result.ETag)

	// Content type is sniffed from the source when not supplied.
	assert.True(t, strings.HasPrefix(gotContentType, "text/plain"), "got content type %q", gotContentType)
}

func TestUploadFileExplicitContentTypeWins(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("data.bin", []byte("plain text really"), 0o644))

	var gotContentType string
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			gotContentType = aws.ToString(input.ContentType)
			return &s3.PutObjectOutput{ETag: aws.String("etag")}, nil
		},
	}

	client := newTestClient(t, mock, fsys)
	_, err := client.UploadFile(context.Background(), "my-bucket", "data.bin", "data.bin",
		WithContentType("application/x-custom"))
	require.NoError(t, err)
	assert.Equal(t, "application/x-custom", gotContentType)
}

func TestPauseUnknownTransfer(t *testing.T) {
	client := newTestClient(t, &testutil.MockS3Client{}, billy.NewInMemoryFS())
	assert.False(t, client.Pause("bucket", "nothing"))
}

func TestResumeUnknownTransfer(t *testing.T) {
	client := newTestClient(t, &testutil.MockS3Client{}, billy.NewInMemoryFS())

	_, err := client.Resume(context.Background(), "my-bucket", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNoSuchTransfer(err))
}

func TestStateUnknownTransfer(t *testing.T) {
	client := newTestClient(t, &testutil.MockS3Client{}, billy.NewInMemoryFS())

	_, err := client.State("my-bucket", "missing")
	assert.ErrorIs(t, err, errors.ErrNoSuchTransfer)
}

func TestAbortUnknownTransfer(t *testing.T) {
	client := newTestClient(t, &testutil.MockS3Client{}, billy.NewInMemoryFS())
	assert.NoError(t, client.Abort(context.Background(), "my-bucket", "missing"))
}
