// Package upload provides unit tests for the upload orchestration engine.
package upload

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/gateway"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

const mib = 1024 * 1024

// fakeBackend emulates the multipart lifecycle of the storage backend: it
// records acknowledged parts so ListParts reflects durable state, the way the
// real backend does across pauses and crashes.
type fakeBackend struct {
	mu        sync.Mutex
	parts     map[int32]string
	uploaded  []int32
	initiates int
	completes int
	aborts    int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{parts: make(map[int32]string)}
}

func (b *fakeBackend) install(mock *testutil.MockS3Client) {
	mock.CreateMultipartUploadFunc = func(ctx context.Context, input *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.initiates++
		return &s3.CreateMultipartUploadOutput{UploadId: aws.String("upload-1")}, nil
	}
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		number := aws.ToInt32(input.PartNumber)
		etag := fmt.Sprintf("etag-%d", number)

		b.mu.Lock()
		defer b.mu.Unlock()
		b.parts[number] = etag
		b.uploaded = append(b.uploaded, number)
		return &s3.UploadPartOutput{ETag: aws.String(etag)}, nil
	}
	mock.ListPartsFunc = func(ctx context.Context, input *s3.ListPartsInput, opts ...func(*s3.Options)) (*s3.ListPartsOutput, error) {
		b.mu.Lock()
		defer b.mu.Unlock()

		numbers := make([]int32, 0, len(b.parts))
		for n := range b.parts {
			numbers = append(numbers, n)
		}
		sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

		parts := make([]awstypes.Part, 0, len(numbers))
		for _, n := range numbers {
			parts = append(parts, awstypes.Part{
				PartNumber: aws.Int32(n),
				ETag:       aws.String(b.parts[n]),
			})
		}
		return &s3.ListPartsOutput{Parts: parts, IsTruncated: aws.Bool(false)}, nil
	}
	mock.CompleteMultipartUploadFunc = func(ctx context.Context, input *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.completes++
		return &s3.CompleteMultipartUploadOutput{ETag: aws.String("final-etag")}, nil
	}
	mock.AbortMultipartUploadFunc = func(ctx context.Context, input *s3.AbortMultipartUploadInput, opts ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.aborts++
		return &s3.AbortMultipartUploadOutput{}, nil
	}
}

func (b *fakeBackend) uploadedParts() []int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]int32, len(b.uploaded))
	copy(out, b.uploaded)
	return out
}

func (b *fakeBackend) counts() (initiates, completes, aborts int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initiates, b.completes, b.aborts
}

func (b *fakeBackend) seedParts(numbers ...int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range numbers {
		b.parts[n] = fmt.Sprintf("etag-%d", n)
	}
}

func newTestOrchestrator(mock *testutil.MockS3Client, fsys *billy.FS, concurrency int) *Orchestrator {
	return New(Config{
		Gateway:            gateway.New(mock),
		FS:                 fsys,
		Logger:             slog.New(slog.NewTextHandler(io.Discard, nil)),
		MultipartThreshold: 5 * mib,
		PartSize:           5 * mib,
		MaxConcurrentParts: concurrency,
		MaxPartRetries:     3,
		RetryBaseDelay:     time.Millisecond,
	})
}

func writeSource(t *testing.T, fsys *billy.FS, path string, size int) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, fsys.WriteFile(path, data, 0o644))
}

func TestUploadSimpleBelowThreshold(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/small.bin", 1*mib)

	putCalls := 0
	mock := &testutil.MockS3Client{
		PutObjectFunc: func(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			putCalls++
			assert.Equal(t, int64(1*mib), aws.ToInt64(input.ContentLength))
			return &s3.PutObjectOutput{ETag: aws.String("simple-etag")}, nil
		},
		CreateMultipartUploadFunc: func(ctx context.Context, input *s3.CreateMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
			t.Fatal("sub-threshold upload must not initiate a multipart upload")
			return nil, nil
		},
	}

	var events []transfertypes.ProgressEvent
	cfg := &transfertypes.UploadConfig{
		Progress: func(ev transfertypes.ProgressEvent) { events = append(events, ev) },
	}

	orch := newTestOrchestrator(mock, fsys, 3)
	result, err := orch.Upload(context.Background(), "bucket", "small", "data/small.bin", cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, putCalls)
	assert.Equal(t, transfertypes.StatusCompleted, result.Status)
	assert.Equal(t, "simple-etag", result.ETag)
	assert.Equal(t, int64(1*mib), result.Size)

	require.Len(t, events, 2)
	assert.Equal(t, transfertypes.StatusUploading, events[0].Status)
	assert.Equal(t, transfertypes.StatusCompleted, events[1].Status)
	assert.InDelta(t, 100.0, events[1].Percentage, 0.001)

	// No transfer state is registered for single-request uploads.
	_, err = orch.Snapshot("bucket", "small")
	assert.ErrorIs(t, err, errors.ErrNoSuchTransfer)
}

func TestUploadAtThresholdIsChunked(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/exact.bin", 5*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	orch := newTestOrchestrator(mock, fsys, 3)
	result, err := orch.Upload(context.Background(), "bucket", "exact", "data/exact.bin", nil)
	require.NoError(t, err)

	initiates, completes, _ := backend.counts()
	assert.Equal(t, 1, initiates)
	assert.Equal(t, 1, completes)
	assert.Equal(t, []int32{1}, backend.uploadedParts())
	assert.Equal(t, transfertypes.StatusCompleted, result.Status)
}

func TestUploadChunkedHappyPath(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	// Wrap the part upload to verify lengths per part number.
	inner := mock.UploadPartFunc
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		wantLength := int64(5 * mib)
		if aws.ToInt32(input.PartNumber) == 3 {
			wantLength = 2 * mib
		}
		assert.Equal(t, wantLength, aws.ToInt64(input.ContentLength))
		return inner(ctx, input, opts...)
	}

	var completedParts []awstypes.CompletedPart
	innerComplete := mock.CompleteMultipartUploadFunc
	mock.CompleteMultipartUploadFunc = func(ctx context.Context, input *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		completedParts = input.MultipartUpload.Parts
		return innerComplete(ctx, input, opts...)
	}

	orch := newTestOrchestrator(mock, fsys, 3)
	result, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.NoError(t, err)

	assert.Equal(t, transfertypes.StatusCompleted, result.Status)
	assert.Equal(t, "final-etag", result.ETag)
	assert.Equal(t, int64(12*mib), result.Size)

	parts := backend.uploadedParts()
	assert.Len(t, parts, 3)

	require.Len(t, completedParts, 3)
	for i, p := range completedParts {
		assert.Equal(t, int32(i+1), aws.ToInt32(p.PartNumber))
	}

	// Completed transfers leave no state behind.
	_, err = orch.Snapshot("bucket", "big")
	assert.ErrorIs(t, err, errors.ErrNoSuchTransfer)
}

func TestPauseThenResume(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	var orch *Orchestrator

	// Pause after the first part finishes. With a fan-out of one, the loop
	// observes the flag before scheduling part two.
	inner := mock.UploadPartFunc
	paused := false
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		out, err := inner(ctx, input, opts...)
		if !paused {
			paused = true
			require.True(t, orch.Pause("bucket", "big"))
		}
		return out, err
	}

	orch = newTestOrchestrator(mock, fsys, 1)
	result, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.NoError(t, err)

	assert.Equal(t, transfertypes.StatusPaused, result.Status)
	assert.Equal(t, int64(5*mib), result.Size)
	assert.Equal(t, []int32{1}, backend.uploadedParts())

	snap, err := orch.Snapshot("bucket", "big")
	require.NoError(t, err)
	assert.Equal(t, int32(1), snap.PartsCompleted)
	assert.Equal(t, int32(3), snap.TotalParts)
	assert.True(t, snap.Paused)

	// Resume finishes the remaining parts without re-uploading part one.
	result, err = orch.Resume(context.Background(), "bucket", "big", nil)
	require.NoError(t, err)
	assert.Equal(t, transfertypes.StatusCompleted, result.Status)
	assert.Equal(t, []int32{1, 2, 3}, backend.uploadedParts())

	initiates, completes, _ := backend.counts()
	assert.Equal(t, 1, initiates)
	assert.Equal(t, 1, completes)
}

func TestUploadOnPausedTransferResumes(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	var orch *Orchestrator
	inner := mock.UploadPartFunc
	paused := false
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		out, err := inner(ctx, input, opts...)
		if !paused {
			paused = true
			orch.Pause("bucket", "big")
		}
		return out, err
	}

	orch = newTestOrchestrator(mock, fsys, 1)
	result, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.NoError(t, err)
	require.Equal(t, transfertypes.StatusPaused, result.Status)

	// A second Upload for the same pair continues the registered transfer
	// instead of initiating a new one.
	result, err = orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.NoError(t, err)
	assert.Equal(t, transfertypes.StatusCompleted, result.Status)

	initiates, _, _ := backend.counts()
	assert.Equal(t, 1, initiates)
}

func TestResumeWithUploadIDSkipsStoredParts(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/huge.bin", 22*mib) // parts 1-4 of 5 MiB, part 5 of 2 MiB

	backend := newFakeBackend()
	backend.seedParts(2, 4)
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	orch := newTestOrchestrator(mock, fsys, 3)
	cfg := &transfertypes.UploadConfig{UploadID: "upload-1"}
	result, err := orch.Upload(context.Background(), "bucket", "huge", "data/huge.bin", cfg)
	require.NoError(t, err)
	assert.Equal(t, transfertypes.StatusCompleted, result.Status)

	// Only the gaps were uploaded.
	parts := backend.uploadedParts()
	sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	assert.Equal(t, []int32{1, 3, 5}, parts)

	initiates, completes, _ := backend.counts()
	assert.Equal(t, 0, initiates)
	assert.Equal(t, 1, completes)
}

func TestResumeUnknownTransfer(t *testing.T) {
	mock := &testutil.MockS3Client{}
	orch := newTestOrchestrator(mock, billy.NewInMemoryFS(), 3)

	_, err := orch.Resume(context.Background(), "bucket", "missing", nil)
	assert.ErrorIs(t, err, errors.ErrNoSuchTransfer)
}

func TestPartRetrySucceedsAfterTransientFailures(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	inner := mock.UploadPartFunc
	var mu sync.Mutex
	failures := 0
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		if aws.ToInt32(input.PartNumber) == 2 {
			mu.Lock()
			shouldFail := failures < 2
			if shouldFail {
				failures++
			}
			mu.Unlock()
			if shouldFail {
				return nil, stderrors.New("transient network error")
			}
		}
		return inner(ctx, input, opts...)
	}

	orch := newTestOrchestrator(mock, fsys, 3)
	result, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.NoError(t, err)

	assert.Equal(t, transfertypes.StatusCompleted, result.Status)
	assert.Equal(t, 2, failures)

	// Part two is recorded once despite the failed attempts.
	count := 0
	for _, n := range backend.uploadedParts() {
		if n == 2 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPartRetryExhaustedFailsTransfer(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	inner := mock.UploadPartFunc
	var mu sync.Mutex
	attempts := 0
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		if aws.ToInt32(input.PartNumber) == 2 {
			mu.Lock()
			attempts++
			mu.Unlock()
			return nil, stderrors.New("backend down")
		}
		return inner(ctx, input, opts...)
	}

	orch := newTestOrchestrator(mock, fsys, 3)
	_, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.Error(t, err)

	// One initial attempt plus three retries.
	assert.Equal(t, 4, attempts)

	_, completes, _ := backend.counts()
	assert.Equal(t, 0, completes)

	// Failed transfers keep their state so they can be resumed.
	snap, err := orch.Snapshot("bucket", "big")
	require.NoError(t, err)
	assert.Equal(t, int32(3), snap.TotalParts)
}

func TestResumeAfterFailureFinishesTransfer(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	inner := mock.UploadPartFunc
	var mu sync.Mutex
	failing := true
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		mu.Lock()
		blocked := failing && aws.ToInt32(input.PartNumber) == 3
		mu.Unlock()
		if blocked {
			return nil, stderrors.New("backend down")
		}
		return inner(ctx, input, opts...)
	}

	orch := newTestOrchestrator(mock, fsys, 3)
	_, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.Error(t, err)

	mu.Lock()
	failing = false
	mu.Unlock()

	result, err := orch.Resume(context.Background(), "bucket", "big", nil)
	require.NoError(t, err)
	assert.Equal(t, transfertypes.StatusCompleted, result.Status)

	// Parts one and two survived the failure and were not re-uploaded.
	counts := make(map[int32]int)
	for _, n := range backend.uploadedParts() {
		counts[n]++
	}
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 1, counts[2])
}

func TestAbortMidTransfer(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	var orch *Orchestrator
	inner := mock.UploadPartFunc
	aborted := false
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		out, err := inner(ctx, input, opts...)
		if !aborted {
			aborted = true
			require.NoError(t, orch.Abort(ctx, "bucket", "big"))
		}
		return out, err
	}

	orch = newTestOrchestrator(mock, fsys, 1)
	result, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.NoError(t, err)

	assert.Equal(t, transfertypes.StatusAborted, result.Status)

	// The backend abort was issued exactly once despite the cancellation
	// racing the transfer loop.
	_, completes, aborts := backend.counts()
	assert.Equal(t, 0, completes)
	assert.Equal(t, 1, aborts)

	// Aborted transfers leave no state behind.
	_, err = orch.Snapshot("bucket", "big")
	assert.ErrorIs(t, err, errors.ErrNoSuchTransfer)
}

func TestAbortUnknownTransferIsNoOp(t *testing.T) {
	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	orch := newTestOrchestrator(mock, billy.NewInMemoryFS(), 3)
	require.NoError(t, orch.Abort(context.Background(), "bucket", "nothing"))

	_, _, aborts := backend.counts()
	assert.Equal(t, 0, aborts)
}

func TestFinalizeFailureRetainsStateForRetry(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	innerComplete := mock.CompleteMultipartUploadFunc
	var mu sync.Mutex
	failComplete := true
	mock.CompleteMultipartUploadFunc = func(ctx context.Context, input *s3.CompleteMultipartUploadInput, opts ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
		mu.Lock()
		blocked := failComplete
		mu.Unlock()
		if blocked {
			return nil, stderrors.New("complete rejected")
		}
		return innerComplete(ctx, input, opts...)
	}

	orch := newTestOrchestrator(mock, fsys, 3)
	_, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", nil)
	require.Error(t, err)

	snap, err := orch.Snapshot("bucket", "big")
	require.NoError(t, err)
	assert.Equal(t, int32(3), snap.PartsCompleted)

	mu.Lock()
	failComplete = false
	mu.Unlock()

	// Resume finalizes without re-uploading any part.
	before := len(backend.uploadedParts())
	result, err := orch.Resume(context.Background(), "bucket", "big", nil)
	require.NoError(t, err)
	assert.Equal(t, transfertypes.StatusCompleted, result.Status)
	assert.Len(t, backend.uploadedParts(), before)
}

func TestProgressEvents(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	writeSource(t, fsys, "data/big.bin", 12*mib)

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	var mu sync.Mutex
	var events []transfertypes.ProgressEvent
	cfg := &transfertypes.UploadConfig{
		Progress: func(ev transfertypes.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		},
	}

	orch := newTestOrchestrator(mock, fsys, 1)
	_, err := orch.Upload(context.Background(), "bucket", "big", "data/big.bin", cfg)
	require.NoError(t, err)

	require.NotEmpty(t, events)
	first := events[0]
	assert.Equal(t, transfertypes.StatusUploading, first.Status)
	assert.Equal(t, int64(0), first.BytesTransferred)
	assert.Equal(t, int32(3), first.TotalParts)

	last := events[len(events)-1]
	assert.Equal(t, transfertypes.StatusCompleted, last.Status)
	assert.Equal(t, int64(12*mib), last.BytesTransferred)
	assert.InDelta(t, 100.0, last.Percentage, 0.001)
	assert.Equal(t, int32(3), last.PartsCompleted)

	// Terminal events arrive exactly once and nothing follows them.
	for i, ev := range events {
		if ev.Status == transfertypes.StatusCompleted {
			assert.Equal(t, len(events)-1, i)
		}
		assert.NotEqual(t, transfertypes.StatusAborted, ev.Status)
	}

	// Bytes transferred never decrease.
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].BytesTransferred, events[i-1].BytesTransferred)
	}
}

func TestUploadMissingSource(t *testing.T) {
	mock := &testutil.MockS3Client{}
	orch := newTestOrchestrator(mock, billy.NewInMemoryFS(), 3)

	_, err := orch.Upload(context.Background(), "bucket", "key", "data/absent.bin", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSourceRead)
}

func TestUploadPartBodyMatchesSource(t *testing.T) {
	fsys := billy.NewInMemoryFS()
	size := 5*mib + 100
	writeSource(t, fsys, "data/file.bin", size)

	want := make([]byte, size)
	for i := range want {
		want[i] = byte(i % 251)
	}

	backend := newFakeBackend()
	mock := &testutil.MockS3Client{}
	backend.install(mock)

	inner := mock.UploadPartFunc
	var mu sync.Mutex
	bodies := make(map[int32][]byte)
	mock.UploadPartFunc = func(ctx context.Context, input *s3.UploadPartInput, opts ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
		body, err := io.ReadAll(input.Body)
		require.NoError(t, err)
		mu.Lock()
		bodies[aws.ToInt32(input.PartNumber)] = body
		mu.Unlock()
		return inner(ctx, input, opts...)
	}

	orch := newTestOrchestrator(mock, fsys, 2)
	_, err := orch.Upload(context.Background(), "bucket", "file", "data/file.bin", nil)
	require.NoError(t, err)

	require.Len(t, bodies, 2)
	assert.True(t, bytes.Equal(want[:5*mib], bodies[1]))
	assert.True(t, bytes.Equal(want[5*mib:], bodies[2]))
}
