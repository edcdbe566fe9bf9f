// Package gateway adapts the S3 wire protocol to the semantic operations the
// upload orchestrator consumes: simple put, initiate, list completed parts,
// upload part, complete, and abort.
package gateway

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/transfertypes"
)

// Gateway wraps an S3 client behind the semantic operations of the transfer
// protocol. All bucket/key/upload-ID marshaling happens here so the
// orchestrator never touches SDK input types.
type Gateway struct {
	api s3api.S3API
}

// New creates a new Gateway backed by the given S3 client.
func New(api s3api.S3API) *Gateway {
	return &Gateway{api: api}
}

// PutObject uploads data in a single request. Used for sources below the
// multipart threshold.
func (g *Gateway) PutObject(
	ctx context.Context,
	bucket, key string,
	data []byte,
	cfg *transfertypes.UploadConfig,
) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	applyObjectConfig(cfg, func(contentType string) {
		input.ContentType = aws.String(contentType)
	}, func(metadata map[string]string) {
		input.Metadata = metadata
	}, func(class awstypes.StorageClass) {
		input.StorageClass = class
	})

	output, err := g.api.PutObject(ctx, input)
	if err != nil {
		return "", errors.NewObjectError("putObject", bucket, key, err)
	}
	return aws.ToString(output.ETag), nil
}

// Initiate requests a new multipart upload identity from the backend.
func (g *Gateway) Initiate(
	ctx context.Context,
	bucket, key string,
	cfg *transfertypes.UploadConfig,
) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	applyObjectConfig(cfg, func(contentType string) {
		input.ContentType = aws.String(contentType)
	}, func(metadata map[string]string) {
		input.Metadata = metadata
	}, func(class awstypes.StorageClass) {
		input.StorageClass = class
	})

	output, err := g.api.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", errors.NewObjectError("initiate", bucket, key, err)
	}
	return aws.ToString(output.UploadId), nil
}

// ListCompletedParts returns every part durably stored under the upload ID,
// ascending by part number. The listing is paginated; all pages are drained.
func (g *Gateway) ListCompletedParts(
	ctx context.Context,
	bucket, key, uploadID string,
) ([]transfertypes.CompletedPart, error) {
	var parts []transfertypes.CompletedPart
	var marker *string

	for {
		input := &s3.ListPartsInput{
			Bucket:           aws.String(bucket),
			Key:              aws.String(key),
			UploadId:         aws.String(uploadID),
			PartNumberMarker: marker,
		}

		output, err := g.api.ListParts(ctx, input)
		if err != nil {
			return nil, errors.NewObjectError("listParts", bucket, key, err)
		}

		for _, p := range output.Parts {
			parts = append(parts, transfertypes.CompletedPart{
				Number: aws.ToInt32(p.PartNumber),
				ETag:   aws.ToString(p.ETag),
			})
		}

		if !aws.ToBool(output.IsTruncated) {
			break
		}
		marker = output.NextPartNumberMarker
	}

	return parts, nil
}

// UploadPart uploads one part and returns the backend-issued tag.
func (g *Gateway) UploadPart(
	ctx context.Context,
	bucket, key, uploadID string,
	number int32,
	data []byte,
) (string, error) {
	input := &s3.UploadPartInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		UploadId:      aws.String(uploadID),
		PartNumber:    aws.Int32(number),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}

	output, err := g.api.UploadPart(ctx, input)
	if err != nil {
		return "", errors.NewObjectError("uploadPart", bucket, key, err)
	}
	return aws.ToString(output.ETag), nil
}

// Complete finalizes the multipart upload. The part list must be sorted
// ascending by part number; the caller guarantees that.
func (g *Gateway) Complete(
	ctx context.Context,
	bucket, key, uploadID string,
	parts []transfertypes.CompletedPart,
) (string, error) {
	completed := make([]awstypes.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, awstypes.CompletedPart{
			PartNumber: aws.Int32(p.Number),
			ETag:       aws.String(p.ETag),
		})
	}

	input := &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	}

	output, err := g.api.CompleteMultipartUpload(ctx, input)
	if err != nil {
		return "", errors.NewObjectError("complete", bucket, key, err)
	}
	return aws.ToString(output.ETag), nil
}

// Abort releases the backend resources held for the upload ID.
func (g *Gateway) Abort(ctx context.Context, bucket, key, uploadID string) error {
	input := &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	}

	if _, err := g.api.AbortMultipartUpload(ctx, input); err != nil {
		return errors.NewObjectError("abort", bucket, key, err)
	}
	return nil
}

// applyObjectConfig maps the optional upload configuration onto an SDK input
// through the given setters. PutObject and CreateMultipartUpload share the
// same optional fields but not an input type.
func applyObjectConfig(
	cfg *transfertypes.UploadConfig,
	setContentType func(string),
	setMetadata func(map[string]string),
	setStorageClass func(awstypes.StorageClass),
) {
	if cfg == nil {
		return
	}
	if cfg.ContentType != "" {
		setContentType(cfg.ContentType)
	}
	if len(cfg.Metadata) > 0 {
		setMetadata(cfg.Metadata)
	}
	if cfg.StorageClass != "" {
		setStorageClass(awstypes.StorageClass(cfg.StorageClass))
	}
}
