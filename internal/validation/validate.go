// Package validation provides centralized input validation logic.
// Bucket names, object keys, and user metadata are validated before any
// request leaves the client.
package validation

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/aws/transfer/errors"
)

const (
	maxKeyLength           = 1024
	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
)

// ValidateBucketName validates that a bucket name is DNS-compliant according
// to S3 naming rules.
func ValidateBucketName(bucket string) error {
	fail := func(message string) error {
		return errors.NewError("validateBucketName", errors.ErrInvalidBucketName).
			WithBucket(bucket).
			WithMessage(message)
	}

	if len(bucket) < 3 || len(bucket) > 63 {
		return fail("bucket name must be between 3 and 63 characters long")
	}
	for i := 0; i < len(bucket); i++ {
		c := bucket[i]
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '.' && c != '-' {
			return fail("bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
		if i > 0 && (c == '.' || c == '-') && (bucket[i-1] == '.' || bucket[i-1] == '-') {
			return fail("bucket name cannot contain adjacent dots or hyphens")
		}
	}
	if first := bucket[0]; first == '.' || first == '-' || (first >= '0' && first <= '9') {
		return fail("bucket name must start with a lowercase letter")
	}
	if last := bucket[len(bucket)-1]; last == '.' || last == '-' {
		return fail("bucket name cannot end with a dot or hyphen")
	}
	if looksLikeIPAddress(bucket) {
		return fail("bucket name cannot be formatted as an IP address")
	}
	return nil
}

// ValidateObjectKey validates that an object key is valid according to S3
// rules, including preventing path traversal.
func ValidateObjectKey(key string) error {
	fail := func(message string) error {
		return errors.NewError("validateObjectKey", errors.ErrInvalidObjectKey).
			WithKey(key).
			WithMessage(message)
	}

	if key == "" {
		return fail("object key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return fail("object key cannot exceed 1024 characters")
	}
	if hasPathTraversal(key) {
		return fail("object key cannot contain path traversal sequences")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return fail("object key cannot contain control characters")
		}
	}
	return nil
}

// ValidateMetadata validates user metadata keys and values according to S3
// rules.
func ValidateMetadata(metadata map[string]string) error {
	fail := func(message string) error {
		return errors.NewError("validateMetadata", errors.ErrInvalidInput).WithMessage(message)
	}

	for k, v := range metadata {
		if k == "" {
			return fail("metadata key cannot be empty")
		}
		if len(k) > maxMetadataKeyLength {
			return fail("metadata key cannot exceed 128 characters")
		}
		lower := strings.ToLower(k)
		if strings.HasPrefix(lower, "aws:") || strings.HasPrefix(lower, "x-amz-") {
			return fail("metadata key cannot use a reserved prefix")
		}
		for _, r := range k {
			if r < 32 || r > 126 {
				return fail("metadata key can only contain printable ASCII characters")
			}
		}
		if len(v) > maxMetadataValueLength {
			return fail("metadata value cannot exceed 2048 characters")
		}
		for _, r := range v {
			if unicode.IsControl(r) && r != '\n' && r != '\t' {
				return fail("metadata value cannot contain control characters")
			}
		}
	}
	return nil
}

// looksLikeIPAddress reports whether the name is four dot-separated numeric
// octets in range.
func looksLikeIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		n := 0
		for _, c := range part {
			if c < '0' || c > '9' {
				return false
			}
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

// hasPathTraversal checks for path traversal attempts in object keys.
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}
	cleaned := filepath.Clean(key)
	return strings.HasPrefix(cleaned, "..") || strings.HasPrefix(cleaned, "/")
}
