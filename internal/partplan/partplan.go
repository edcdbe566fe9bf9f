// Package partplan computes the part layout for chunked transfers.
//
// The planner is pure arithmetic: given a file size and a fixed part size it
// yields the ordered sequence of 1-based part numbers and their byte ranges.
// It is undefined for sizes <= 0; empty and sub-threshold files never reach
// the chunked path.
package partplan

// MinPartSize is the smallest part size S3 accepts for any part other than
// the last one.
const MinPartSize = 5 * 1024 * 1024

// Part describes one contiguous byte range of the source file, uploaded as an
// independent unit.
type Part struct {
	// Number is the 1-based part index
	Number int32

	// Offset is the byte offset of the part within the source
	Offset int64

	// Length is the part length in bytes; equals the part size for every part
	// except possibly the last
	Length int64
}

// Count returns the number of parts needed to cover size bytes.
func Count(size, partSize int64) int32 {
	return int32((size + partSize - 1) / partSize)
}

// Describe returns the byte range for the given part number.
func Describe(number int32, size, partSize int64) Part {
	offset := int64(number-1) * partSize
	length := partSize
	if offset+length > size {
		length = size - offset
	}
	return Part{
		Number: number,
		Offset: offset,
		Length: length,
	}
}
