// Package transfer provides an upload orchestration engine for Amazon S3 and
// S3-compatible backends.
//
// Sources below the multipart threshold are uploaded in a single request.
// Larger sources are split into fixed-size parts and uploaded with bounded
// concurrency, with per-part retry and exponential backoff. Chunked transfers
// can be paused, resumed, and aborted; partial progress survives pauses and
// failures, and resuming re-seeds the completed part set from the backend so
// no durably stored part is ever uploaded twice.
//
// Example:
//
//	client, err := transfer.New(
//	    transfer.WithRegion("us-west-2"),
//	    transfer.WithMaxConcurrentParts(5),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := client.UploadFile(ctx, "my-bucket", "backups/archive.tar", "/data/archive.tar",
//	    transfer.WithProgress(func(ev transfertypes.ProgressEvent) {
//	        fmt.Printf("%s: %.1f%%\n", ev.Key, ev.Percentage)
//	    }),
//	)
package transfer
