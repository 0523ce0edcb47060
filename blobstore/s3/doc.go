// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
//	store, err := s3.New(ctx, "imagery", "collects/2026/")
//	db := sarstore.Open(store)
//
// Reads are ranged GETs, so window reads fetch only the rows they touch.
// Writes are spooled to a local file, because a window writer delivers
// tiles out of order, and uploaded with the multipart manager on Close.
package s3
