// Package blobstore is the storage abstraction under image and
// phase-history containers.
//
// A BlobStore opens blobs for positioned reads and creates blobs that
// accept positioned writes in any order. A created blob becomes visible to
// Open only when Close succeeds; Abort discards it. Implementations must
// be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local files, mmap reads, atomic rename on Close
//   - MemoryStore: in-process, for tests and scratch containers
//   - CachingStore: block cache in front of any store
//   - s3.Store: Amazon S3 ranged GETs and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// Object stores cannot take positioned writes; they spool into a
// SpoolBlob and upload on Close.
//
// ReadFull and WriteFull turn short transfers into errors, which every
// caller above this package relies on.
package blobstore
