// Package fs is the file system seam under blobstore.LocalStore.
//
// A LocalStore stages every blob in a temporary file, syncs it and renames
// it into place. [Default] does that on the local disk; [FaultyFS] wraps
// any FileSystem and fails writes, syncs or closes so tests can check that
// a failed finalize leaves no published container behind:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".staging", fs.Fault{FailAfterBytes: 1 << 20})
//	store := blobstore.NewLocalStore(dir, blobstore.WithFileSystem(ffs))
//
// There are no context.Context parameters: local syscalls are not
// interruptible, so cancellation is checked one layer up in blobstore.
package fs
