// Package mmap maps container files read-only so LocalStore can serve
// window reads and manifest loads without copying.
//
//	m, err := mmap.Open("scene")
//	if err != nil { ... }
//	defer m.Close()
//	seg, _ := m.Section(off, size) // one image segment, zero-copy
//
// Unix uses mmap(2) with MADV_RANDOM. Windows uses MapViewOfFile.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but slices
// from Bytes or Section must not be touched after Close returns.
package mmap
