package cache

import (
	"context"
)

// CacheKind separates key spaces.
type CacheKind uint8

const (
	CacheKindUnknown CacheKind = iota
	CacheKindBlob              // raw byte ranges of a stored blob
	CacheKindDecoded           // decompressed image blocks
)

// CacheKey identifies one cached block.
type CacheKey struct {
	Kind CacheKind
	// Path names the blob the block came from.
	Path string
	// Offset is a block index or byte offset inside Path, depending on Kind.
	Offset uint64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(ctx context.Context, key CacheKey) (b []byte, ok bool)
	// Set caches a block. Implementations may retain b; the caller must not
	// modify it afterwards.
	Set(ctx context.Context, key CacheKey, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key CacheKey) bool)
	Close() error
	Stats() (hits, misses int64)
}

// ForPath matches every entry of the blob name.
func ForPath(name string) func(CacheKey) bool {
	return func(k CacheKey) bool { return k.Path == name }
}
