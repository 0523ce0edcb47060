package sarstore

import (
	"context"
	"errors"

	"github.com/hupe1980/sarstore/blobstore"
	"github.com/hupe1980/sarstore/config"
	"github.com/hupe1980/sarstore/errs"
	"github.com/hupe1980/sarstore/internal/cache"
	"github.com/hupe1980/sarstore/manifest"
	"github.com/hupe1980/sarstore/resource"
)

// DB manages image and phase-history containers in a blob store. A DB is
// safe for concurrent use; the readers and writers it hands out are not
// shared between goroutines unless their documentation says so.
type DB struct {
	store     blobstore.BlobStore
	manifests *manifest.Store
	cache     cache.BlockCache
	rc        *resource.Controller
	opts      options
}

// Open returns a DB over store. The configuration is validated.
func Open(store blobstore.BlobStore, optFns ...Option) (*DB, error) {
	if store == nil {
		return nil, errs.InvalidDimension("open", "nil blob store")
	}
	o := applyOptions(optFns)
	if err := o.profile.Validate(); err != nil {
		return nil, err
	}

	rc := o.rc
	if rc == nil && hasLimits(o.profile.Resources) {
		rc = resource.NewController(o.profile.Resources)
	}

	db := &DB{
		store: store,
		rc:    rc,
		opts:  o,
	}
	if o.profile.CacheBytes > 0 {
		db.cache = cache.NewShardedLRUBlockCache(o.profile.CacheBytes, rc)
	}
	if o.blobCache {
		if db.cache == nil {
			return nil, errs.InvalidDimension("open", "caching store needs a positive cache size")
		}
		db.store = blobstore.NewCachingStore(store, db.cache, o.blobCacheBlock)
	}
	db.manifests = manifest.NewStore(db.store, o.manifestCodec)
	return db, nil
}

func hasLimits(c resource.Config) bool {
	return c.MemoryLimitBytes > 0 || c.IOLimitBytesPerSec > 0 || c.MaxWorkers > 1
}

// Profile returns a copy of the effective configuration.
func (db *DB) Profile() config.Profile { return *db.opts.profile }

// ResourceController returns the controller shared by readers and writers,
// or nil when no limits are configured.
func (db *DB) ResourceController() *resource.Controller { return db.rc }

// List returns the names of finalized containers under prefix.
func (db *DB) List(ctx context.Context, prefix string) ([]string, error) {
	return db.manifests.List(ctx, prefix)
}

// Delete removes a container, its manifest and any leftover staging blob.
func (db *DB) Delete(ctx context.Context, name string) error {
	if err := db.manifests.Delete(ctx, name); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return err
	}
	if db.cache != nil {
		db.cache.Invalidate(cache.ForPath(name))
	}
	for _, blob := range []string{name, name + StagingSuffix} {
		if err := db.store.Delete(ctx, blob); err != nil && !errors.Is(err, blobstore.ErrNotFound) {
			return err
		}
	}
	return nil
}

// Close releases every cached block.
func (db *DB) Close() error {
	if db.cache != nil {
		return db.cache.Close()
	}
	return nil
}
