// Package cache provides LRU caching for immutable blocks read from blob
// stores: raw byte ranges of remote containers and decompressed image
// blocks.
//
// LRUBlockCache is a single-mutex LRU bounded in bytes.
// ShardedLRUBlockCache spreads keys over 64 of them for concurrent window
// reads. Both charge their memory to an optional resource.Controller and
// skip caching rather than block when the controller is at its limit.
package cache
