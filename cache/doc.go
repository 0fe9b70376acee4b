// Package cache is the read-through cache in front of the record store.
//
// # Overview
//
// Store is the backend contract: byte values with per-key expiry plus a tag
// index. Two backends ship with the package, selected through Config:
//
//   - memory: an in-process sturdyc cache (default)
//   - redis: a shared Redis instance
//
// Layer wraps a Store and is the only type the rest of the module talks to.
// It never returns backend errors. A failed Get is a miss, a failed Set is
// logged and forgotten.
//
// # Keys and tags
//
// Keys are built from segments joined with KeySeparator:
//
//	book::<id>                   one book view
//	book::isbn::<isbn>           a view found by a unique field
//	books                        the full listing
//	books::status::available     a filtered listing
//
// Every cached value is registered under tags. EntityTag(kind, id) groups
// the views that embed an entity, CollectionTag(kind) groups the listings
// of a kind. Writers invalidate tags instead of guessing keys:
//
//	layer.InvalidateTags(ctx,
//		cache.EntityTag(model.KindBook, book.ID),
//		cache.CollectionTag(model.KindBook),
//	)
//
// # Read-through
//
// GetOrFetch decodes a hit with json-iterator, or calls the fetch function,
// encodes the result and fills the cache:
//
//	view, err := cache.GetOrFetch(ctx, layer, cache.EntityKey(model.KindBook, id),
//		func(v BookView) []string { return v.Tags() },
//		func(ctx context.Context) (BookView, error) { return load(ctx, id) },
//	)
//
// Fills are guarded by an invalidation epoch so a slow read cannot write a
// value that a concurrent mutation has already invalidated.
package cache
