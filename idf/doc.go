// Package idf builds and caches the inverse document frequency table of the
// reference corpus.
//
// The Cache keeps the table in memory and, optionally, in a durable Store.
// Rebuilds are serialized inside a process by the cache's mutex and across
// processes by a build Marker in the cache directory:
//
//	store, _ := idf.NewFileStore(dir)
//	marker, _ := idf.NewMarker(dir)
//	cache, _ := idf.NewCache(builder, idf.WithStore(store), idf.WithMarker(marker))
//	table, err := cache.Get(ctx, idf.GetOptions{})
package idf
