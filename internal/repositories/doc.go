// Package repositories implements SQLite persistence for the client's local state.
//
// Key Implementations:
//   - [StorageRepository] : key/value store backing the persisted session (isLoggedIn, userName)
//   - [SnippetCacheRepository] : last-fetched snippet lists, replaced wholesale per origin
//   - [LanguageRepository] : language enum values in server order
//   - [CacheAdapter] : combines the two caches behind the view-model's cache hook
//
// Writes that replace a whole set of rows run inside a single transaction via [withTx].
package repositories
