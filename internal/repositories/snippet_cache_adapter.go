package repositories

import (
	"github.com/desertthunder/snipx/internal/models"
)

// CacheAdapter implements tasks.Cacher using [SnippetCacheRepository] and [LanguageRepository].
type CacheAdapter struct {
	snippets  *SnippetCacheRepository
	languages *LanguageRepository
}

// NewCacheAdapter creates a new CacheAdapter with the given repositories
func NewCacheAdapter(snippets *SnippetCacheRepository, languages *LanguageRepository) *CacheAdapter {
	return &CacheAdapter{snippets: snippets, languages: languages}
}

// CacheSnippets replaces the cached list for origin.
func (a *CacheAdapter) CacheSnippets(origin models.Origin, snippets []models.Snippet) error {
	return a.snippets.ReplaceOrigin(origin, snippets)
}

// CacheLanguages replaces the cached language list. An empty list keeps the previous one.
func (a *CacheAdapter) CacheLanguages(langs []models.Language) error {
	if len(langs) == 0 {
		return nil
	}
	return a.languages.ReplaceAll(langs)
}
