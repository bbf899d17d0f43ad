package main

import (
	"context"

	"github.com/urfave/cli/v3"
)

// CacheList prints how many snippets are cached per origin and when they were fetched.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	summary, err := r.cache.Summary()
	if err != nil {
		return err
	}
	langs, err := r.languages.List()
	if err != nil {
		return err
	}

	r.writePlainHeader("Snippet cache")
	if len(summary) == 0 {
		r.writePlain("Cache is empty. Run 'snipx snippets list' to fill it.\n")
	}
	for _, s := range summary {
		r.writePlain("%-8s %4d  cached %s\n", s.Origin, s.Count, s.CachedAt.Local().Format(listTimeLayout))
	}
	return r.writePlain("languages %d\n", len(langs))
}

// CacheClear removes every cached snippet.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	n, err := r.cache.Clear()
	if err != nil {
		return err
	}
	r.logger.Info("snippet cache cleared", "rows", n)
	return r.writePlain("✓ Removed %d cached snippets\n", n)
}
