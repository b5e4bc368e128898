package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/mvarkas/memex/internal/checksum"
	"github.com/mvarkas/memex/internal/embed"
	"github.com/mvarkas/memex/internal/parser"
	"github.com/mvarkas/memex/internal/storage"
)

// Stats aggregates the outcome of one vault indexing pass.
type Stats struct {
	Added        int `json:"added"`
	Updated      int `json:"updated"`
	Unchanged    int `json:"unchanged"`
	Deleted      int `json:"deleted"`
	Errors       int `json:"errors"`
	TotalInVault int `json:"total_in_vault"`
}

// Changed reports whether the pass mutated the index.
func (s Stats) Changed() bool {
	return s.Added > 0 || s.Updated > 0 || s.Deleted > 0
}

// ProgressFunc is invoked once per vault by IndexAllVaults.
type ProgressFunc func(vault string, stats Stats)

// IndexVault brings the index for one vault up to date with the files
// on disk:
//   - files absent from the index are parsed and added
//   - files whose mtime drifted are re-read; if the content hash is
//     unchanged only the stored mtime is refreshed, otherwise the note
//     is re-indexed and re-embedded
//   - files with a matching mtime are skipped without being read
//   - index entries whose files vanished are deleted
//
// Embeddings are recomputed only for added/updated notes. An embedding
// failure is logged and never blocks lexical indexing of the note.
func IndexVault(ctx context.Context, db *DB, embedder embed.Embedder, vault, root string, logger *slog.Logger) Stats {
	var stats Stats

	store, err := storage.NewFS(root)
	if err != nil {
		logger.Warn("index: vault unreadable", slog.String("vault", vault), slog.String("error", err.Error()))
		return Stats{Errors: 1}
	}

	metas, err := store.List()
	if err != nil {
		logger.Warn("index: list failed", slog.String("vault", vault), slog.String("error", err.Error()))
		return Stats{Errors: 1}
	}

	indexed, err := db.IndexedMtimes(vault)
	if err != nil {
		logger.Warn("index: load mtimes failed", slog.String("vault", vault), slog.String("error", err.Error()))
		return Stats{Errors: 1}
	}

	stats.TotalInVault = len(metas)
	disk := make(map[string]struct{}, len(metas))

	for _, m := range metas {
		disk[m.Path] = struct{}{}

		storedMtime, known := indexed[m.Path]
		if known && storedMtime == m.Mtime {
			stats.Unchanged++
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("index: read failed", slog.String("vault", vault), slog.String("path", m.Path), slog.String("error", err.Error()))
			stats.Errors++
			continue
		}

		hash := checksum.Sum(data)
		if known {
			stored, err := db.GetContentHash(vault, m.Path)
			if err == nil && stored == hash {
				// mtime drifted but content didn't; refresh the marker
				// so the next pass skips the file entirely.
				if err := db.UpdateMtime(vault, m.Path, m.Mtime); err != nil {
					logger.Warn("index: mtime refresh failed", slog.String("vault", vault), slog.String("path", m.Path), slog.String("error", err.Error()))
				}
				stats.Unchanged++
				continue
			}
		}

		res, err := parser.Parse(data, filepath.Base(m.Path))
		if err != nil {
			logger.Warn("index: parse failed", slog.String("vault", vault), slog.String("path", m.Path), slog.String("error", err.Error()))
			stats.Errors++
			continue
		}
		if err := db.UpsertNote(vault, m.Path, res, m.Mtime, hash); err != nil {
			logger.Warn("index: upsert failed", slog.String("vault", vault), slog.String("path", m.Path), slog.String("error", err.Error()))
			stats.Errors++
			continue
		}
		if known {
			stats.Updated++
		} else {
			stats.Added++
		}

		embedNote(ctx, db, embedder, vault, m.Path, res, logger)
	}

	// Remove entries whose files vanished from disk.
	for p := range indexed {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.DeleteNote(vault, p); err != nil {
			logger.Warn("index: delete failed", slog.String("vault", vault), slog.String("path", p), slog.String("error", err.Error()))
			stats.Errors++
			continue
		}
		stats.Deleted++
	}

	return stats
}

// embedNote computes and stores the embedding for one note. Failures
// degrade semantic search for the note but leave its lexical index intact.
func embedNote(ctx context.Context, db *DB, embedder embed.Embedder, vault, path string, res *parser.Result, logger *slog.Logger) {
	if embedder == nil {
		return
	}
	vec, err := embedder.Embed(ctx, res.Title+"\n\n"+res.Body)
	if err != nil {
		logger.Warn("index: embed failed", slog.String("vault", vault), slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	rowID, err := db.NoteRowID(vault, path)
	if err != nil {
		logger.Warn("index: rowid lookup failed", slog.String("vault", vault), slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if err := db.UpsertEmbedding(rowID, vec); err != nil {
		logger.Warn("index: store embedding failed", slog.String("vault", vault), slog.String("path", path), slog.String("error", err.Error()))
	}
}

// IndexAllVaults runs IndexVault for each configured vault. One vault's
// failure never blocks the others. Vaults are processed in sorted order
// for deterministic progress reporting.
func IndexAllVaults(ctx context.Context, db *DB, embedder embed.Embedder, vaults map[string]string, logger *slog.Logger, onProgress ProgressFunc) map[string]Stats {
	ids := make([]string, 0, len(vaults))
	for id := range vaults {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string]Stats, len(ids))
	for _, id := range ids {
		stats := IndexVault(ctx, db, embedder, id, vaults[id], logger)
		out[id] = stats
		if stats.Changed() {
			logger.Info("index: vault synced",
				slog.String("vault", id),
				slog.Int("added", stats.Added),
				slog.Int("updated", stats.Updated),
				slog.Int("deleted", stats.Deleted))
		}
		if onProgress != nil {
			onProgress(id, stats)
		}
	}
	return out
}
