package search

import (
	"sort"

	"github.com/mvarkas/memex/internal/models"
)

// rrfK is the reciprocal-rank-fusion smoothing constant. k=60 is the
// conventional value used across search engines.
const rrfK = 60

type fusedNote struct {
	note  *models.Note
	score float64
	// first rank at which the note was seen, for deterministic tie-breaks
	firstRank int
}

func noteKey(n *models.Note) string {
	return n.Vault + "\x00" + n.Path
}

// dedupeNotes removes duplicate (vault, path) entries from a ranking,
// first occurrence wins.
func dedupeNotes(in []*models.Note) []*models.Note {
	seen := make(map[string]struct{}, len(in))
	out := make([]*models.Note, 0, len(in))
	for _, n := range in {
		k := noteKey(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}

// rrfFuse merges two rankings with reciprocal rank fusion: each note
// scores the sum of 1/(k+rank) over the rankings it appears in, and the
// merged list is ordered by descending fused score. Notes present in
// only one ranking score from that ranking alone.
func rrfFuse(lexical, semantic []*models.Note) []*models.Note {
	fused := make(map[string]*fusedNote, len(lexical)+len(semantic))

	accumulate := func(ranking []*models.Note) {
		for i, n := range ranking {
			rank := i + 1
			k := noteKey(n)
			f, ok := fused[k]
			if !ok {
				f = &fusedNote{note: n, firstRank: rank}
				fused[k] = f
			}
			f.score += 1 / float64(rrfK+rank)
			if rank < f.firstRank {
				f.firstRank = rank
			}
		}
	}
	accumulate(lexical)
	accumulate(semantic)

	out := make([]*fusedNote, 0, len(fused))
	for _, f := range fused {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		if out[i].firstRank != out[j].firstRank {
			return out[i].firstRank < out[j].firstRank
		}
		return noteKey(out[i].note) < noteKey(out[j].note)
	})

	notes := make([]*models.Note, len(out))
	for i, f := range out {
		notes[i] = f.note
	}
	return notes
}
