// Package duplicates answers whether an uploaded image duplicates anything
// already stored in a folder, by exact filename and by fingerprint similarity.
// Both queries are stateless reads over the injected store; nothing is cached
// between calls and nothing is persisted.
package duplicates

import (
	"fmt"
	"sort"

	"imagedup/fingerprint"
	"imagedup/logging"
	"imagedup/types"
)

// DefaultThreshold is the similarity policy applied when the caller has no
// opinion: tolerant of minor recompression and resizing, strict enough to
// reject genuinely different images.
const DefaultThreshold = 0.95

// Store is the read surface the index needs from the persistent store.
// The handle behind it is owned by the caller; the index never opens or
// closes it and never assumes in-memory caching.
type Store interface {
	// FingerprintedImages returns every record in the folder whose
	// fingerprint is present and was computed with the engine's current
	// algorithm version.
	FingerprintedImages(folder string) ([]types.ImageRecord, error)

	// ImagesByFilename returns the records in the folder whose filename
	// equals the given name exactly (case-sensitive).
	ImagesByFilename(folder, filename string) ([]types.ImageRecord, error)
}

// FingerprintWriter is the write surface used to backfill missing hashes
type FingerprintWriter interface {
	SetFingerprint(id int64, fp string) error
}

// engine abstracts the fingerprint functions so tests can pin hash values
type engine interface {
	Compute(data []byte) (string, error)
	Compare(a, b string) (float64, error)
}

// dctEngine is the production engine backed by the fingerprint package
type dctEngine struct{}

func (dctEngine) Compute(data []byte) (string, error) {
	return fingerprint.ComputeFingerprint(data)
}

func (dctEngine) Compare(a, b string) (float64, error) {
	return fingerprint.Compare(a, b)
}

// Index answers similarity and duplicate queries over stored image records
type Index struct {
	store  Store
	engine engine
}

// NewIndex creates a duplicate index over the given store
func NewIndex(store Store) *Index {
	return &Index{store: store, engine: dctEngine{}}
}

// FindSimilar returns the stored images in the folder whose fingerprint is at
// least threshold-similar to fp, best match first. Equal scores order by
// ascending image ID so results are reproducible. Records with a malformed
// stored fingerprint are logged and skipped, never fatal: one corrupt
// historical row must not make duplicate checking unusable for the rest of
// the folder.
//
// This is a linear scan over the folder's records, not an indexed
// nearest-neighbor search. Fine for single-user collections; it is not meant
// to scale to large corpora.
func (ix *Index) FindSimilar(fp string, folder string, threshold float64) ([]types.SimilarImage, error) {
	if threshold < 0.0 || threshold > 1.0 {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("threshold %g outside [0.0, 1.0]", threshold),
		}
	}

	records, err := ix.store.FingerprintedImages(folder)
	if err != nil {
		return nil, fmt.Errorf("cannot read images in folder %q: %v", folder, err)
	}

	var matches []types.SimilarImage
	for _, rec := range records {
		if rec.Fingerprint == nil {
			// The store contract excludes these; guard anyway
			continue
		}

		similarity, err := ix.engine.Compare(fp, *rec.Fingerprint)
		if err != nil {
			logging.LogSkippedFingerprint(rec.ID, err.Error())
			continue
		}

		if similarity >= threshold {
			matches = append(matches, types.SimilarImage{
				ID:          rec.ID,
				Filename:    rec.Filename,
				Fingerprint: *rec.Fingerprint,
				Similarity:  similarity,
			})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].ID < matches[j].ID
	})

	return matches, nil
}

// CheckDuplicates reports the stored images in the folder that the candidate
// bytes appear to duplicate, sorted by similarity descending. Exact filename
// collisions are reported with similarity 1.0 and the stored record's
// existing fingerprint, which may be absent; content matches come from a
// fingerprint similarity scan at the given threshold. Each image ID appears
// at most once: an exact-filename hit is not repeated as a content hit.
//
// An empty result means no duplicate evidence was found, not that the image
// is definitely unique.
func (ix *Index) CheckDuplicates(data []byte, folder, filename string, threshold float64) ([]types.DuplicateMatch, error) {
	matches := []types.DuplicateMatch{}
	seen := make(map[int64]bool)

	// Stage 1: filename collisions count as duplicates regardless of content
	exact, err := ix.store.ImagesByFilename(folder, filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read images in folder %q: %v", folder, err)
	}
	for _, rec := range exact {
		matches = append(matches, types.DuplicateMatch{
			ImageID:     rec.ID,
			Filename:    rec.Filename,
			Folder:      rec.Folder,
			Similarity:  1.0,
			Fingerprint: rec.Fingerprint,
			MatchType:   types.MatchExactFilename,
		})
		seen[rec.ID] = true
	}

	// Stage 2: content similarity. A candidate that cannot be fingerprinted
	// fails the whole check; degrading to filename-only matching would let
	// callers mistake a failed check for a clean one.
	fp, err := ix.engine.Compute(data)
	if err != nil {
		return nil, err
	}

	similar, err := ix.FindSimilar(fp, folder, threshold)
	if err != nil {
		return nil, err
	}
	for _, hit := range similar {
		if seen[hit.ID] {
			continue
		}
		storedFp := hit.Fingerprint
		matches = append(matches, types.DuplicateMatch{
			ImageID:     hit.ID,
			Filename:    hit.Filename,
			Folder:      folder,
			Similarity:  hit.Similarity,
			Fingerprint: &storedFp,
			MatchType:   types.MatchSimilarContent,
		})
		seen[hit.ID] = true
	}

	// Stable keeps exact-filename hits ahead of content hits scoring 1.0
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	return matches, nil
}

// Backfill computes the fingerprint for a stored image's bytes and writes it
// through the store, for records accepted before hashing existed or whose
// hash computation failed at upload time. Returns the computed fingerprint.
func (ix *Index) Backfill(w FingerprintWriter, id int64, data []byte) (string, error) {
	fp, err := ix.engine.Compute(data)
	if err != nil {
		return "", err
	}

	if err := w.SetFingerprint(id, fp); err != nil {
		return "", fmt.Errorf("cannot store fingerprint for image %d: %v", id, err)
	}

	return fp, nil
}
