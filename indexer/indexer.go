// Package indexer ingests a directory of images into a named collection,
// fingerprinting each file with a bounded worker pool.
package indexer

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"imagedup/database"
	"imagedup/fingerprint"
	"imagedup/logging"
	"imagedup/types"
)

// Options defines the options for an indexing run
type Options struct {
	FolderPath string
	Collection string
	DebugMode  bool
	MaxWorkers int
}

// fileResult holds the outcome of processing one file
type fileResult struct {
	Path    string
	Success bool
	Err     error
}

// Summary reports what an indexing run accomplished
type Summary struct {
	Indexed  int
	Failed   int
	Duration time.Duration
}

// IndexFolder walks options.FolderPath, fingerprints every supported image
// file and stores a record for each in options.Collection. Files that fail
// to decode are logged and skipped; they never abort the batch.
func IndexFolder(store *database.Store, options Options) (*Summary, error) {
	paths, err := collectImageFiles(options.FolderPath)
	if err != nil {
		return nil, fmt.Errorf("cannot walk folder %s: %v", options.FolderPath, err)
	}

	if options.DebugMode {
		logging.DebugLog("Indexing %d image files from %s into collection %q",
			len(paths), options.FolderPath, options.Collection)
	}

	workers := options.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	resultsChan := make(chan fileResult, len(paths))
	semaphore := make(chan struct{}, workers)

	startTime := time.Now()

	for _, path := range paths {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(p string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			id, err := indexFile(store, p, options.Collection)
			if err != nil {
				logging.LogWarning("Failed to index %s: %v", p, err)
				resultsChan <- fileResult{Path: p, Success: false, Err: err}
				return
			}

			if options.DebugMode {
				logging.DebugLog("Indexed %s as image %d", p, id)
			}
			resultsChan <- fileResult{Path: p, Success: true}
		}(path)
	}

	wg.Wait()
	close(resultsChan)

	summary := &Summary{Duration: time.Since(startTime)}
	for result := range resultsChan {
		if result.Success {
			summary.Indexed++
		} else {
			summary.Failed++
		}
	}

	return summary, nil
}

// indexFile fingerprints one file and stores its record
func indexFile(store *database.Store, path, collection string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	fp, width, height, err := fingerprint.Analyze(data)
	if err != nil {
		return 0, err
	}

	rec := types.ImageRecord{
		Filename:    filepath.Base(path),
		Folder:      collection,
		Format:      string(fingerprint.GetFileFormat(path)),
		Width:       width,
		Height:      height,
		Size:        int64(len(data)),
		Fingerprint: &fp,
	}

	return store.InsertImage(rec)
}

// collectImageFiles lists the supported image files under root
func collectImageFiles(root string) ([]string, error) {
	var paths []string

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Skip files that can't be accessed
			logging.LogWarning("Cannot access %s: %v", path, err)
			return nil
		}
		if !info.IsDir() && fingerprint.IsImageFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}
