package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IngestProgress is invoked as ingestion advances; cmd wires it to
// terminal output, tests to a recorder.
type IngestProgress func(file string, chunks int)

// Ingester walks a corpus directory, chunks each document and feeds
// the chunks into the store one embedding request at a time. The first
// inference failure aborts the whole run and nothing is saved.
type Ingester struct {
	store   *EmbeddingStore
	chunker Chunker
}

func NewIngester(store *EmbeddingStore, chunker Chunker) *Ingester {
	return &Ingester{store: store, chunker: chunker}
}

// IngestDir ingests every .md and .txt file under dir, honoring a
// .askignore file when present. It returns the number of files
// processed and chunks added.
func (ing *Ingester) IngestDir(ctx context.Context, dir string, progress IngestProgress) (files, chunks int, err error) {
	matcher, err := NewIgnoreMatcher(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", IgnoreFilename, err)
	}

	err = filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if !isCorpusFile(info.Name()) || matcher.Match(path) {
			return nil
		}

		added, err := ing.ingestFile(ctx, path)
		if err != nil {
			return err
		}

		files++
		chunks += added
		if progress != nil {
			progress(path, added)
		}

		return nil
	})
	if err != nil {
		return files, chunks, err
	}

	return files, chunks, nil
}

func (ing *Ingester) ingestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return 0, nil
	}

	added := 0
	for _, chunk := range ing.chunker.Chunk(string(data)) {
		if err := ing.store.AddDocument(ctx, chunk, path); err != nil {
			return added, fmt.Errorf("ingest %s: %w", path, err)
		}
		added++
	}

	return added, nil
}

func isCorpusFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".txt":
		return true
	}
	return false
}
