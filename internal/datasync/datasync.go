// Package datasync exports and imports the content collections as YAML for
// backup and migration between deployments.
package datasync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/az-math/azmath/internal/store"
)

// Source reads documents out of a store.
type Source interface {
	Query(ctx context.Context, collection string, filter store.Filter, orderDesc bool) ([]store.Document, error)
}

// Sink writes documents into a store in bulk.
type Sink interface {
	PutAll(ctx context.Context, collection string, docs []store.Document) error
}

// CounterSink raises the numeric-ID counters. Sinks that implement it get
// their counters reconciled after an import, so later allocations cannot
// collide with imported documents.
type CounterSink interface {
	EnsureLatestID(ctx context.Context, kind string, id int64) error
}

// record is the YAML shape of one exported document.
type record struct {
	ID   string         `yaml:"id"`
	Data map[string]any `yaml:"data"`
}

var collections = []string{store.CollectionLessons, store.CollectionProblems}

// Export writes every document of both collections, drafts included, into
// one YAML file per collection under outputDir.
func Export(ctx context.Context, source Source, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	for _, collection := range collections {
		docs, err := source.Query(ctx, collection, store.Filter{}, false)
		if err != nil {
			return fmt.Errorf("query %s: %w", collection, err)
		}

		records := make([]record, 0, len(docs))
		for _, doc := range docs {
			var data map[string]any
			if err := json.Unmarshal(doc.Body, &data); err != nil {
				return fmt.Errorf("decode document %s/%s: %w", collection, doc.ID, err)
			}
			records = append(records, record{ID: doc.ID, Data: data})
		}

		if err := writeYAML(filepath.Join(outputDir, collection+".yml"), records); err != nil {
			return fmt.Errorf("write %s.yml: %w", collection, err)
		}
	}
	return nil
}

// Import reads the YAML files written by Export and upserts every document.
// When the sink is also a CounterSink, each numeric-ID counter is raised to
// the highest imported ID so subsequent creates cannot overwrite an imported
// document.
func Import(ctx context.Context, sink Sink, inputDir string) error {
	for _, collection := range collections {
		path := filepath.Join(inputDir, collection+".yml")
		records, err := readYAML(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var maxID int64
		docs := make([]store.Document, 0, len(records))
		for _, rec := range records {
			body, err := json.Marshal(rec.Data)
			if err != nil {
				return fmt.Errorf("encode document %s/%s: %w", collection, rec.ID, err)
			}
			docs = append(docs, store.Document{ID: rec.ID, Body: body})
			if id, err := strconv.ParseInt(rec.ID, 10, 64); err == nil && id > maxID {
				maxID = id
			}
		}

		if err := sink.PutAll(ctx, collection, docs); err != nil {
			return fmt.Errorf("import %s: %w", collection, err)
		}
		if counters, ok := sink.(CounterSink); ok && maxID > 0 {
			if err := counters.EnsureLatestID(ctx, collection, maxID); err != nil {
				return fmt.Errorf("reconcile %s counter: %w", collection, err)
			}
		}
	}
	return nil
}

func writeYAML(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	enc := yaml.NewEncoder(f)
	defer func() { _ = enc.Close() }()
	return enc.Encode(data)
}

func readYAML(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []record
	if err := yaml.NewDecoder(f).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return records, nil
}
