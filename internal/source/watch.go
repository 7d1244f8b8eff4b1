package source

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/goldentooth/knowledgeengine/internal/watcher"
)

// ChangeFunc is invoked once per changed document with its external
// identity. Re-ingesting the document is the caller's responsibility;
// Watch only reports that a YAML file under its store_type directory
// changed.
type ChangeFunc func(storeType, documentID string)

// Watch watches root for document file changes and reports each one
// through onChange, translating the changed path back to
// (store_type, document_id) the same way DirSource does. This is an
// external-collaborator convenience: the core has no notion of
// "watching," it only ever re-ingests on demand.
func Watch(ctx context.Context, root string, onChange ChangeFunc) error {
	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return err
	}
	src := NewDirSource(root)

	go func() {
		for batch := range w.Events() {
			for _, ev := range batch {
				if ev.IsDir || !strings.HasSuffix(ev.Path, yamlExt) {
					continue
				}
				storeType, documentID, splitErr := src.splitPath(filepath.Join(root, ev.Path))
				if splitErr != nil {
					continue
				}
				onChange(storeType, documentID)
			}
		}
	}()
	go func() {
		for watchErr := range w.Errors() {
			slog.Warn("document watch error", slog.String("error", watchErr.Error()))
		}
	}()

	return w.Start(ctx, root)
}
