package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/websearch/internal/model"
)

// snapshot is the on-disk form of an index: exactly the two core maps,
// nothing derived. Document lengths and the next free document ID are
// rebuilt from postings and document IDs at load time.
type snapshot struct {
	// Documents maps document IDs to their metadata.
	Documents map[int]model.DocumentMeta `json:"documents"`

	// Index maps terms to their posting lists.
	Index map[string][]model.Posting `json:"index"`
}

// Save writes the index as indented JSON to path, creating parent
// directories as needed.
func (i *Index) Save(path string) error {
	data, err := json.MarshalIndent(snapshot{
		Documents: i.documents,
		Index:     i.postings,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	return nil
}

// Load reads a snapshot written by Save and reconstructs an index whose
// Postings and Document lookups behave identically to the one saved.
// Document IDs keep allocating above the highest loaded ID.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Snapshot path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read index snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse index snapshot %s: %w", path, err)
	}

	idx := New()
	if snap.Documents != nil {
		idx.documents = snap.Documents
	}
	if snap.Index != nil {
		idx.postings = snap.Index
	}
	idx.count = len(idx.documents)

	maxID := 0
	for id := range idx.documents {
		if id > maxID {
			maxID = id
		}
	}
	idx.nextID = maxID + 1

	for _, postings := range idx.postings {
		for _, p := range postings {
			idx.docLengths[p.DocID] += p.Frequency
			idx.totalTokens += p.Frequency
		}
	}

	return idx, nil
}
