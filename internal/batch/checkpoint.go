// Package batch runs the resolution chain over large record lists with a
// bounded worker pool, token-bucket throttling, and resumable checkpoints.
package batch

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/coral-atlas/poi-cli/internal/model"
)

// Checkpoint is the persisted batch-progress snapshot. Records listed in
// ProcessedIDs are skipped entirely on resume; their results are reused
// verbatim, never re-geocoded.
type Checkpoint struct {
	ProcessedIDs []string                       `json:"processedIds"`
	Results      map[string]model.GeocodeResult `json:"results"`
	StartedAt    time.Time                      `json:"startedAt"`
	LastUpdated  time.Time                      `json:"lastUpdated"`

	processed map[string]bool
}

// NewCheckpoint returns an empty checkpoint stamped with the current time.
func NewCheckpoint() *Checkpoint {
	return &Checkpoint{
		Results:   make(map[string]model.GeocodeResult),
		StartedAt: time.Now().UTC(),
		processed: make(map[string]bool),
	}
}

// LoadCheckpoint reads a checkpoint file. A missing file yields a fresh
// checkpoint, so first runs and resumed runs share one code path.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewCheckpoint(), nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "batch: read checkpoint %s", path)
	}

	cp := NewCheckpoint()
	if err := json.Unmarshal(data, cp); err != nil {
		return nil, eris.Wrapf(err, "batch: parse checkpoint %s", path)
	}
	for _, id := range cp.ProcessedIDs {
		cp.processed[id] = true
	}
	return cp, nil
}

// Has reports whether the record was already processed.
func (c *Checkpoint) Has(id string) bool {
	return c.processed[id]
}

// Add records a result. Only the coordinator goroutine calls this, so no
// locking is needed.
func (c *Checkpoint) Add(id string, res model.GeocodeResult) {
	if c.processed[id] {
		return
	}
	c.processed[id] = true
	c.ProcessedIDs = append(c.ProcessedIDs, id)
	c.Results[id] = res
}

// Save writes the checkpoint atomically (temp file + rename) so an
// interrupt mid-write leaves the previous snapshot intact.
func (c *Checkpoint) Save(path string) error {
	c.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return eris.Wrap(err, "batch: marshal checkpoint")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "batch: write checkpoint %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "batch: rename checkpoint into place")
	}
	return nil
}

// Archive renames a completed run's checkpoint aside so the next run
// starts fresh while the history stays inspectable.
func Archive(path string) error {
	dst := path + ".done-" + time.Now().UTC().Format("20060102T150405Z")
	if err := os.Rename(path, dst); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return eris.Wrapf(err, "batch: archive checkpoint %s", path)
	}
	return nil
}
