package engine

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

const ttSnapshotVersion = 1

var ErrSnapshotVersion = errors.New("unsupported transposition table snapshot version")

type ttSnapshot struct {
	Version int
	Entries []TTEntry
}

// Save writes the occupied entries as a zstd-compressed gob stream.
func (tt *TransTable) Save(w io.Writer) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	snapshot := ttSnapshot{Version: ttSnapshotVersion}
	for _, e := range tt.entries {
		if e.Bound != 0 {
			snapshot.Entries = append(snapshot.Entries, e)
		}
	}
	if err := gob.NewEncoder(enc).Encode(&snapshot); err != nil {
		enc.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush zstd writer: %w", err)
	}
	return nil
}

// Load stores every entry of a snapshot written by Save. Entries are
// re-slotted, so the snapshot may come from a table of another size.
func (tt *TransTable) Load(r io.Reader) (int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	var snapshot ttSnapshot
	if err := gob.NewDecoder(dec).Decode(&snapshot); err != nil {
		return 0, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot.Version != ttSnapshotVersion {
		return 0, fmt.Errorf("%w: %d", ErrSnapshotVersion, snapshot.Version)
	}
	for _, e := range snapshot.Entries {
		tt.Store(e)
	}
	return len(snapshot.Entries), nil
}

// SaveFile writes the table to path, replacing it atomically.
func (tt *TransTable) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := tt.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// LoadFile reads a table written by SaveFile. A missing file loads nothing.
func (tt *TransTable) LoadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return tt.Load(f)
}
