package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/mini-colony/internal/engine"
)

// ErrNoSnapshot is returned when the snapshots table is empty.
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotInfo describes one stored snapshot.
type SnapshotInfo struct {
	ID      uuid.UUID `json:"id"`
	Tick    uint64    `json:"tick"`
	Created time.Time `json:"created"`
	Size    int       `json:"size"`     // Compressed bytes
	RawSize int       `json:"raw_size"` // JSON bytes
}

type snapshotRow struct {
	ID          uuid.UUID `db:"id"`
	Tick        uint64    `db:"tick"`
	CreatedUnix int64     `db:"created_unix"`
	RawSize     int       `db:"raw_size"`
	Size        int       `db:"size"`
}

func (r snapshotRow) info() SnapshotInfo {
	return SnapshotInfo{
		ID:      r.ID,
		Tick:    r.Tick,
		Created: time.Unix(0, r.CreatedUnix).UTC(),
		Size:    r.Size,
		RawSize: r.RawSize,
	}
}

// SaveSnapshot stores the whole state as one zstd-compressed JSON blob and
// prunes all but the newest keep snapshots.
func (db *DB) SaveSnapshot(st engine.State, keep int) (SnapshotInfo, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("encode snapshot: %w", err)
	}
	blob := db.enc.EncodeAll(raw, nil)

	row := snapshotRow{
		ID:          uuid.New(),
		Tick:        st.Tick,
		CreatedUnix: time.Now().UnixNano(),
		RawSize:     len(raw),
		Size:        len(blob),
	}
	_, err = db.conn.Exec(
		"INSERT INTO snapshots (id, tick, created_unix, raw_size, data) VALUES (?, ?, ?, ?, ?)",
		row.ID.String(), row.Tick, row.CreatedUnix, row.RawSize, blob,
	)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("insert snapshot: %w", err)
	}

	if keep > 0 {
		_, err = db.conn.Exec(`DELETE FROM snapshots WHERE id NOT IN
			(SELECT id FROM snapshots ORDER BY created_unix DESC, tick DESC LIMIT ?)`, keep)
		if err != nil {
			return SnapshotInfo{}, fmt.Errorf("prune snapshots: %w", err)
		}
	}

	slog.Info("snapshot saved",
		"id", row.ID,
		"tick", row.Tick,
		"size", humanize.Bytes(uint64(row.Size)),
		"raw", humanize.Bytes(uint64(row.RawSize)),
	)
	return row.info(), nil
}

// Snapshots lists stored snapshots, newest first.
func (db *DB) Snapshots() ([]SnapshotInfo, error) {
	var rows []snapshotRow
	err := db.conn.Select(&rows, `SELECT id, tick, created_unix, raw_size, length(data) AS size
		FROM snapshots ORDER BY created_unix DESC, tick DESC`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]SnapshotInfo, len(rows))
	for i, r := range rows {
		out[i] = r.info()
	}
	return out, nil
}

// LoadSnapshot decodes the snapshot with the given id.
func (db *DB) LoadSnapshot(id uuid.UUID) (engine.State, error) {
	var blob []byte
	err := db.conn.Get(&blob, "SELECT data FROM snapshots WHERE id = ?", id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return engine.State{}, fmt.Errorf("snapshot %s: %w", id, ErrNoSnapshot)
	}
	if err != nil {
		return engine.State{}, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	return db.decodeSnapshot(blob)
}

// LatestSnapshot decodes the newest snapshot.
func (db *DB) LatestSnapshot() (engine.State, SnapshotInfo, error) {
	list, err := db.Snapshots()
	if err != nil {
		return engine.State{}, SnapshotInfo{}, err
	}
	if len(list) == 0 {
		return engine.State{}, SnapshotInfo{}, ErrNoSnapshot
	}
	st, err := db.LoadSnapshot(list[0].ID)
	return st, list[0], err
}

func (db *DB) decodeSnapshot(blob []byte) (engine.State, error) {
	var st engine.State
	raw, err := db.dec.DecodeAll(blob, nil)
	if err != nil {
		return st, fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, fmt.Errorf("decode snapshot: %w", err)
	}
	return st, nil
}
