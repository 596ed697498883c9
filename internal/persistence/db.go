// Package persistence provides SQLite-based colony state storage.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/talgya/mini-colony/internal/agents"
	"github.com/talgya/mini-colony/internal/broker"
	"github.com/talgya/mini-colony/internal/engine"
	"github.com/talgya/mini-colony/internal/world"
)

// ErrNoState is returned by LoadState when nothing has been saved yet.
var ErrNoState = errors.New("no saved colony")

// DB wraps a SQLite connection for colony state persistence.
type DB struct {
	conn *sqlx.DB
	enc  *zstd.Encoder
	dec  *zstd.Decoder
}

// Open opens or creates a SQLite database at the given path. ":memory:"
// gives a private in-memory database.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer, and an in-memory database must stay on one connection.
	conn.SetMaxOpenConns(1)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	db := &DB{conn: conn, enc: enc, dec: dec}
	if err := db.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.dec.Close()
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS characters (
		brain INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		occupation TEXT NOT NULL,
		idle_ticks INTEGER NOT NULL,
		has_relaxed INTEGER NOT NULL,
		status_json TEXT NOT NULL,
		held_json TEXT NOT NULL,
		goals_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stations (
		seq INTEGER PRIMARY KEY,
		job TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		work_invested INTEGER NOT NULL,
		stockpile_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS piles (
		seq INTEGER PRIMARY KEY,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		stockpile_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS hauls (
		seq INTEGER PRIMARY KEY,
		id INTEGER NOT NULL UNIQUE,
		resource TEXT NOT NULL,
		amount INTEGER NOT NULL,
		job TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		seq INTEGER PRIMARY KEY,
		tick INTEGER NOT NULL,
		agent INTEGER NOT NULL,
		category TEXT NOT NULL,
		description TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS colony_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		tick INTEGER NOT NULL,
		created_unix INTEGER NOT NULL,
		raw_size INTEGER NOT NULL,
		data BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_unix);
	`
	_, err := db.conn.Exec(schema)
	return err
}

type characterRow struct {
	Brain      int    `db:"brain"`
	Name       string `db:"name"`
	X          int    `db:"x"`
	Y          int    `db:"y"`
	Occupation string `db:"occupation"`
	IdleTicks  uint32 `db:"idle_ticks"`
	HasRelaxed bool   `db:"has_relaxed"`
	Status     string `db:"status_json"`
	Held       string `db:"held_json"`
	Goals      string `db:"goals_json"`
}

type stationRow struct {
	Seq          int    `db:"seq"`
	Job          string `db:"job"`
	X            int    `db:"x"`
	Y            int    `db:"y"`
	WorkInvested uint8  `db:"work_invested"`
	Stockpile    string `db:"stockpile_json"`
}

type pileRow struct {
	Seq       int    `db:"seq"`
	X         int    `db:"x"`
	Y         int    `db:"y"`
	Stockpile string `db:"stockpile_json"`
}

type haulRow struct {
	Seq      int       `db:"seq"`
	ID       broker.ID `db:"id"`
	Resource string    `db:"resource"`
	Amount   uint8     `db:"amount"`
	Job      string    `db:"job"`
	X        int       `db:"x"`
	Y        int       `db:"y"`
}

// SaveState writes the colony tables (full replace) and the resume metadata
// in one transaction. Row order follows the state's order, which Restore
// relies on for a deterministic resume.
func (db *DB) SaveState(st engine.State) error {
	if st.Map == nil {
		return errors.New("save state: no map")
	}
	slog.Info("saving colony state", "tick", st.Tick, "characters", len(st.Characters), "stations", len(st.Stations), "piles", len(st.Piles))

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"characters", "stations", "piles", "hauls"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, c := range st.Characters {
		row := characterRow{
			Brain:      c.Status.Brain,
			Name:       c.Status.Name,
			X:          c.Position.X,
			Y:          c.Position.Y,
			Occupation: c.Occupation.String(),
			IdleTicks:  c.IdleTicks,
			HasRelaxed: c.HasRelaxed,
			Status:     mustJSON(c.Status),
			Held:       mustJSON(c.Held),
			Goals:      mustJSON(c.Goals),
		}
		_, err := tx.NamedExec(`INSERT INTO characters
			(brain, name, x, y, occupation, idle_ticks, has_relaxed, status_json, held_json, goals_json)
			VALUES (:brain, :name, :x, :y, :occupation, :idle_ticks, :has_relaxed, :status_json, :held_json, :goals_json)`, row)
		if err != nil {
			return fmt.Errorf("insert character %d: %w", row.Brain, err)
		}
	}

	for i, s := range st.Stations {
		row := stationRow{
			Seq:          i,
			Job:          s.Kind.String(),
			X:            s.Position.X,
			Y:            s.Position.Y,
			WorkInvested: s.WorkInvested,
			Stockpile:    mustJSON(s.Stockpile),
		}
		_, err := tx.NamedExec(`INSERT INTO stations (seq, job, x, y, work_invested, stockpile_json)
			VALUES (:seq, :job, :x, :y, :work_invested, :stockpile_json)`, row)
		if err != nil {
			return fmt.Errorf("insert station %v: %w", s.Position, err)
		}
	}

	for i, p := range st.Piles {
		row := pileRow{Seq: i, X: p.Position.X, Y: p.Position.Y, Stockpile: mustJSON(p.Stockpile)}
		_, err := tx.NamedExec(`INSERT INTO piles (seq, x, y, stockpile_json)
			VALUES (:seq, :x, :y, :stockpile_json)`, row)
		if err != nil {
			return fmt.Errorf("insert pile %v: %w", p.Position, err)
		}
	}

	for i, h := range st.Hauls {
		row := haulRow{
			Seq:      i,
			ID:       h.ID,
			Resource: h.Haul.Resource.String(),
			Amount:   h.Haul.Amount,
			Job:      h.Haul.Destination.Job.String(),
			X:        h.Haul.Destination.Position.X,
			Y:        h.Haul.Destination.Position.Y,
		}
		_, err := tx.NamedExec(`INSERT INTO hauls (seq, id, resource, amount, job, x, y)
			VALUES (:seq, :id, :resource, :amount, :job, :x, :y)`, row)
		if err != nil {
			return fmt.Errorf("insert haul %d: %w", h.ID, err)
		}
	}

	meta := map[string]string{
		"last_tick":    strconv.FormatUint(st.Tick, 10),
		"next_brain":   strconv.Itoa(st.NextBrain),
		"next_haul_id": strconv.FormatUint(uint64(st.NextHaulID), 10),
		"next_event":   strconv.FormatUint(st.NextEvent, 10),
		"stats":        mustJSON(st.Stats),
		"map":          mustJSON(st.Map),
	}
	for key, value := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO colony_meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("save meta %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("colony state saved", "tick", st.Tick)
	return nil
}

// LoadState reads back what SaveState wrote.
func (db *DB) LoadState() (engine.State, error) {
	var st engine.State

	rawMap, err := db.GetMeta("map")
	if errors.Is(err, sql.ErrNoRows) {
		return st, ErrNoState
	}
	if err != nil {
		return st, fmt.Errorf("load map: %w", err)
	}
	st.Map = new(world.Tilemap)
	if err := json.Unmarshal([]byte(rawMap), st.Map); err != nil {
		return st, fmt.Errorf("decode map: %w", err)
	}

	if err := db.loadMeta(&st); err != nil {
		return st, err
	}

	var chars []characterRow
	if err := db.conn.Select(&chars, "SELECT * FROM characters ORDER BY brain"); err != nil {
		return st, fmt.Errorf("load characters: %w", err)
	}
	for _, r := range chars {
		c := engine.CharacterState{
			Position:   world.Pos(r.X, r.Y),
			IdleTicks:  r.IdleTicks,
			HasRelaxed: r.HasRelaxed,
		}
		if err := c.Occupation.UnmarshalText([]byte(r.Occupation)); err != nil {
			return st, fmt.Errorf("character %d: %w", r.Brain, err)
		}
		if err := decodeJSON(r.Status, &c.Status, r.Held, &c.Held, r.Goals, &c.Goals); err != nil {
			return st, fmt.Errorf("character %d: %w", r.Brain, err)
		}
		st.Characters = append(st.Characters, c)
	}

	var stations []stationRow
	if err := db.conn.Select(&stations, "SELECT * FROM stations ORDER BY seq"); err != nil {
		return st, fmt.Errorf("load stations: %w", err)
	}
	for _, r := range stations {
		v := engine.StationView{Position: world.Pos(r.X, r.Y), WorkInvested: r.WorkInvested}
		if err := v.Kind.UnmarshalText([]byte(r.Job)); err != nil {
			return st, fmt.Errorf("station %d: %w", r.Seq, err)
		}
		if err := decodeJSON(r.Stockpile, &v.Stockpile); err != nil {
			return st, fmt.Errorf("station %d: %w", r.Seq, err)
		}
		st.Stations = append(st.Stations, v)
	}

	var piles []pileRow
	if err := db.conn.Select(&piles, "SELECT * FROM piles ORDER BY seq"); err != nil {
		return st, fmt.Errorf("load piles: %w", err)
	}
	for _, r := range piles {
		v := engine.PileView{Position: world.Pos(r.X, r.Y)}
		if err := decodeJSON(r.Stockpile, &v.Stockpile); err != nil {
			return st, fmt.Errorf("pile %d: %w", r.Seq, err)
		}
		st.Piles = append(st.Piles, v)
	}

	var hauls []haulRow
	if err := db.conn.Select(&hauls, "SELECT * FROM hauls ORDER BY seq"); err != nil {
		return st, fmt.Errorf("load hauls: %w", err)
	}
	for _, r := range hauls {
		h := agents.HaulDescription{Amount: r.Amount}
		h.Destination.Position = world.Pos(r.X, r.Y)
		if err := h.Resource.UnmarshalText([]byte(r.Resource)); err != nil {
			return st, fmt.Errorf("haul %d: %w", r.ID, err)
		}
		if err := h.Destination.Job.UnmarshalText([]byte(r.Job)); err != nil {
			return st, fmt.Errorf("haul %d: %w", r.ID, err)
		}
		st.Hauls = append(st.Hauls, engine.HaulView{ID: r.ID, Haul: h})
	}
	return st, nil
}

func (db *DB) loadMeta(st *engine.State) error {
	values := map[string]string{}
	for _, key := range []string{"last_tick", "next_brain", "next_haul_id", "next_event", "stats"} {
		v, err := db.GetMeta(key)
		if err != nil {
			return fmt.Errorf("load meta %s: %w", key, err)
		}
		values[key] = v
	}
	var err error
	if st.Tick, err = strconv.ParseUint(values["last_tick"], 10, 64); err != nil {
		return fmt.Errorf("meta last_tick: %w", err)
	}
	if st.NextBrain, err = strconv.Atoi(values["next_brain"]); err != nil {
		return fmt.Errorf("meta next_brain: %w", err)
	}
	next, err := strconv.ParseUint(values["next_haul_id"], 10, 32)
	if err != nil {
		return fmt.Errorf("meta next_haul_id: %w", err)
	}
	st.NextHaulID = broker.ID(next)
	if st.NextEvent, err = strconv.ParseUint(values["next_event"], 10, 64); err != nil {
		return fmt.Errorf("meta next_event: %w", err)
	}
	return decodeJSON(values["stats"], &st.Stats)
}

// SaveEvents appends events to the database. Events already stored (same
// sequence number) are skipped.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO events (seq, tick, agent, category, description) VALUES (?, ?, ?, ?, ?)",
			e.Seq, e.Tick, e.Agent, e.Category, e.Description,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LastEventSeq returns the newest stored event sequence number, or 0.
func (db *DB) LastEventSeq() (uint64, error) {
	var seq uint64
	err := db.conn.Get(&seq, "SELECT COALESCE(MAX(seq), 0) FROM events")
	return seq, err
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT seq, tick, agent, category, description FROM events ORDER BY seq DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in colony metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO colony_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM colony_meta WHERE key = ?", key)
	return value, err
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		// Only plain data is stored here.
		panic(fmt.Sprintf("persistence: marshal %T: %v", v, err))
	}
	return string(raw)
}

// decodeJSON takes (raw, target) pairs.
func decodeJSON(pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if err := json.Unmarshal([]byte(pairs[i].(string)), pairs[i+1]); err != nil {
			return fmt.Errorf("decode %T: %w", pairs[i+1], err)
		}
	}
	return nil
}
