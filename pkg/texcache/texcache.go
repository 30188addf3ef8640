// Package texcache stores compressed textures in a sqlite database keyed by
// a hash of their source pixels and encoder settings, so unchanged inputs
// are never compressed twice.
package texcache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jpfielding/texkit.go/pkg/texerr"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is one cached texture. Data is stored zstd-compressed and returned
// decompressed.
type Entry struct {
	Key     string
	Format  string
	Width   int
	Height  int
	Data    []byte
	Created time.Time
}

// Stats summarizes the cache contents.
type Stats struct {
	Entries    int
	Stored     int64 // compressed blob bytes
	ByFormat   map[string]int
	OldestUnix int64
}

type DB struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open creates or opens the cache at file. ":memory:" works for tests.
func Open(file string) (*DB, error) {
	const op = "texcache.Open"
	db, err := sql.Open("sqlite3", file)
	if err != nil {
		return nil, texerr.New(texerr.CouldNotOpenFile, op, err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS texture (key TEXT PRIMARY KEY NOT NULL, format TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, data BLOB NOT NULL, created INTEGER NOT NULL)"); err != nil {
		db.Close()
		return nil, texerr.New(texerr.CouldNotOpenFile, op, err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db, enc: enc, dec: dec}, nil
}

// Get returns the entry for key, or nil, nil when there is none.
func (c *DB) Get(key string) (*Entry, error) {
	const op = "texcache.Get"
	e := Entry{Key: key}
	var blob []byte
	var created int64
	switch err := c.db.QueryRow("SELECT format, width, height, data, created FROM texture WHERE key = ?", key).Scan(&e.Format, &e.Width, &e.Height, &blob, &created); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
	default:
		return nil, texerr.New(texerr.ShortRead, op, err)
	}

	data, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, texerr.New(texerr.IllegalFileValue, op, fmt.Errorf("decompressing %s: %w", key, err))
	}
	e.Data = data
	e.Created = time.Unix(created, 0)
	return &e, nil
}

// Put inserts or replaces e. A zero Created is set to now.
func (c *DB) Put(e *Entry) error {
	const op = "texcache.Put"
	if e == nil || e.Key == "" {
		return texerr.Errorf(texerr.InvalidParam, op, "entry without key")
	}
	created := e.Created
	if created.IsZero() {
		created = time.Now()
	}
	blob := c.enc.EncodeAll(e.Data, nil)
	if _, err := c.db.Exec("INSERT OR REPLACE INTO texture (key, format, width, height, data, created) VALUES (?, ?, ?, ?, ?, ?)",
		e.Key, e.Format, e.Width, e.Height, blob, created.Unix()); err != nil {
		return texerr.New(texerr.ShortWrite, op, err)
	}
	return nil
}

// Delete removes key if present.
func (c *DB) Delete(key string) error {
	if _, err := c.db.Exec("DELETE FROM texture WHERE key = ?", key); err != nil {
		return texerr.New(texerr.ShortWrite, "texcache.Delete", err)
	}
	return nil
}

// Stats counts entries per format.
func (c *DB) Stats() (*Stats, error) {
	const op = "texcache.Stats"
	s := &Stats{ByFormat: map[string]int{}}
	rows, err := c.db.Query("SELECT format, COUNT(*), SUM(LENGTH(data)), MIN(created) FROM texture GROUP BY format")
	if err != nil {
		return nil, texerr.New(texerr.ShortRead, op, err)
	}
	defer rows.Close()
	for rows.Next() {
		var format string
		var n int
		var size, oldest int64
		if err := rows.Scan(&format, &n, &size, &oldest); err != nil {
			return nil, texerr.New(texerr.ShortRead, op, err)
		}
		s.ByFormat[format] = n
		s.Entries += n
		s.Stored += size
		if s.OldestUnix == 0 || oldest < s.OldestUnix {
			s.OldestUnix = oldest
		}
	}
	if err := rows.Err(); err != nil {
		return nil, texerr.New(texerr.ShortRead, op, err)
	}
	return s, nil
}

func (c *DB) Close() error {
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}
