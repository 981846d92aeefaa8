package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/galleria/internal/store"
	"github.com/HerbHall/galleria/pkg/models"
)

// Snapshot is an ordered artwork collection as fetched from one API source.
type Snapshot struct {
	Source    string           `json:"source"`
	FetchedAt time.Time        `json:"fetchedAt"`
	Artworks  []models.Artwork `json:"artworks"`
	Cached    bool             `json:"cached,omitempty"` // served from cache after a failed fetch
}

// Age returns how old the snapshot is at now.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.FetchedAt)
}

// SnapshotInfo summarizes a cached snapshot without its artworks.
type SnapshotInfo struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
	Count     int       `json:"count"`
}

// SnapshotRepository caches fetched snapshots for offline fallback.
type SnapshotRepository interface {
	// Save replaces the snapshot stored for source.
	Save(ctx context.Context, source string, artworks []models.Artwork, fetchedAt time.Time) error

	// Load returns the snapshot for source with artworks in saved order.
	Load(ctx context.Context, source string) (*Snapshot, error)

	// Delete removes the snapshot for source.
	Delete(ctx context.Context, source string) error

	// List returns summaries of the cached snapshots.
	List(ctx context.Context, opts ListOptions) (*ListResult[SnapshotInfo], error)
}

// Compile-time interface guard.
var _ SnapshotRepository = (*SQLiteSnapshotRepository)(nil)

// SQLiteSnapshotRepository implements SnapshotRepository using SQLite. Each
// artwork is stored as its JSON document with its position in the snapshot.
type SQLiteSnapshotRepository struct {
	st store.Store
}

// NewSQLiteSnapshotRepository creates a SnapshotRepository and runs the
// cache migrations.
func NewSQLiteSnapshotRepository(ctx context.Context, st store.Store) (*SQLiteSnapshotRepository, error) {
	if err := st.Migrate(ctx, "cache", snapshotMigrations); err != nil {
		return nil, fmt.Errorf("cache migrations: %w", err)
	}
	return &SQLiteSnapshotRepository{st: st}, nil
}

func (r *SQLiteSnapshotRepository) Save(ctx context.Context, source string, artworks []models.Artwork, fetchedAt time.Time) error {
	return r.st.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_artworks WHERE source = ?`, source); err != nil {
			return fmt.Errorf("clear snapshot %q: %w", source, err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cache_snapshots (source, fetched_at, count)
			VALUES (?, ?, ?)
			ON CONFLICT (source) DO UPDATE SET fetched_at = excluded.fetched_at, count = excluded.count`,
			source, fetchedAt.UTC().Format(time.RFC3339Nano), len(artworks),
		)
		if err != nil {
			return fmt.Errorf("save snapshot %q: %w", source, err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO cache_artworks (source, position, artwork_id, body) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare artwork insert: %w", err)
		}
		defer stmt.Close()

		for i := range artworks {
			body, err := json.Marshal(&artworks[i])
			if err != nil {
				return fmt.Errorf("encode artwork %q: %w", artworks[i].ID, err)
			}
			if _, err := stmt.ExecContext(ctx, source, i, artworks[i].ID, string(body)); err != nil {
				return fmt.Errorf("insert artwork %q: %w", artworks[i].ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteSnapshotRepository) Load(ctx context.Context, source string) (*Snapshot, error) {
	db := r.st.DB()

	var fetchedAt string
	err := db.QueryRowContext(ctx,
		`SELECT fetched_at FROM cache_snapshots WHERE source = ?`, source,
	).Scan(&fetchedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot %q: %w", source, err)
	}

	snap := &Snapshot{Source: source, Artworks: []models.Artwork{}}
	if snap.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
		return nil, fmt.Errorf("parse fetched_at of %q: %w", source, err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT body FROM cache_artworks WHERE source = ? ORDER BY position`, source)
	if err != nil {
		return nil, fmt.Errorf("list snapshot %q: %w", source, err)
	}
	defer rows.Close()

	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan artwork row: %w", err)
		}
		var a models.Artwork
		if err := json.Unmarshal([]byte(body), &a); err != nil {
			return nil, fmt.Errorf("decode cached artwork: %w", err)
		}
		snap.Artworks = append(snap.Artworks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot %q: %w", source, err)
	}
	return snap, nil
}

func (r *SQLiteSnapshotRepository) Delete(ctx context.Context, source string) error {
	var n int64
	err := r.st.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cache_artworks WHERE source = ?`, source); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM cache_snapshots WHERE source = ?`, source)
		if err != nil {
			return err
		}
		n, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", source, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteSnapshotRepository) List(ctx context.Context, opts ListOptions) (*ListResult[SnapshotInfo], error) {
	opts = normalizeListOptions(opts)

	sortCol := "fetched_at"
	allowedSorts := map[string]string{
		"source":     "source",
		"fetched_at": "fetched_at",
		"count":      "count",
	}
	if col, ok := allowedSorts[opts.SortBy]; ok {
		sortCol = col
	}
	orderDir := "DESC"
	if opts.SortOrder == "asc" {
		orderDir = "ASC"
	}

	db := r.st.DB()
	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_snapshots`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count snapshots: %w", err)
	}

	//nolint:gosec // sortCol and orderDir are validated above, not user input
	query := fmt.Sprintf(
		"SELECT source, fetched_at, count FROM cache_snapshots ORDER BY %s %s, source ASC LIMIT ? OFFSET ?",
		sortCol, orderDir,
	)
	rows, err := db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	items := []SnapshotInfo{}
	for rows.Next() {
		var (
			info      SnapshotInfo
			fetchedAt string
		)
		if err := rows.Scan(&info.Source, &fetchedAt, &info.Count); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		if info.FetchedAt, err = time.Parse(time.RFC3339Nano, fetchedAt); err != nil {
			return nil, fmt.Errorf("parse fetched_at of %q: %w", info.Source, err)
		}
		items = append(items, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return &ListResult[SnapshotInfo]{Items: items, Total: total}, nil
}

// snapshotMigrations defines the cache schema.
var snapshotMigrations = []store.Migration{
	{
		Version:     1,
		Description: "create cache_snapshots and cache_artworks tables",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec(`
				CREATE TABLE cache_snapshots (
					source     TEXT PRIMARY KEY,
					fetched_at TEXT NOT NULL,
					count      INTEGER NOT NULL DEFAULT 0
				)`); err != nil {
				return err
			}
			_, err := tx.Exec(`
				CREATE TABLE cache_artworks (
					source     TEXT NOT NULL REFERENCES cache_snapshots(source) ON DELETE CASCADE,
					position   INTEGER NOT NULL,
					artwork_id TEXT NOT NULL,
					body       TEXT NOT NULL,
					PRIMARY KEY (source, position)
				)`)
			return err
		},
	},
}
