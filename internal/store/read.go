package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/scriptblocks/internal/ir"
)

// DocumentInfo summarizes a stored document.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SourcePath string    `json:"sourcePath,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	// Versions is the number of saved versions; HeadSeq is the newest seq.
	Versions int   `json:"versions"`
	HeadSeq  int64 `json:"headSeq"`
}

// LoadLatest returns the newest saved version of a document.
// Returns ErrNotFound if the document has no versions.
func (s *Store) LoadLatest(ctx context.Context, documentID string) (*ir.Document, VersionInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, seq, version, hash, message, saved_at, body
		FROM versions
		WHERE document_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, documentID)
	return loadRow(row, documentID, 0)
}

// LoadVersion returns version seq of a document.
// Returns ErrNotFound if it does not exist.
func (s *Store) LoadVersion(ctx context.Context, documentID string, seq int64) (*ir.Document, VersionInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT document_id, seq, version, hash, message, saved_at, body
		FROM versions
		WHERE document_id = ? AND seq = ?
	`, documentID, seq)
	return loadRow(row, documentID, seq)
}

func loadRow(row *sql.Row, documentID string, seq int64) (*ir.Document, VersionInfo, error) {
	var (
		info    VersionInfo
		savedAt string
		body    string
	)
	err := row.Scan(&info.DocumentID, &info.Seq, &info.Version, &info.Hash, &info.Message, &savedAt, &body)
	if errors.Is(err, sql.ErrNoRows) {
		if seq > 0 {
			return nil, VersionInfo{}, fmt.Errorf("document %q version %d: %w", documentID, seq, ErrNotFound)
		}
		return nil, VersionInfo{}, fmt.Errorf("document %q: %w", documentID, ErrNotFound)
	}
	if err != nil {
		return nil, VersionInfo{}, fmt.Errorf("load version: %w", err)
	}
	if info.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, VersionInfo{}, err
	}
	doc, err := unmarshalDocument(body)
	if err != nil {
		return nil, VersionInfo{}, err
	}
	return doc, info, nil
}

// ListVersions returns every version of a document ordered by seq.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListVersions(ctx context.Context, documentID string) ([]VersionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT document_id, seq, version, hash, message, saved_at
		FROM versions
		WHERE document_id = ?
		ORDER BY seq ASC
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	versions := []VersionInfo{}
	for rows.Next() {
		info, err := scanVersionRow(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

// ListDocuments returns every stored document ordered by id.
// Returns an empty slice (not nil) if there are none.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.source_path, d.created_at, d.updated_at,
		       COUNT(v.seq), COALESCE(MAX(v.seq), 0)
		FROM documents d
		LEFT JOIN versions v ON v.document_id = d.id
		GROUP BY d.id
		ORDER BY d.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []DocumentInfo{}
	for rows.Next() {
		var (
			info             DocumentInfo
			created, updated string
		)
		if err := rows.Scan(&info.ID, &info.Name, &info.SourcePath, &created, &updated, &info.Versions, &info.HeadSeq); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if info.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		if info.UpdatedAt, err = parseTime(updated); err != nil {
			return nil, err
		}
		docs = append(docs, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanVersionRow reads the version columns in the order the queries above
// select them. sql.ErrNoRows is returned unwrapped.
func scanVersionRow(row rowScanner) (VersionInfo, error) {
	var (
		info    VersionInfo
		savedAt string
	)
	err := row.Scan(&info.DocumentID, &info.Seq, &info.Version, &info.Hash, &info.Message, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return VersionInfo{}, err
	}
	if err != nil {
		return VersionInfo{}, fmt.Errorf("scan version: %w", err)
	}
	if info.SavedAt, err = parseTime(savedAt); err != nil {
		return VersionInfo{}, err
	}
	return info, nil
}
