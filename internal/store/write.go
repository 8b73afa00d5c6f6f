package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/scriptblocks/internal/ir"
)

// VersionInfo describes one saved version.
type VersionInfo struct {
	DocumentID string `json:"documentId"`
	Seq        int64  `json:"seq"`
	// Version is the edit revision the document carried when saved.
	Version int       `json:"version"`
	Hash    string    `json:"hash"`
	Message string    `json:"message,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}

// SaveVersion appends doc as the newest version of its document and returns
// the version info and whether a row was written. If the newest stored
// version has the same content hash, nothing is written and that version is
// returned with created=false.
//
// The document row is created on first save. Later saves refresh its name
// and source path.
func (s *Store) SaveVersion(ctx context.Context, doc *ir.Document, message string) (info VersionInfo, created bool, err error) {
	if doc == nil || doc.ID == "" {
		return VersionInfo{}, false, fmt.Errorf("save version: document has no id")
	}

	hash, err := ir.DocumentHash(doc)
	if err != nil {
		return VersionInfo{}, false, fmt.Errorf("save version: %w", err)
	}
	body, err := marshalDocument(doc)
	if err != nil {
		return VersionInfo{}, false, fmt.Errorf("save version: %w", err)
	}
	now := s.now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return VersionInfo{}, false, fmt.Errorf("save version: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	head, err := headVersion(ctx, tx, doc.ID)
	switch {
	case errors.Is(err, ErrNotFound):
		head = VersionInfo{}
	case err != nil:
		return VersionInfo{}, false, fmt.Errorf("save version: %w", err)
	case head.Hash == hash:
		s.logger.Debug("save skipped: unchanged", "document", doc.ID, "seq", head.Seq)
		return head, false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, source_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			source_path = excluded.source_path,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Metadata.Name, doc.Metadata.SourcePath, formatTime(doc.Metadata.CreatedAt), formatTime(now))
	if err != nil {
		return VersionInfo{}, false, fmt.Errorf("save version: upsert document: %w", err)
	}

	info = VersionInfo{
		DocumentID: doc.ID,
		Seq:        head.Seq + 1,
		Version:    doc.Version,
		Hash:       hash,
		Message:    message,
		SavedAt:    now,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO versions (document_id, seq, version, hash, body, message, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, info.DocumentID, info.Seq, info.Version, info.Hash, body, info.Message, formatTime(info.SavedAt))
	if err != nil {
		return VersionInfo{}, false, fmt.Errorf("save version: insert version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return VersionInfo{}, false, fmt.Errorf("save version: commit: %w", err)
	}

	s.logger.Info("version saved",
		"document", info.DocumentID,
		"seq", info.Seq,
		"version", info.Version,
	)
	return info, true, nil
}

// DeleteDocument removes a document and all of its versions.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete document %q: %w", documentID, ErrNotFound)
	}
	return nil
}

// headVersion returns the newest version of a document inside tx, or
// ErrNotFound when the document has none.
func headVersion(ctx context.Context, tx *sql.Tx, documentID string) (VersionInfo, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT document_id, seq, version, hash, message, saved_at
		FROM versions
		WHERE document_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, documentID)
	info, err := scanVersionRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return VersionInfo{}, ErrNotFound
	}
	return info, err
}
