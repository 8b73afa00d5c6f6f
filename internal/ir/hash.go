package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainDocument is the domain prefix for document content hashes.
// The version suffix enables future algorithm migration.
const DomainDocument = "scriptblocks/document/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentHash computes the content hash of a document's structure.
//
// The hash covers the root, every block (kind, data, children, comments) and
// the connections. Timestamps, the edit revision and source locations are
// excluded, so two documents that generate the same program with the same
// block identities hash equal regardless of when or how often they were edited.
func DocumentHash(doc *Document) (string, error) {
	blocks := make(map[string]any, len(doc.Blocks))
	for id, b := range doc.Blocks {
		data := b.Data
		if data == nil {
			data = map[string]any{}
		}
		entry := map[string]any{
			"kind":     b.Kind,
			"data":     data,
			"children": b.Children,
		}
		if b.Metadata != nil && len(b.Metadata.Comments) > 0 {
			entry["comments"] = b.Metadata.Comments
		}
		blocks[id] = entry
	}

	conns := make([]any, len(doc.Connections))
	for i, c := range doc.Connections {
		conns[i] = map[string]any{
			"id":       c.ID,
			"from":     c.From,
			"fromPort": c.FromPort,
			"to":       c.To,
			"toPort":   c.ToPort,
		}
	}

	obj := map[string]any{
		"root":        doc.Root,
		"name":        doc.Metadata.Name,
		"blocks":      blocks,
		"connections": conns,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("DocumentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// MustDocumentHash is like DocumentHash but panics on error.
// Use only in tests or when the document is known to hold primitive data.
func MustDocumentHash(doc *Document) string {
	h, err := DocumentHash(doc)
	if err != nil {
		panic(err)
	}
	return h
}
