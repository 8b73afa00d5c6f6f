package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentHashDeterministic(t *testing.T) {
	a := MustDocumentHash(sampleDocument())
	b := MustDocumentHash(sampleDocument())
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDocumentHashIgnoresVolatileFields(t *testing.T) {
	base := MustDocumentHash(sampleDocument())

	doc := sampleDocument()
	doc.Version = 9
	doc.Metadata.UpdatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc.Blocks["w"].Metadata.SourceLocation.Start.Line = 99

	assert.Equal(t, base, MustDocumentHash(doc))
}

func TestDocumentHashSensitiveToContent(t *testing.T) {
	base := MustDocumentHash(sampleDocument())

	changedData := sampleDocument()
	changedData.Blocks["w"].Data["duration"] = 1.0
	assert.NotEqual(t, base, MustDocumentHash(changedData))

	changedKind := sampleDocument()
	changedKind.Blocks["w"].Kind = KindRawStatement
	assert.NotEqual(t, base, MustDocumentHash(changedKind))

	changedComments := sampleDocument()
	changedComments.Blocks["w"].Metadata.Comments = nil
	assert.NotEqual(t, base, MustDocumentHash(changedComments))
}

func TestDocumentHashRejectsBadData(t *testing.T) {
	doc := sampleDocument()
	doc.Blocks["w"].Data["bad"] = struct{}{}
	_, err := DocumentHash(doc)
	require.Error(t, err)
	assert.Panics(t, func() { MustDocumentHash(doc) })
}
