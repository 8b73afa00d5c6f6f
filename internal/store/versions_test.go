package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/testutil"
)

func TestSaveVersion_FirstSave(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := testutil.NestedDocument(t)

	info, created, err := s.SaveVersion(ctx, doc, "initial")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, doc.ID, info.DocumentID)
	assert.Equal(t, int64(1), info.Seq)
	assert.Equal(t, 0, info.Version)
	assert.Equal(t, ir.MustDocumentHash(doc), info.Hash)
	assert.Equal(t, "initial", info.Message)
	assert.Equal(t, testutil.Epoch, info.SavedAt)
}

func TestSaveVersion_UnchangedIsSkipped(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := testutil.NestedDocument(t)

	first, _, err := s.SaveVersion(ctx, doc, "")
	require.NoError(t, err)

	// A clone has a different pointer but the same content.
	again, created, err := s.SaveVersion(ctx, graph.Clone(doc), "again")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestSaveVersion_AppendsChanges(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := testutil.NestedDocument(t)

	_, _, err := s.SaveVersion(ctx, doc, "v1")
	require.NoError(t, err)

	edited, err := graph.UpdateBlockData(doc, "w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)
	info, created, err := s.SaveVersion(ctx, edited, "v2")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(2), info.Seq)
	assert.Equal(t, 1, info.Version)

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, []string{"v1", "v2"}, []string{versions[0].Message, versions[1].Message})
	assert.NotEqual(t, versions[0].Hash, versions[1].Hash)
}

func TestSaveVersion_RequiresID(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.SaveVersion(context.Background(), &ir.Document{}, "")
	assert.Error(t, err)
	_, _, err = s.SaveVersion(context.Background(), nil, "")
	assert.Error(t, err)
}

func TestLoadLatest_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := testutil.NestedDocument(t)
	doc.Blocks["c1"].Metadata = &ir.BlockMetadata{Comments: []string{"submit"}}
	doc.Blocks["c1"].Data["target"] = "a <b> & c"

	_, _, err := s.SaveVersion(ctx, doc, "")
	require.NoError(t, err)

	loaded, info, err := s.LoadLatest(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Seq)
	assert.Equal(t, ir.RootShape(doc), ir.RootShape(loaded))
	assert.Equal(t, info.Hash, ir.MustDocumentHash(loaded))
	assert.Equal(t, []string{"submit"}, loaded.Blocks["c1"].Metadata.Comments)
	assert.Equal(t, doc.Metadata.CreatedAt, loaded.Metadata.CreatedAt)
	require.NoError(t, graph.Validate(loaded))
}

func TestLoadVersion(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := testutil.NestedDocument(t)

	_, _, err := s.SaveVersion(ctx, doc, "")
	require.NoError(t, err)
	edited, err := graph.RemoveBlock(doc, "loop", "", "")
	require.NoError(t, err)
	_, _, err = s.SaveVersion(ctx, edited, "")
	require.NoError(t, err)

	old, _, err := s.LoadVersion(ctx, doc.ID, 1)
	require.NoError(t, err)
	assert.Contains(t, old.Blocks, "loop")

	latest, _, err := s.LoadLatest(ctx, doc.ID)
	require.NoError(t, err)
	assert.NotContains(t, latest.Blocks, "loop")

	_, _, err = s.LoadVersion(ctx, doc.ID, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadLatest_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, _, err := s.LoadLatest(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), `"nope"`)
}

func TestListVersions_Empty(t *testing.T) {
	s := createTestStore(t)

	versions, err := s.ListVersions(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, versions)
	assert.Empty(t, versions)
}

func TestListDocuments(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	b := testutil.NewDocument("beta").Body("w", ir.KindWaitCall, map[string]any{"duration": 1.0}).Build()
	a := testutil.NewDocument("alpha").Build()
	a.Metadata.SourcePath = "flows/alpha.js"
	for _, d := range []*ir.Document{b, a} {
		_, _, err := s.SaveVersion(ctx, d, "")
		require.NoError(t, err)
	}
	edited, err := graph.UpdateBlockData(b, "w", map[string]any{"duration": 3.0})
	require.NoError(t, err)
	_, _, err = s.SaveVersion(ctx, edited, "")
	require.NoError(t, err)

	docs, err = s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "doc-alpha", docs[0].ID)
	assert.Equal(t, "alpha", docs[0].Name)
	assert.Equal(t, "flows/alpha.js", docs[0].SourcePath)
	assert.Equal(t, 1, docs[0].Versions)

	assert.Equal(t, "doc-beta", docs[1].ID)
	assert.Equal(t, 2, docs[1].Versions)
	assert.Equal(t, int64(2), docs[1].HeadSeq)
	assert.True(t, docs[1].UpdatedAt.After(docs[1].CreatedAt))
}

func TestDeleteDocument(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := testutil.NestedDocument(t)

	_, _, err := s.SaveVersion(ctx, doc, "")
	require.NoError(t, err)
	require.NoError(t, s.DeleteDocument(ctx, doc.ID))

	versions, err := s.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, versions, "versions cascade with the document")

	assert.ErrorIs(t, s.DeleteDocument(ctx, doc.ID), ErrNotFound)
}
