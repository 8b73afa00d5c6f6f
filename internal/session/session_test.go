package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scriptblocks/internal/generator"
	"github.com/roach88/scriptblocks/internal/graph"
	"github.com/roach88/scriptblocks/internal/ir"
	"github.com/roach88/scriptblocks/internal/parser"
	"github.com/roach88/scriptblocks/internal/testutil"
)

func loaded(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s := New(append([]Option{WithIDs(testutil.NewSequentialIDs("s"))}, opts...)...)
	require.NoError(t, s.Load(testutil.NestedDocument(t), LoadOptions{}))
	return s
}

func record(s *Session) *[]Change {
	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })
	return &changes
}

func TestEditsBeforeLoad(t *testing.T) {
	s := New()
	assert.Nil(t, s.Document())

	_, err := s.Update("w1", map[string]any{"duration": 2.0})
	assert.ErrorIs(t, err, ErrNoDocument)
	_, err = s.Code()
	assert.ErrorIs(t, err, ErrNoDocument)
	assert.ErrorIs(t, s.Load(nil, LoadOptions{}), ErrNoDocument)

	_, ok := s.Undo()
	assert.False(t, ok)
}

func TestLoad_ClonesInput(t *testing.T) {
	doc := testutil.NestedDocument(t)
	s := New()
	require.NoError(t, s.Load(doc, LoadOptions{}))

	doc.Blocks["w1"].Data["duration"] = 9.0
	assert.Equal(t, 1.0, s.Document().Blocks["w1"].Data["duration"])
}

func TestLoad_SilentSkipsSubscribers(t *testing.T) {
	s := New()
	changes := record(s)

	require.NoError(t, s.Load(testutil.NestedDocument(t), LoadOptions{Silent: true}))
	assert.Empty(t, *changes)

	require.NoError(t, s.Load(testutil.NestedDocument(t), LoadOptions{}))
	require.Len(t, *changes, 1)
	assert.Equal(t, OpLoad, (*changes)[0].Op)
}

func TestLoad_ClearsHistoryUnlessKept(t *testing.T) {
	s := loaded(t)
	_, err := s.Update("w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)
	require.True(t, s.CanUndo())

	require.NoError(t, s.Load(testutil.NestedDocument(t), LoadOptions{KeepHistory: true}))
	assert.True(t, s.CanUndo())

	require.NoError(t, s.Load(testutil.NestedDocument(t), LoadOptions{}))
	assert.False(t, s.CanUndo())
}

func TestEdits_NotifyAndBumpVersion(t *testing.T) {
	s := loaded(t)
	changes := record(s)

	_, err := s.Update("w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)
	_, err = s.Insert(testutil.RootID, ir.SlotBody, &ir.Block{ID: "n1", Kind: ir.KindLogCall, Data: map[string]any{"message": "hi"}}, 0)
	require.NoError(t, err)
	_, err = s.Move("n1", "loop", ir.SlotBody, 1)
	require.NoError(t, err)
	_, err = s.Reorder("loop", ir.SlotBody, 1, 0)
	require.NoError(t, err)
	_, copyID, err := s.Duplicate("c1")
	require.NoError(t, err)
	_, err = s.Remove("p1", "", "")
	require.NoError(t, err)

	ops := make([]Op, 0, len(*changes))
	versions := make([]int, 0, len(*changes))
	for _, c := range *changes {
		ops = append(ops, c.Op)
		versions = append(versions, c.Version)
	}
	assert.Equal(t, []Op{OpUpdate, OpInsert, OpMove, OpReorder, OpDuplicate, OpRemove}, ops)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, versions)
	assert.Equal(t, "n1", (*changes)[1].BlockID)
	assert.Equal(t, copyID, (*changes)[4].BlockID)
	assert.Equal(t, "s-1", copyID)

	doc := s.Document()
	require.NoError(t, graph.Validate(doc))
	assert.Equal(t, []string{"n1", "if1"}, doc.Blocks["loop"].Children[ir.SlotBody])
	assert.Equal(t, []string{"w1", "loop", "c1", copyID}, doc.Blocks[testutil.RootID].Children[ir.SlotBody])
}

func TestEdits_FailureLeavesSessionUntouched(t *testing.T) {
	s := loaded(t)
	changes := record(s)
	before := s.Document()

	_, err := s.Move("loop", "if1", ir.SlotConsequent, 0)
	require.Error(t, err)
	assert.True(t, graph.IsCycleError(err))
	assert.Contains(t, err.Error(), "move:")

	assert.Same(t, before, s.Document())
	assert.Empty(t, *changes)
	assert.False(t, s.CanUndo())
}

func TestEdit_CustomFunc(t *testing.T) {
	s := loaded(t)
	changes := record(s)

	_, err := s.Edit(OpUpdate, func(doc *ir.Document) (*ir.Document, string, error) {
		id := doc.Blocks[testutil.RootID].Children[ir.SlotBody][0]
		next, err := graph.UpdateBlockData(doc, id, map[string]any{"duration": 9.0})
		return next, id, err
	})
	require.NoError(t, err)
	require.Len(t, *changes, 1)
	assert.Equal(t, "w1", (*changes)[0].BlockID)
	assert.Equal(t, 9.0, s.Document().Blocks["w1"].Data["duration"])
	assert.True(t, s.CanUndo())

	_, err = s.Edit(OpRemove, func(doc *ir.Document) (*ir.Document, string, error) {
		next, err := graph.RemoveBlock(doc, "missing", "", "")
		return next, "missing", err
	})
	assert.True(t, graph.IsNotFound(err))
	assert.Len(t, *changes, 1)
}

func TestEdits_StampUpdatedAt(t *testing.T) {
	clock := testutil.NewDeterministicClock()
	clock.Now() // the first instant is the fixture's import time
	s := loaded(t, WithClock(clock.Now))
	original := s.Document()
	require.Equal(t, testutil.Epoch, original.Metadata.UpdatedAt)

	_, err := s.Update("w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)
	assert.Equal(t, testutil.Epoch.Add(time.Second), s.Document().Metadata.UpdatedAt)
	assert.Equal(t, original.Metadata.CreatedAt, s.Document().Metadata.CreatedAt)
	assert.Equal(t, testutil.Epoch, original.Metadata.UpdatedAt, "previous revision keeps its stamp")

	_, err = s.Remove("c1", "", "")
	require.NoError(t, err)
	assert.Equal(t, testutil.Epoch.Add(2*time.Second), s.Document().Metadata.UpdatedAt)

	doc, ok := s.Undo()
	require.True(t, ok)
	assert.Equal(t, testutil.Epoch.Add(time.Second), doc.Metadata.UpdatedAt)
}

func TestEdits_NoOpIsNotRecorded(t *testing.T) {
	s := loaded(t)
	changes := record(s)

	_, err := s.Reorder(testutil.RootID, ir.SlotBody, 1, 1)
	require.NoError(t, err)
	assert.Empty(t, *changes)
	assert.False(t, s.CanUndo())
}

func TestUndoRedo(t *testing.T) {
	s := loaded(t)
	original := s.Document()

	_, err := s.Update("w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)
	edited := s.Document()
	_, err = s.Remove("c1", "", "")
	require.NoError(t, err)
	removed := s.Document()

	doc, ok := s.Undo()
	require.True(t, ok)
	assert.Same(t, edited, doc)
	doc, ok = s.Undo()
	require.True(t, ok)
	assert.Same(t, original, doc)
	_, ok = s.Undo()
	assert.False(t, ok)

	doc, ok = s.Redo()
	require.True(t, ok)
	assert.Same(t, edited, doc)
	assert.True(t, s.CanRedo())

	// A new edit drops the redo branch.
	_, err = s.Update("w1", map[string]any{"duration": 3.0})
	require.NoError(t, err)
	assert.False(t, s.CanRedo())
	assert.NotSame(t, removed, s.Document())
}

func TestUndo_Notifies(t *testing.T) {
	s := loaded(t)
	_, err := s.Update("w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)

	changes := record(s)
	_, ok := s.Undo()
	require.True(t, ok)
	_, ok = s.Redo()
	require.True(t, ok)

	require.Len(t, *changes, 2)
	assert.Equal(t, OpUndo, (*changes)[0].Op)
	assert.Equal(t, 0, (*changes)[0].Version)
	assert.Equal(t, OpRedo, (*changes)[1].Op)
	assert.Equal(t, 1, (*changes)[1].Version)
}

func TestHistoryLimit(t *testing.T) {
	s := loaded(t, WithHistoryLimit(2))
	for i := range 4 {
		_, err := s.Update("w1", map[string]any{"duration": float64(i)})
		require.NoError(t, err)
	}

	steps := 0
	for s.CanUndo() {
		s.Undo()
		steps++
	}
	assert.Equal(t, 2, steps)
	assert.Equal(t, 1.0, s.Document().Blocks["w1"].Data["duration"])

	off := loaded(t, WithHistoryLimit(0))
	_, err := off.Update("w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)
	assert.False(t, off.CanUndo())
}

func TestUnsubscribe(t *testing.T) {
	s := loaded(t)
	calls := 0
	unsubscribe := s.Subscribe(func(Change) { calls++ })

	_, err := s.Update("w1", map[string]any{"duration": 2.0})
	require.NoError(t, err)
	unsubscribe()
	_, err = s.Update("w1", map[string]any{"duration": 3.0})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestSubscribersMayReadSession(t *testing.T) {
	s := loaded(t)
	var seen []string
	s.Subscribe(func(c Change) {
		code, err := s.Code()
		require.NoError(t, err)
		seen = append(seen, code)
		assert.Same(t, c.Document, s.Document())
	})

	_, err := s.Update("c1", map[string]any{"target": "#cancel"})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Contains(t, seen[0], `click("#cancel");`)
}

func TestImportAndCode(t *testing.T) {
	s := New(WithIDs(testutil.NewSequentialIDs("i")), WithGeneratorOptions(generator.WithIndent("\t")))
	doc, err := s.Import(parser.Input{Code: "while (x) { wait(1) }"}, LoadOptions{Silent: true})
	require.NoError(t, err)
	assert.Equal(t, "i-2", doc.Root)

	code, err := s.Code()
	require.NoError(t, err)
	assert.Equal(t, "while (x) {\n\twait(1);\n}\n", code)

	_, err = s.Import(parser.Input{Code: "wait(("}, LoadOptions{})
	assert.True(t, parser.IsSyntaxError(err))
	assert.Same(t, doc, s.Document(), "a failed import keeps the document")
}

func TestConcurrentEditsAreSerialized(t *testing.T) {
	s := loaded(t)
	var versions []int
	var mu sync.Mutex
	s.Subscribe(func(c Change) {
		mu.Lock()
		versions = append(versions, c.Version)
		mu.Unlock()
	})

	const n = 20
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update("w1", map[string]any{"duration": float64(i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, n, s.Document().Version)
	require.Len(t, versions, n)
	for i, v := range versions {
		assert.Equal(t, i+1, v, "deliveries follow commit order")
	}
}
