package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/canvasflow/graph"
	"github.com/BaSui01/canvasflow/testutil"
	"github.com/BaSui01/canvasflow/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", testutil.Logger(t))
	require.NoError(t, err)
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := testutil.TestContext(t)
	doc := testutil.SupportTriageDocument()
	compiled := graph.Compile(doc.Nodes, doc.Edges)

	id, err := s.Save(ctx, doc, compiled)
	require.NoError(t, err)
	require.NotZero(t, id)

	back, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "support-triage", back.Name)
	assert.Equal(t, id, back.ID)
	assert.Len(t, back.Nodes, len(doc.Nodes))
	assert.Len(t, back.Edges, len(doc.Edges))

	// Route order survives persistence.
	var router *graph.Node
	for _, n := range back.Nodes {
		if n.ID == "router" {
			router = n
		}
	}
	require.NotNil(t, router)
	assert.Equal(t, []string{"billing", "technical"}, router.Data.RouteTable().Names())
}

func TestStore_SaveUpsertsByName(t *testing.T) {
	s := openTestStore(t)
	ctx := testutil.TestContext(t)
	doc := testutil.SupportTriageDocument()
	compiled := graph.Compile(doc.Nodes, doc.Edges)

	id1, err := s.Save(ctx, doc, compiled)
	require.NoError(t, err)

	doc.Description = "updated"
	id2, err := s.Save(ctx, doc, compiled)
	require.NoError(t, err)
	assert.Equal(t, id1, id2, "saving the same name updates in place")

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "updated", list[0].Description)
}

func TestStore_GetUnknown(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(testutil.TestContext(t), 42)
	require.Error(t, err)
	assert.Equal(t, types.ErrWorkflowNotFound, types.GetErrorCode(err))
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := testutil.TestContext(t)
	doc := testutil.SupportTriageDocument()
	id, err := s.Save(ctx, doc, graph.Compile(doc.Nodes, doc.Edges))
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestStore_StartStepIDPersisted(t *testing.T) {
	s := openTestStore(t)
	ctx := testutil.TestContext(t)
	doc := testutil.SupportTriageDocument()
	id, err := s.Save(ctx, doc, graph.Compile(doc.Nodes, doc.Edges))
	require.NoError(t, err)

	var rec WorkflowRecord
	require.NoError(t, s.db.First(&rec, id).Error)
	assert.Equal(t, "toolA", rec.StartStepID)
}
