package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gclql/internal/schema"
	"github.com/roach88/gclql/internal/testutil"
)

func TestSave_FirstSnapshot(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sc := testutil.FixtureContext(t)

	snap, created, err := s.Save(ctx, sc, "file:schema.yaml")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "snap-1", snap.ID)
	assert.Equal(t, int64(1), snap.Seq)
	assert.Equal(t, "datasets", snap.MainTable)
	assert.Equal(t, sc.Fingerprint(), snap.Fingerprint)
	assert.Equal(t, "file:schema.yaml", snap.Source)
	assert.True(t, snap.CreatedAt.Equal(testutil.FixtureEpoch))
}

func TestSave_UnchangedSchemaIsNoop(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, created, err := s.Save(ctx, testutil.FixtureContext(t), "a")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := s.Save(ctx, testutil.FixtureContext(t), "b")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, "a", again.Source)

	hist, err := s.History(ctx, "datasets", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func changedContext(t *testing.T, extra string) *schema.Context {
	t.Helper()
	d := testutil.FixtureDiscovery()
	d.MetadataFields = append(d.MetadataFields, extra)
	sc, err := schema.Build(d, schema.DefaultOptions())
	require.NoError(t, err)
	return sc
}

func TestLatestAndHistory(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, _, err := s.Save(ctx, testutil.FixtureContext(t), "v1")
	require.NoError(t, err)
	_, _, err = s.Save(ctx, changedContext(t, "run"), "v2")
	require.NoError(t, err)
	third, _, err := s.Save(ctx, changedContext(t, "beam"), "v3")
	require.NoError(t, err)

	latest, err := s.Latest(ctx, "datasets")
	require.NoError(t, err)
	assert.Equal(t, third.ID, latest.ID)
	assert.Contains(t, latest.Discovery.MetadataFields, "beam")
	assert.True(t, latest.CreatedAt.Equal(testutil.FixtureEpoch.Add(2*time.Second)))

	hist, err := s.History(ctx, "datasets", 0)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []string{"v3", "v2", "v1"}, []string{hist[0].Source, hist[1].Source, hist[2].Source})

	limited, err := s.History(ctx, "datasets", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	got, err := s.Get(ctx, hist[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", got.Source)
}

func TestLatest_NotFound(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx, "datasets")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	hist, err := s.History(ctx, "datasets", 10)
	require.NoError(t, err)
	assert.NotNil(t, hist)
	assert.Empty(t, hist)
}

func TestStoredDiscoveryRebuildsSameContext(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	sc := testutil.FixtureContext(t)

	_, _, err := s.Save(ctx, sc, "")
	require.NoError(t, err)

	p := schema.NewProvider(schema.DefaultOptions())
	rebuilt, err := p.Refresh(ctx, s.Source("datasets"))
	require.NoError(t, err)
	assert.Equal(t, sc.Fingerprint(), rebuilt.Fingerprint())
	assert.Equal(t, sc.FieldNames(), rebuilt.FieldNames())
}

func TestSource_NoSnapshot(t *testing.T) {
	s := createTestStore(t)
	p := schema.NewProvider(schema.DefaultOptions())

	_, err := p.Refresh(context.Background(), s.Source("datasets"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, p.Current())
}

func TestDefaultIDsAreUUIDv7(t *testing.T) {
	id := newSnapshotID()
	assert.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14])
}
