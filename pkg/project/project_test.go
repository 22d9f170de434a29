package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildStore(t *testing.T) *patch.Store {
	t.Helper()
	store := patch.NewStore()

	synth, err := store.AddDevice(&patch.Device{
		Name: "Synth",
		Kind: "synth",
		Ports: []patch.Port{
			{ID: "out-l", Name: "Out L", Direction: patch.Output, Signal: signal.MonoAudio, Connector: signal.TS},
		},
	})
	require.NoError(t, err)

	mixer, err := store.AddDevice(&patch.Device{
		Name: "Mixer",
		Kind: "mixer",
		Ports: []patch.Port{
			{ID: "ch1", Name: "Channel 1", Direction: patch.Input, Signal: signal.MonoAudio, Connector: signal.XLR},
		},
	})
	require.NoError(t, err)

	_, err = store.AddCable(patch.Cable{
		SourceDeviceID: synth.ID, SourcePortID: "out-l",
		TargetDeviceID: mixer.ID, TargetPortID: "ch1",
	})
	require.NoError(t, err)

	store.SetViewport(patch.Viewport{X: 10, Y: 20, Zoom: 1.5})
	return store
}

func TestDocumentRoundTrip(t *testing.T) {
	store := buildStore(t)
	doc := FromStore("studio", store)

	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Len(t, doc.Devices, 2)
	assert.Len(t, doc.Cables, 1)

	fresh := patch.NewStore()
	require.NoError(t, doc.Apply(fresh))

	stats := fresh.GetStatistics()
	assert.Equal(t, 2, stats.DeviceCount)
	assert.Equal(t, 1, stats.CableCount)
	assert.Equal(t, patch.Viewport{X: 10, Y: 20, Zoom: 1.5}, fresh.Viewport())
}

func TestDocumentCheck_DanglingCable(t *testing.T) {
	doc := &Document{
		Version: CurrentVersion,
		Name:    "broken",
		Devices: []*patch.Device{{
			ID: "a", Name: "A",
			Ports: []patch.Port{{ID: "out", Name: "Out", Direction: patch.Output, Signal: signal.MonoAudio}},
		}},
		Cables: []patch.Cable{{
			ID:             "c1",
			SourceDeviceID: "a", SourcePortID: "out",
			TargetDeviceID: "ghost", TargetPortID: "in",
		}},
	}

	err := doc.Check()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target device")
}

func TestDocumentCheck_VersionBounds(t *testing.T) {
	doc := &Document{Version: CurrentVersion + 1, Name: "future"}
	assert.ErrorIs(t, doc.Check(), ErrUnsupportedVersion)

	doc.Version = 0
	assert.ErrorIs(t, doc.Check(), ErrUnsupportedVersion)
}

func TestDocumentMigrate_FillsCachedSignal(t *testing.T) {
	doc := &Document{
		Version: 1,
		Name:    "old",
		Devices: []*patch.Device{
			{ID: "a", Name: "A", Ports: []patch.Port{{ID: "out", Name: "Out", Direction: patch.Output, Signal: signal.SPDIF}}},
			{ID: "b", Name: "B", Ports: []patch.Port{{ID: "in", Name: "In", Direction: patch.Input, Signal: signal.SPDIF}}},
		},
		Cables: []patch.Cable{{
			ID:             "c1",
			SourceDeviceID: "a", SourcePortID: "out",
			TargetDeviceID: "b", TargetPortID: "in",
		}},
	}

	doc.migrate()

	assert.Equal(t, CurrentVersion, doc.Version)
	assert.Equal(t, signal.SPDIF, doc.Cables[0].Signal)
	assert.Equal(t, signal.DisplayColor(signal.SPDIF), doc.Cables[0].Color)
}

func TestFSStore_SaveLoadDelete(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), false)
	require.NoError(t, err)
	ctx := context.Background()

	doc := FromStore("studio", buildStore(t))
	require.NoError(t, store.Save(ctx, doc))

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"studio"}, names)

	loaded, err := store.Load(ctx, "studio")
	require.NoError(t, err)
	assert.Equal(t, doc.Name, loaded.Name)
	assert.Len(t, loaded.Devices, 2)
	assert.Len(t, loaded.Cables, 1)

	require.NoError(t, store.Delete(ctx, "studio"))
	_, err = store.Load(ctx, "studio")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStore_CompressedRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir, true)
	require.NoError(t, err)
	ctx := context.Background()

	doc := FromStore("studio", buildStore(t))
	require.NoError(t, store.Save(ctx, doc))

	// The file on disk is compressed, not plain JSON.
	raw, err := os.ReadFile(filepath.Join(dir, "studio"+compressedExt))
	require.NoError(t, err)
	assert.Equal(t, snappyMagic, raw[:len(snappyMagic)])
	assert.NotContains(t, string(raw), "sourceDeviceId")

	loaded, err := store.Load(ctx, "studio")
	require.NoError(t, err)
	assert.Len(t, loaded.Devices, 2)
}

func TestFSStore_ReadsOtherFormat(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	plain, err := NewFSStore(dir, false)
	require.NoError(t, err)
	require.NoError(t, plain.Save(ctx, FromStore("studio", buildStore(t))))

	compressed, err := NewFSStore(dir, true)
	require.NoError(t, err)
	loaded, err := compressed.Load(ctx, "studio")
	require.NoError(t, err)
	assert.Equal(t, "studio", loaded.Name)
}

func TestFSStore_CorruptFileFailsClosed(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+plainExt), []byte("{not json"), 0644))

	_, err = store.Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestFSStore_NameCannotEscapeDataDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFSStore(dir, false)
	require.NoError(t, err)

	doc := FromStore("../escape", buildStore(t))
	require.NoError(t, store.Save(context.Background(), doc))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".._escape"+plainExt, entries[0].Name())
}
