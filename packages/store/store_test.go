package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	return &Document{
		Collections: []Collection{
			{
				ID:   "c1",
				Name: "Users",
				APIs: []SavedRequest{
					{ID: "r1", Name: "List users", Method: "GET", URL: "https://example.test/users",
						Headers: []Header{{Key: "Accept", Value: "application/json"}}},
					{ID: "r2", Name: "Create user", Method: "POST", URL: "https://example.test/users",
						Body: `{"name":"ada"}`},
				},
			},
			{
				ID:   "c2",
				Name: "Orders",
				APIs: []SavedRequest{
					{ID: "r3", Name: "List orders", Method: "GET", URL: "https://example.test/orders",
						Parameters: []Parameter{{Type: ParamQuery, Key: "page", Value: "1"}}},
				},
			},
		},
		APIs: []SavedRequest{
			{ID: "r4", Name: "Health", Method: "GET", URL: "https://example.test/health"},
		},
	}
}

func clone(t *testing.T, doc *Document) *Document {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	var out Document
	require.NoError(t, json.Unmarshal(data, &out))
	return &out
}

func TestLoad_MissingFileReturnsEmptyDocument(t *testing.T) {
	s := NewJSONStore(filepath.Join(t.TempDir(), "dist"))

	doc, err := s.Load()

	require.NoError(t, err)
	assert.Equal(t, NewDocument(), doc)
	assert.NotNil(t, doc.Collections)
	assert.NotNil(t, doc.APIs)
}

func TestBootstrap(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dist")
	s := NewJSONStore(dir)

	require.NoError(t, s.Bootstrap())

	data, err := os.ReadFile(filepath.Join(dir, DefaultFileName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"collections": [], "apis": []}`, string(data))

	t.Run("keeps existing file", func(t *testing.T) {
		require.NoError(t, s.Save(sampleDocument()))
		require.NoError(t, s.Bootstrap())

		doc, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, 4, doc.RequestCount())
	})
}

func TestSaveLoad_RoundTripIsByteIdentical(t *testing.T) {
	s := NewJSONStore(t.TempDir())
	require.NoError(t, s.Save(sampleDocument()))

	cycle := func() []byte {
		doc, err := s.Load()
		require.NoError(t, err)
		require.NoError(t, s.Save(doc))
		data, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		return data
	}

	first := cycle()
	second := cycle()
	assert.Equal(t, string(first), string(second))
}

func TestSave_WritesPrettyJSONWithExplicitArrays(t *testing.T) {
	s := NewJSONStore(t.TempDir())
	require.NoError(t, s.Save(&Document{APIs: []SavedRequest{{ID: "x", Name: "x", Method: "GET", URL: "http://x"}}}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	content := string(data)

	assert.Contains(t, content, "\n  \"collections\": []")
	assert.Contains(t, content, `"headers": []`)
	assert.Contains(t, content, `"parameters": []`)
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(dir)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Save(sampleDocument()))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, DefaultFileName, entries[0].Name())
}

func TestLoad_AcceptsFilesWithoutParameters(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "collections": [
    {"id": "c1", "name": "Legacy", "apis": [
      {"id": "r1", "name": "Old", "method": "GET", "url": "http://x", "headers": [], "body": ""}
    ]}
  ],
  "apis": []
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(content), 0o644))

	doc, err := NewJSONStore(dir).Load()

	require.NoError(t, err)
	require.Len(t, doc.Collections, 1)
	assert.Equal(t, "Old", doc.Collections[0].APIs[0].Name)
	assert.NotNil(t, doc.Collections[0].APIs[0].Parameters)
}

func TestLoad_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"collections": [`},
		{"collections not an array", `{"collections": "nope", "apis": []}`},
		{"request without url", `{"collections": [], "apis": [{"id": "r1", "name": "x", "method": "GET"}]}`},
		{"empty request id", `{"apis": [{"id": "", "name": "x", "method": "GET", "url": "http://x"}]}`},
		{"header value not a string", `{"apis": [{"id": "r1", "name": "x", "method": "GET", "url": "http://x", "headers": [{"key": "a", "value": 1}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFileName), []byte(tt.content), 0o644))

			_, err := NewJSONStore(dir).Load()

			require.Error(t, err)
			assert.True(t, IsKind(err, KindSerialization), "got %v", err)
		})
	}
}

func TestSave_RejectsInvalidDocument(t *testing.T) {
	s := NewJSONStore(t.TempDir())
	require.NoError(t, s.Save(sampleDocument()))

	err := s.Save(&Document{APIs: []SavedRequest{{Name: "no id", Method: "GET", URL: "http://x"}}})

	require.Error(t, err)
	assert.True(t, IsKind(err, KindSerialization))

	doc, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 4, doc.RequestCount())
}

func TestLoad_UnreadablePathIsIOError(t *testing.T) {
	dir := t.TempDir()
	// a directory where the file should be
	require.NoError(t, os.Mkdir(filepath.Join(dir, DefaultFileName), 0o755))

	_, err := NewJSONStore(dir).Load()

	require.Error(t, err)
	assert.True(t, IsKind(err, KindIO))
}

func TestUpsertRequest_NestedUpdatesOnlyThatEntry(t *testing.T) {
	doc := sampleDocument()
	before := clone(t, doc)

	updated := SavedRequest{ID: "r2", Name: "Create admin", Method: "PUT", URL: "https://example.test/admins", Body: "{}"}
	require.NoError(t, doc.UpsertRequest(updated))

	assert.Equal(t, updated, doc.Collections[0].APIs[1])

	// everything else is untouched
	expected := clone(t, before)
	expected.Collections[0].APIs[1] = updated
	assert.Equal(t, expected, clone(t, doc))
	assert.Equal(t, before.APIs, doc.APIs)
	assert.Equal(t, "Users", doc.Collections[0].Name)
}

func TestUpsertRequest_FallsBackToTopLevel(t *testing.T) {
	doc := sampleDocument()

	require.NoError(t, doc.UpsertRequest(SavedRequest{ID: "r4", Name: "Ping", Method: "GET", URL: "https://example.test/ping"}))

	assert.Equal(t, "Ping", doc.APIs[0].Name)
}

func TestUpsertRequest_FirstMatchWins(t *testing.T) {
	doc := sampleDocument()
	doc.Collections[1].APIs = append(doc.Collections[1].APIs, SavedRequest{ID: "r1", Name: "Duplicate"})
	doc.APIs = append(doc.APIs, SavedRequest{ID: "r1", Name: "Top duplicate"})

	require.NoError(t, doc.UpsertRequest(SavedRequest{ID: "r1", Name: "Replaced"}))

	assert.Equal(t, "Replaced", doc.Collections[0].APIs[0].Name)
	assert.Equal(t, "Duplicate", doc.Collections[1].APIs[1].Name)
	assert.Equal(t, "Top duplicate", doc.APIs[1].Name)
}

func TestUpsertRequest_NotFoundLeavesDocumentUnmodified(t *testing.T) {
	doc := sampleDocument()
	before := clone(t, doc)

	err := doc.UpsertRequest(SavedRequest{ID: "missing", Name: "x"})

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, clone(t, doc))
}

func TestSaveRequest(t *testing.T) {
	s := NewJSONStore(t.TempDir())
	require.NoError(t, s.Save(sampleDocument()))

	t.Run("persists the update", func(t *testing.T) {
		require.NoError(t, s.SaveRequest(SavedRequest{ID: "r3", Name: "Orders v2", Method: "GET", URL: "https://example.test/v2/orders"}))

		doc, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, "Orders v2", doc.Collections[1].APIs[0].Name)
	})

	t.Run("not found does not write", func(t *testing.T) {
		before, err := os.ReadFile(s.Path())
		require.NoError(t, err)

		err = s.SaveRequest(SavedRequest{ID: "nope"})
		assert.ErrorIs(t, err, ErrNotFound)

		after, err := os.ReadFile(s.Path())
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})
}

func TestFindRequest(t *testing.T) {
	doc := sampleDocument()

	req, collectionID, err := doc.FindRequest("r3")
	require.NoError(t, err)
	assert.Equal(t, "List orders", req.Name)
	assert.Equal(t, "c2", collectionID)

	req, collectionID, err = doc.FindRequest("r4")
	require.NoError(t, err)
	assert.Equal(t, "Health", req.Name)
	assert.Empty(t, collectionID)

	_, _, err = doc.FindRequest("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddCollectionAndRequest(t *testing.T) {
	doc := NewDocument()

	c := doc.AddCollection("Payments")
	assert.NotEmpty(t, c.ID)
	assert.Len(t, doc.Collections, 1)

	req, err := doc.AddRequest(c.ID, SavedRequest{Name: "Charge", Method: "POST", URL: "https://example.test/charge"})
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, []Header{}, req.Headers)
	assert.Len(t, doc.Collections[0].APIs, 1)

	top, err := doc.AddRequest("", SavedRequest{ID: "fixed", Name: "Top"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", top.ID)
	assert.Len(t, doc.APIs, 1)

	_, err = doc.AddRequest("unknown", SavedRequest{Name: "Lost"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, doc.RequestCount())
}

func TestUpdate(t *testing.T) {
	s := NewJSONStore(t.TempDir())

	doc, err := s.Update(func(doc *Document) error {
		doc.AddCollection("New")
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, doc.Collections, 1)

	_, err = s.Update(func(doc *Document) error {
		doc.AddCollection("Discarded")
		_, err := doc.AddRequest("unknown", SavedRequest{})
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded.Collections, 1)
}

func TestWatch_ReloadsOnExternalChange(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(dir)
	require.NoError(t, s.Bootstrap())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Document, 4)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.Watch(ctx, func(doc *Document, err error) {
			if err == nil {
				changes <- doc
			}
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, NewJSONStore(dir).Save(sampleDocument()))

	select {
	case doc := <-changes:
		assert.Equal(t, 4, doc.RequestCount())
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatch_CallbacksNeverOverlapOrOutliveWatch(t *testing.T) {
	dir := t.TempDir()
	s := NewJSONStore(dir)
	require.NoError(t, s.Bootstrap())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var active, overlaps, lateCalls atomic.Int32
	var returned atomic.Bool
	entered := make(chan struct{}, 16)

	watchErr := make(chan error, 1)
	go func() {
		err := s.Watch(ctx, func(doc *Document, err error) {
			if returned.Load() {
				lateCalls.Add(1)
			}
			if active.Add(1) > 1 {
				overlaps.Add(1)
			}
			select {
			case entered <- struct{}{}:
			default:
			}
			time.Sleep(500 * time.Millisecond)
			active.Add(-1)
		})
		returned.Store(true)
		watchErr <- err
	}()

	time.Sleep(100 * time.Millisecond)
	writer := NewJSONStore(dir)
	for i := 0; i < 3; i++ {
		require.NoError(t, writer.Save(sampleDocument()))
		time.Sleep(WatchDebounceDelay + 50*time.Millisecond)
	}

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report a change")
	}

	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	assert.Equal(t, int32(0), active.Load(), "a callback was still running after Watch returned")
	time.Sleep(WatchDebounceDelay + 200*time.Millisecond)
	assert.Equal(t, int32(0), lateCalls.Load())
	assert.Equal(t, int32(0), overlaps.Load())
}

func TestError_Format(t *testing.T) {
	err := &Error{Op: "store.read", Kind: KindIO, Path: "/tmp/api.json", Err: os.ErrPermission}
	assert.Equal(t, "store.read: io (path=/tmp/api.json): permission denied", err.Error())
	assert.ErrorIs(t, err, os.ErrPermission)
}
