package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asterisk-app/asterisk/internal/fill"
	"github.com/asterisk-app/asterisk/internal/model"
	"github.com/asterisk-app/asterisk/internal/vault"
)

func newTestServer(t *testing.T) (*httptest.Server, *fakeClock, vault.Store) {
	t.Helper()
	clock := newFakeClock()
	store := vault.NewMemory()
	srv := NewServer(store, NewCache[model.FormSnapshot](SnapshotTTL, clock.Now), NewCommandQueue(clock.Now), fill.NewUndoTracker(clock.Now))

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, clock, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func doDelete(t *testing.T, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestServer_Health(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestServer_SnapshotRoundTrip(t *testing.T) {
	ts, clock, _ := newTestServer(t)

	snapshot := model.FormSnapshot{
		URL:    "https://example.com/signup",
		Domain: "example.com",
		Fields: []model.FieldDescriptor{{ID: "f1", Label: "Email", Type: model.FieldEmail}},
	}
	resp := postJSON(t, ts.URL+"/v1/form-snapshots", snapshot)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/v1/form-snapshots")
	require.NoError(t, err)
	got := decodeBody[model.FormSnapshot](t, resp)
	assert.Equal(t, "example.com", got.Domain)
	require.Len(t, got.Fields, 1)

	// Expiry empties the snapshot endpoint.
	clock.Advance(SnapshotTTL + time.Second)
	resp, err = http.Get(ts.URL + "/v1/form-snapshots")
	require.NoError(t, err)
	empty := decodeBody[*model.FormSnapshot](t, resp)
	assert.Nil(t, empty)
}

func TestServer_SnapshotBadBody(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/v1/form-snapshots", "application/json", bytes.NewReader([]byte("{nope")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_VaultCRUD(t *testing.T) {
	ts, _, store := newTestServer(t)

	item := vault.NewItem("email", "jane@example.com", "Email", vault.CategoryContact,
		vault.Provenance{Source: vault.SourceUserEntered}, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	resp := postJSON(t, ts.URL+"/v1/vault", item)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/v1/vault")
	require.NoError(t, err)
	items := decodeBody[[]vault.Item](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "email", items[0].Key)

	resp = doDelete(t, ts.URL+"/v1/vault?key=email")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	got, err := store.Get(context.Background(), "email")
	require.NoError(t, err)
	assert.Nil(t, got)

	resp = doDelete(t, ts.URL+"/v1/vault?key=email")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doDelete(t, ts.URL+"/v1/vault")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_FillCommandLifecycle(t *testing.T) {
	ts, clock, _ := newTestServer(t)

	now := clock.Now()
	cmd := model.FillCommand{
		ID:           "c1",
		TargetDomain: "example.com",
		Fills:        []model.FieldFill{{FieldID: "f1", Value: "Jane"}},
		CreatedAt:    now,
		ExpiresAt:    now.Add(model.CommandTTL),
	}
	resp := postJSON(t, ts.URL+"/v1/fill-commands", cmd)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err := http.Get(ts.URL + "/v1/fill-commands?domain=example.com")
	require.NoError(t, err)
	pending := decodeBody[[]model.FillCommand](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, "c1", pending[0].ID)

	// A different domain sees nothing.
	resp, err = http.Get(ts.URL + "/v1/fill-commands?domain=other.com")
	require.NoError(t, err)
	assert.Empty(t, decodeBody[[]model.FillCommand](t, resp))

	resp = doDelete(t, ts.URL+"/v1/fill-commands?id=c1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/v1/fill-commands")
	require.NoError(t, err)
	assert.Empty(t, decodeBody[[]model.FillCommand](t, resp))
}

func TestServer_ExpiredCommandNotServed(t *testing.T) {
	ts, clock, _ := newTestServer(t)

	now := clock.Now()
	cmd := model.FillCommand{
		ID:           "c1",
		TargetDomain: "example.com",
		CreatedAt:    now,
		ExpiresAt:    now.Add(model.CommandTTL),
	}
	resp := postJSON(t, ts.URL+"/v1/fill-commands", cmd)
	resp.Body.Close()

	clock.Advance(model.CommandTTL + time.Second)

	resp, err := http.Get(ts.URL + "/v1/fill-commands?domain=example.com")
	require.NoError(t, err)
	assert.Empty(t, decodeBody[[]model.FillCommand](t, resp))
}

func TestServer_UndoFlow(t *testing.T) {
	ts, _, _ := newTestServer(t)

	// Nothing recorded yet.
	resp, err := http.Post(ts.URL+"/v1/undo", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	result := map[string]any{
		"entryId":   "entry-1",
		"domain":    "example.com",
		"oldValues": map[string]string{"f1": "old"},
		"newValues": map[string]string{"f1": "new"},
	}
	resp = postJSON(t, ts.URL+"/v1/fill-results", result)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Post(ts.URL+"/v1/undo", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	cmd := decodeBody[model.FillCommand](t, resp)
	assert.Equal(t, "example.com", cmd.TargetDomain)
	require.Len(t, cmd.Fills, 1)
	assert.Equal(t, model.FieldFill{FieldID: "f1", Value: "old"}, cmd.Fills[0])

	// The restore command is queued for the extension to poll.
	resp, err = http.Get(ts.URL + "/v1/fill-commands?domain=example.com")
	require.NoError(t, err)
	pending := decodeBody[[]model.FillCommand](t, resp)
	require.Len(t, pending, 1)
	assert.Equal(t, cmd.ID, pending[0].ID)

	// Single slot: a second undo has nothing left.
	resp, err = http.Post(ts.URL+"/v1/undo", "application/json", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestServer_AckRequiresID(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := doDelete(t, ts.URL+"/v1/fill-commands")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}
