package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/dd0wney/cluso-patchbay/pkg/checks"
	"github.com/dd0wney/cluso-patchbay/pkg/export"
	"github.com/dd0wney/cluso-patchbay/pkg/layout"
	"github.com/dd0wney/cluso-patchbay/pkg/library"
	"github.com/dd0wney/cluso-patchbay/pkg/patch"
	"github.com/dd0wney/cluso-patchbay/pkg/project"
	"github.com/dd0wney/cluso-patchbay/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceCRUD(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	// Create
	resp := postJSON(t, ts.URL+"/devices", DeviceRequest{
		Name: "Synth",
		Ports: []patch.Port{
			{ID: "out", Name: "Out", Direction: patch.Output, Signal: signal.MonoAudio},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[patch.Device](t, resp)
	assert.NotEmpty(t, created.ID, "server assigns an ID")

	// Missing name rejected
	resp = postJSON(t, ts.URL+"/devices", DeviceRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Get
	getResp, err := http.Get(ts.URL + "/devices/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	got := decodeBody[patch.Device](t, getResp)
	assert.Equal(t, "Synth", got.Name)

	// Get missing
	missResp, err := http.Get(ts.URL + "/devices/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missResp.StatusCode)
	missResp.Body.Close()

	// Delete
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/devices/"+created.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	delResp.Body.Close()

	listResp, err := http.Get(ts.URL + "/devices")
	require.NoError(t, err)
	devices := decodeBody[[]patch.Device](t, listResp)
	assert.Empty(t, devices)
}

func TestCableCreation(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	// Valid mono-to-mono connection.
	resp := postJSON(t, ts.URL+"/cables", CableRequest{Endpoint: Endpoint{
		SourceDeviceID: "synth", SourcePortID: "out",
		TargetDeviceID: "mixer", TargetPortID: "ch1",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[patch.Cable](t, resp)
	assert.Equal(t, signal.MonoAudio, created.Signal, "signal cached from source port")

	// Backwards connection refused.
	resp = postJSON(t, ts.URL+"/cables", CableRequest{Endpoint: Endpoint{
		SourceDeviceID: "mixer", SourcePortID: "ch1",
		TargetDeviceID: "synth", TargetPortID: "out",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	// Unresolved endpoint fails closed.
	resp = postJSON(t, ts.URL+"/cables", CableRequest{Endpoint: Endpoint{
		SourceDeviceID: "ghost", SourcePortID: "out",
		TargetDeviceID: "mixer", TargetPortID: "ch1",
	}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()
}

func TestCableCreation_MonoIntoStereoWarns(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	resp := postJSON(t, ts.URL+"/cables", CableRequest{Endpoint: Endpoint{
		SourceDeviceID: "synth", SourcePortID: "out",
		TargetDeviceID: "mixer", TargetPortID: "st-in",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "advisory warnings do not block")
	assert.NotEmpty(t, resp.Header.Get("X-Patchbay-Warning"))
	resp.Body.Close()
}

func TestCableCreation_CycleRejection(t *testing.T) {
	s, ts := newTestServer(t, Options{RejectCycles: true})
	seedDevices(t, s)
	_, err := s.store.AddDevice(&patch.Device{
		ID: "fx", Name: "FX",
		Ports: []patch.Port{
			{ID: "in", Name: "In", Direction: patch.Input, Signal: signal.MonoAudio},
			{ID: "out", Name: "Out", Direction: patch.Output, Signal: signal.MonoAudio},
		},
	})
	require.NoError(t, err)

	resp := postJSON(t, ts.URL+"/cables", CableRequest{Endpoint: Endpoint{
		SourceDeviceID: "synth", SourcePortID: "out",
		TargetDeviceID: "fx", TargetPortID: "in",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// With synth -> fx in place, fx -> synth would close the loop.
	resp = postJSON(t, ts.URL+"/cycle-check", Endpoint{
		SourceDeviceID: "fx", TargetDeviceID: "synth",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	check := decodeBody[CycleCheckResponse](t, resp)
	assert.True(t, check.WouldCreateCycle)

	// Nothing loops yet, so the report is empty.
	getResp, err := http.Get(ts.URL + "/cycle-check")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	report := decodeBody[CycleReportResponse](t, getResp)
	assert.Empty(t, report.Cycles)
	assert.Zero(t, report.Stats.TotalCycles)

	// Self-patch the FX unit directly in the store; the report picks it up.
	_, err = s.store.AddCable(patch.Cable{
		SourceDeviceID: "fx", SourcePortID: "out",
		TargetDeviceID: "fx", TargetPortID: "in",
	})
	require.NoError(t, err)

	getResp, err = http.Get(ts.URL + "/cycle-check")
	require.NoError(t, err)
	report = decodeBody[CycleReportResponse](t, getResp)
	assert.Equal(t, 1, report.Stats.TotalCycles)
	assert.Equal(t, 1, report.Stats.SelfPatches)
}

func TestValidateEndpoint(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	resp := postJSON(t, ts.URL+"/validate", Endpoint{
		SourceDeviceID: "synth", SourcePortID: "out",
		TargetDeviceID: "mixer", TargetPortID: "ch1",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decodeBody[ValidationResponse](t, resp)
	assert.True(t, result.Valid)
	assert.False(t, result.Warning)

	// Incomplete request rejected before validation.
	resp = postJSON(t, ts.URL+"/validate", Endpoint{SourceDeviceID: "synth"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAuditEndpoint(t *testing.T) {
	s, ts := newTestServer(t, Options{Auditor: checks.NewAuditor()})
	seedDevices(t, s)

	resp, err := http.Get(ts.URL + "/audit")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	audit := decodeBody[AuditResponse](t, resp)
	assert.Len(t, audit.Issues, 3, "every unconnected port reported")
	assert.Equal(t, 3, audit.Counts["Info"])
}

func TestTemplateEndpoints(t *testing.T) {
	_, ts := newTestServer(t, Options{Library: library.New()})

	resp, err := http.Get(ts.URL + "/templates")
	require.NoError(t, err)
	templates := decodeBody[[]library.Template](t, resp)
	require.NotEmpty(t, templates)

	placeResp := postJSON(t, ts.URL+"/templates/place", PlaceRequest{
		TemplateID: templates[0].ID, X: 120, Y: 80,
	})
	require.Equal(t, http.StatusCreated, placeResp.StatusCode)
	device := decodeBody[patch.Device](t, placeResp)
	assert.Equal(t, 120.0, device.X)
	assert.NotEmpty(t, device.Ports)

	missResp := postJSON(t, ts.URL+"/templates/place", PlaceRequest{TemplateID: "nope"})
	assert.Equal(t, http.StatusNotFound, missResp.StatusCode)
	missResp.Body.Close()
}

func TestLayoutEndpoint(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	resp := postJSON(t, ts.URL+"/layout", LayoutRequest{Algorithm: "signal-flow"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	positions := decodeBody[map[string]layout.Position](t, resp)
	assert.Len(t, positions, 2)

	resp = postJSON(t, ts.URL+"/layout", LayoutRequest{Algorithm: "mystery"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Apply writes positions back.
	resp = postJSON(t, ts.URL+"/layout", LayoutRequest{Algorithm: "signal-flow", Apply: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	d, err := s.store.GetDevice("synth")
	require.NoError(t, err)
	assert.NotZero(t, d.X)
}

func TestExportEndpoints(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	renderResp, err := http.Get(ts.URL + "/export/render")
	require.NoError(t, err)
	doc := decodeBody[export.RenderDocument](t, renderResp)
	assert.Len(t, doc.Nodes, 2)

	dotResp, err := http.Get(ts.URL + "/export/dot?name=Studio")
	require.NoError(t, err)
	defer dotResp.Body.Close()
	require.Equal(t, http.StatusOK, dotResp.StatusCode)
	body, err := io.ReadAll(dotResp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), `digraph "Studio"`))
}

func TestProjectEndpoints(t *testing.T) {
	store, err := project.NewFSStore(t.TempDir(), false)
	require.NoError(t, err)
	s, ts := newTestServer(t, Options{Projects: store})
	seedDevices(t, s)

	// Save
	resp := postJSON(t, ts.URL+"/projects", ProjectRequest{Name: "studio-a"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// List
	listResp, err := http.Get(ts.URL + "/projects")
	require.NoError(t, err)
	names := decodeBody[[]string](t, listResp)
	assert.Contains(t, names, "studio-a")

	// Load document
	loadResp, err := http.Get(ts.URL + "/projects/studio-a")
	require.NoError(t, err)
	doc := decodeBody[project.Document](t, loadResp)
	assert.Len(t, doc.Devices, 2)

	// Wipe the live graph, then restore.
	require.NoError(t, s.store.DeleteDevice("synth"))
	require.NoError(t, s.store.DeleteDevice("mixer"))

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/projects/studio-a", nil)
	require.NoError(t, err)
	putResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, putResp.StatusCode)
	putResp.Body.Close()
	assert.Len(t, s.store.Devices(), 2)

	// Delete
	req, err = http.NewRequest(http.MethodDelete, ts.URL+"/projects/studio-a", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, delResp.StatusCode)
	delResp.Body.Close()

	missResp, err := http.Get(ts.URL + "/projects/studio-a")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missResp.StatusCode)
	missResp.Body.Close()
}

func TestProjectsUnconfigured(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/projects")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, http.StatusServiceUnavailable, errResp.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)

	// Nothing recorded yet.
	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	status := decodeBody[HistoryStatusResponse](t, resp)
	assert.False(t, status.CanUndo)
	assert.False(t, status.CanRedo)

	resp = postJSON(t, ts.URL+"/history/undo", struct{}{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Patch synth into the mixer, then unwind it.
	resp = postJSON(t, ts.URL+"/cables", CableRequest{Endpoint: Endpoint{
		SourceDeviceID: "synth", SourcePortID: "out",
		TargetDeviceID: "mixer", TargetPortID: "ch1",
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cable := decodeBody[patch.Cable](t, resp)

	resp = postJSON(t, ts.URL+"/history/undo", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	action := decodeBody[HistoryActionResponse](t, resp)
	assert.Equal(t, "add cable", action.Action)
	assert.Empty(t, s.store.Cables())

	// Redo brings the same cable back, same ID.
	resp = postJSON(t, ts.URL+"/history/redo", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restored, err := s.store.GetCable(cable.ID)
	require.NoError(t, err)
	assert.Equal(t, cable.SourcePortID, restored.SourcePortID)
	resp.Body.Close()
}

func TestHistoryDeviceDeleteRestoresCables(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	seedDevices(t, s)
	_, err := s.store.AddCable(patch.Cable{
		ID:             "c1",
		SourceDeviceID: "synth", SourcePortID: "out",
		TargetDeviceID: "mixer", TargetPortID: "ch1",
	})
	require.NoError(t, err)

	// Deleting the synth cascades to its cable.
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/devices/synth", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, s.store.Cables())

	// Undo restores the device and its cable.
	resp = postJSON(t, ts.URL+"/history/undo", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	_, err = s.store.GetDevice("synth")
	require.NoError(t, err)
	restored, err := s.store.GetCable("c1")
	require.NoError(t, err)
	assert.Equal(t, "mixer", restored.TargetDeviceID)
}
