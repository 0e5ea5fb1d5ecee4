package admin_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/panolabel/panolabel/internal/admin"
	"github.com/panolabel/panolabel/internal/annotations"
	"github.com/panolabel/panolabel/pkg/blobstore"
	"github.com/panolabel/panolabel/pkg/routes"
)

func adminServer(t *testing.T, f *fixture) *httptest.Server {
	t.Helper()

	handler := admin.NewHandler(f.sys, testLogger())

	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestProgressEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.seedAnnotations(t)
	srv := adminServer(t, f)

	resp, err := http.Get(srv.URL + "/progress?userId=" + f.worker.ID.String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var p annotations.Progress
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if p.Total != 3 || p.Completed != 1 || p.InProgress != 1 {
		t.Errorf("got %+v, want total 3, completed 1, inProgress 1", p)
	}
}

func TestExportEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.seedAnnotations(t)
	srv := adminServer(t, f)

	resp, err := http.Get(srv.URL + "/export")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var list []annotations.Annotation
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(list) != 3 {
		t.Errorf("got %d annotations, want 3", len(list))
	}
}

func TestDashboardEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.seedAnnotations(t)
	srv := adminServer(t, f)

	resp, err := http.Get(srv.URL + "/admin/dashboard?userId=" + f.admin.ID.String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}

	var d admin.Dashboard
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if d.TotalImages != 3 || d.ActiveUserCount != 2 {
		t.Errorf("got %+v", d)
	}

	forbidden, err := http.Get(srv.URL + "/admin/dashboard?userId=" + f.worker.ID.String())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer forbidden.Body.Close()
	if forbidden.StatusCode != http.StatusForbidden {
		t.Errorf("got status %d for non-admin, want 403", forbidden.StatusCode)
	}
}

func TestArchiveEndpoints(t *testing.T) {
	f := newFixture(t, newMemBlob())
	f.seedAnnotations(t)
	srv := adminServer(t, f)

	resp, err := http.Post(srv.URL+"/export/archive", "application/json", nil)
	if err != nil {
		t.Fatalf("archive request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("got status %d, want 201", resp.StatusCode)
	}

	var entry blobstore.Entry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	listResp, err := http.Get(srv.URL + "/export/archives")
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	defer listResp.Body.Close()

	var list admin.ArchiveList
	if err := json.NewDecoder(listResp.Body).Decode(&list); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(list.Archives) != 1 || list.Archives[0].Key != entry.Key {
		t.Errorf("got archives %+v, want the created entry", list.Archives)
	}

	dlResp, err := http.Get(srv.URL + "/export/archive/" + entry.Key)
	if err != nil {
		t.Fatalf("download request failed: %v", err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", dlResp.StatusCode)
	}
	if ct := dlResp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("got content type %q", ct)
	}
	data, err := io.ReadAll(dlResp.Body)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !strings.Contains(string(data), "annotations") {
		t.Error("archive body missing export payload")
	}

	missing, err := http.Get(srv.URL + "/export/archive/exports/missing.json")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d for missing archive, want 404", missing.StatusCode)
	}
}

func TestArchiveEndpointsDisabled(t *testing.T) {
	f := newFixture(t, nil)
	srv := adminServer(t, f)

	resp, err := http.Post(srv.URL+"/export/archive", "application/json", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", resp.StatusCode)
	}
}
