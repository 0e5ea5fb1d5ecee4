package annotations_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/panolabel/panolabel/internal/annotations"
)

// restBackend is a minimal annotation server for exercising the REST store.
type restBackend struct {
	annotations map[string]annotations.Annotation
}

func (b *restBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /annotations/{imageId}", func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("imageId") + "|" + r.URL.Query().Get("userId")
		a, ok := b.annotations[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "annotation not found"})
			return
		}
		json.NewEncoder(w).Encode(a)
	})

	mux.HandleFunc("POST /annotations", func(w http.ResponseWriter, r *http.Request) {
		var a annotations.Annotation
		if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		b.annotations[a.ImageID+"|"+a.UserID] = a
		json.NewEncoder(w).Encode(annotations.SaveResponse{Success: true, Annotation: a})
	})

	mux.HandleFunc("GET /export", func(w http.ResponseWriter, r *http.Request) {
		list := make([]annotations.Annotation, 0, len(b.annotations))
		for _, a := range b.annotations {
			list = append(list, a)
		}
		json.NewEncoder(w).Encode(list)
	})

	return mux
}

func newRestStore(t *testing.T) (*annotations.RestStore, *restBackend) {
	t.Helper()

	backend := &restBackend{annotations: make(map[string]annotations.Annotation)}
	srv := httptest.NewServer(backend.handler())
	t.Cleanup(srv.Close)

	return annotations.NewRestStore(srv.URL, 5*time.Second), backend
}

func TestRestStoreRoundTrip(t *testing.T) {
	store, _ := newRestStore(t)
	ctx := t.Context()

	saved, err := store.Insert(ctx, annotations.Annotation{
		ImageID:     "pano-1",
		UserID:      "u-1",
		Answers:     []annotations.Answer{{QuestionID: "q1", Answer: "Blue", Confidence: 3}},
		LastUpdated: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Error("server did not assign an id")
	}

	found, err := store.Find(ctx, "pano-1", "u-1")
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.ImageID != "pano-1" || len(found.Answers) != 1 {
		t.Errorf("unexpected annotation: %+v", found)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("got %d annotations, want 1", len(list))
	}
}

func TestRestStoreNotFound(t *testing.T) {
	store, _ := newRestStore(t)

	if _, err := store.Find(t.Context(), "missing", "u-1"); !errors.Is(err, annotations.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestRestStoreListByUserFilters(t *testing.T) {
	store, backend := newRestStore(t)

	backend.annotations["pano-1|u-1"] = annotations.Annotation{ImageID: "pano-1", UserID: "u-1"}
	backend.annotations["pano-1|u-2"] = annotations.Annotation{ImageID: "pano-1", UserID: "u-2"}

	list, err := store.ListByUser(t.Context(), "u-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(list) != 1 || list[0].UserID != "u-1" {
		t.Errorf("got %+v, want single u-1 annotation", list)
	}
}

func TestRestStoreServerDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	store := annotations.NewRestStore(url, time.Second)
	if _, err := store.Find(t.Context(), "pano-1", "u-1"); !errors.Is(err, annotations.ErrStoreUnavailable) {
		t.Errorf("got %v, want ErrStoreUnavailable", err)
	}
}
