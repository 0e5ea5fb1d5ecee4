package annotations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// RestStore is an annotation Store backed by a running annotation server's
// REST API. It lets the CLI and satellite tools share a central store
// without direct database access.
type RestStore struct {
	base   string
	client *http.Client
}

// NewRestStore creates a RestStore targeting the API at base
// (e.g. "http://localhost:8080/api").
func NewRestStore(base string, timeout time.Duration) *RestStore {
	return &RestStore{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (s *RestStore) Find(ctx context.Context, imageID, userID string) (*Annotation, error) {
	endpoint := fmt.Sprintf("%s/annotations/%s", s.base, url.PathEscape(imageID))
	if userID != "" {
		endpoint += "?userId=" + url.QueryEscape(userID)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: annotation lookup returned %d", ErrStoreUnavailable, resp.StatusCode)
	}

	var a Annotation
	if err := json.NewDecoder(resp.Body).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode annotation: %v", ErrStoreUnavailable, err)
	}

	return &a, nil
}

func (s *RestStore) List(ctx context.Context) ([]Annotation, error) {
	return s.export(ctx)
}

func (s *RestStore) ListByUser(ctx context.Context, userID string) ([]Annotation, error) {
	all, err := s.export(ctx)
	if err != nil {
		return nil, err
	}

	var list []Annotation
	for _, a := range all {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	return list, nil
}

// Insert and Update both post to the server's save endpoint, which is
// itself an upsert.

func (s *RestStore) Insert(ctx context.Context, a Annotation) (*Annotation, error) {
	return s.save(ctx, a)
}

func (s *RestStore) Update(ctx context.Context, a Annotation) (*Annotation, error) {
	return s.save(ctx, a)
}

func (s *RestStore) save(ctx context.Context, a Annotation) (*Annotation, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode annotation: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.base+"/annotations",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: annotation save returned %d", ErrStoreUnavailable, resp.StatusCode)
	}

	var result SaveResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode save response: %v", ErrStoreUnavailable, err)
	}

	stored := result.Annotation
	return &stored, nil
}

func (s *RestStore) export(ctx context.Context) ([]Annotation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/export", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: export returned %d", ErrStoreUnavailable, resp.StatusCode)
	}

	var list []Annotation
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: decode export: %v", ErrStoreUnavailable, err)
	}

	return list, nil
}
