package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/channelscan/channelscan/internal/entity"
	"github.com/channelscan/channelscan/internal/repo"
)

// staticRepo serves a fixed GetAll result.
type staticRepo struct {
	repo.Repository
	docs []repo.Doc
	err  error
}

func (s *staticRepo) GetAll(_ context.Context) ([]repo.Doc, error) {
	return s.docs, s.err
}

func TestLoad(t *testing.T) {
	src := &staticRepo{docs: []repo.Doc{
		{"kind": "channel", "id": int64(100), "name": "news", "title": "News"},
		{"kind": "user", "id": int64(300), "username": "someone"},
		{"title": "no id, skipped"},
	}}

	dir, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(dir) != 2 {
		t.Fatalf("len = %d, want 2", len(dir))
	}
	if d := dir.Get(100); d == nil || d.Handle() != "news" {
		t.Errorf("Get(100) = %v", d)
	}
	if d := dir.Get(999); d != nil {
		t.Errorf("Get on a gap should be nil, got %v", d)
	}
}

func TestLoad_RepoError(t *testing.T) {
	src := &staticRepo{err: errors.New("boom")}
	if _, err := Load(context.Background(), src); err == nil {
		t.Fatal("expected error")
	}
}

func TestFromDescriptors(t *testing.T) {
	dir := FromDescriptors([]entity.Descriptor{
		&entity.Channel{ID: 1, Title: "a"},
		nil,
		&entity.Chat{ID: 2, Title: "b"},
	})
	if len(dir) != 2 {
		t.Errorf("len = %d, want 2", len(dir))
	}
}
