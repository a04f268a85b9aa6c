package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/az-math/azmath/internal/store"
)

func putDoc(t *testing.T, s *store.MemoryStore, collection, id, body string) {
	t.Helper()
	require.NoError(t, s.Put(context.Background(), collection, id, json.RawMessage(body), false))
}

func TestImageAuditor_Run(t *testing.T) {
	var headCount atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headCount.Add(1)
		switch r.URL.Path {
		case "/ok.png":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := store.NewMemoryStore()
	putDoc(t, s, store.CollectionLessons, "1", fmt.Sprintf(
		`{"id": 1, "blocks": [{"type": "image", "url": "%s/ok.png"}, {"type": "image", "url": "%s/gone.png"}]}`,
		srv.URL, srv.URL))
	putDoc(t, s, store.CollectionProblems, "2", fmt.Sprintf(
		`{"id": 2, "statement": [{"type": "image", "url": "%s/ok.png"}], "solutions": [{"id": 1, "blocks": [{"type": "image", "url": "%s/also-gone.png"}]}]}`,
		srv.URL, srv.URL))

	findings, err := NewImageAuditor(s).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, findings, 2)
	assert.Equal(t, store.CollectionLessons, findings[0].Collection)
	assert.Equal(t, "1", findings[0].DocID)
	assert.Equal(t, srv.URL+"/gone.png", findings[0].URL)
	assert.Equal(t, http.StatusNotFound, findings[0].StatusCode)

	assert.Equal(t, store.CollectionProblems, findings[1].Collection)
	assert.Equal(t, srv.URL+"/also-gone.png", findings[1].URL)

	assert.Equal(t, int64(3), headCount.Load(), "duplicate urls are checked once")
}

func TestImageAuditor_Run_CleanStore(t *testing.T) {
	s := store.NewMemoryStore()
	putDoc(t, s, store.CollectionLessons, "1", `{"id": 1, "blocks": [{"type": "text", "content": "no images"}]}`)

	findings, err := NewImageAuditor(s).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestImageAuditor_Run_UnreachableHost(t *testing.T) {
	s := store.NewMemoryStore()
	putDoc(t, s, store.CollectionLessons, "1",
		`{"id": 1, "blocks": [{"type": "image", "url": "http://127.0.0.1:1/img.png"}]}`)

	findings, err := NewImageAuditor(s).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.NotEmpty(t, findings[0].Err)
}
