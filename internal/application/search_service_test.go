package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rifqiokta/socialhub/pkg/eventbus"
)

// postIndexStub is an in-memory PostIndex keyed by post id.
type postIndexStub struct {
	docs map[string]PostDocument
}

func newPostIndexStub() *postIndexStub {
	return &postIndexStub{docs: map[string]PostDocument{}}
}

func (s *postIndexStub) Index(_ context.Context, doc PostDocument) error {
	s.docs[doc.PostID] = doc
	return nil
}

func (s *postIndexStub) Remove(_ context.Context, postID string) error {
	delete(s.docs, postID)
	return nil
}

func (s *postIndexStub) Search(_ context.Context, q string, size int) ([]PostDocument, error) {
	var out []PostDocument
	for _, d := range s.docs {
		if len(out) >= size {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

func postCreatedPayload(t *testing.T, postID string) []byte {
	t.Helper()
	b, err := json.Marshal(eventbus.PostCreated{
		PostID:    postID,
		UserID:    "user-1",
		Content:   "hello",
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return b
}

func TestHandlePostCreatedIndexesDocument(t *testing.T) {
	idx := newPostIndexStub()
	svc := NewSearchService(idx, quietLogger())

	require.NoError(t, svc.HandlePostCreated(context.Background(), postCreatedPayload(t, "p1")))
	require.Equal(t, "hello", idx.docs["p1"].Content)
	require.Equal(t, "user-1", idx.docs["p1"].UserID)
}

func TestHandlePostCreatedRedeliveryIsUpsert(t *testing.T) {
	idx := newPostIndexStub()
	svc := NewSearchService(idx, quietLogger())

	payload := postCreatedPayload(t, "p1")
	require.NoError(t, svc.HandlePostCreated(context.Background(), payload))
	require.NoError(t, svc.HandlePostCreated(context.Background(), payload))
	require.Len(t, idx.docs, 1)
}

func TestHandlePostDeletedIsIdempotent(t *testing.T) {
	idx := newPostIndexStub()
	svc := NewSearchService(idx, quietLogger())

	require.NoError(t, svc.HandlePostCreated(context.Background(), postCreatedPayload(t, "p1")))

	payload, err := json.Marshal(eventbus.PostDeleted{PostID: "p1", UserID: "user-1"})
	require.NoError(t, err)
	require.NoError(t, svc.HandlePostDeleted(context.Background(), payload))
	require.Empty(t, idx.docs)

	// Redelivery after the document is already gone still succeeds.
	require.NoError(t, svc.HandlePostDeleted(context.Background(), payload))
}

func TestHandlerRejectsMalformedEvents(t *testing.T) {
	svc := NewSearchService(newPostIndexStub(), quietLogger())

	require.Error(t, svc.HandlePostCreated(context.Background(), []byte("{not json")))
	require.Error(t, svc.HandlePostCreated(context.Background(), []byte(`{"userId":"u1"}`)))
	require.Error(t, svc.HandlePostDeleted(context.Background(), []byte(`{}`)))
}

func TestSearchPostsClampsSize(t *testing.T) {
	idx := newPostIndexStub()
	svc := NewSearchService(idx, quietLogger())

	for i := 0; i < 15; i++ {
		require.NoError(t, svc.HandlePostCreated(context.Background(), postCreatedPayload(t, string(rune('a'+i)))))
	}

	docs, err := svc.SearchPosts(context.Background(), "hello", 0)
	require.NoError(t, err)
	require.Len(t, docs, 10) // size 0 falls back to the default page
}
