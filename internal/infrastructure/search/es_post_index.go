package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/rifqiokta/socialhub/internal/application"
)

// ESPostIndex maintains the posts search index in Elasticsearch. Documents
// are keyed by post id, so indexing the same event twice overwrites the same
// document and deleting an absent document is a no-op.
type ESPostIndex struct {
	Client    *elasticsearch.Client
	IndexName string
}

func NewESPostIndex(client *elasticsearch.Client, index string) *ESPostIndex {
	return &ESPostIndex{Client: client, IndexName: index}
}

func (i *ESPostIndex) Index(ctx context.Context, doc application.PostDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      i.IndexName,
		DocumentID: doc.PostID,
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.Client)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", doc.PostID, res.Status())
	}
	return nil
}

func (i *ESPostIndex) Remove(ctx context.Context, postID string) error {
	req := esapi.DeleteRequest{Index: i.IndexName, DocumentID: postID}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, i.Client)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	// 404 means the document was already removed; redelivery lands here.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete %s: %s", postID, res.Status())
	}
	return nil
}

func (i *ESPostIndex) Search(ctx context.Context, q string, size int) ([]application.PostDocument, error) {
	query := map[string]any{
		"query": map[string]any{
			"match": map[string]any{
				"content": q,
			},
		},
		"size": size,
		"sort": []map[string]any{
			{"createdAt": map[string]any{"order": "desc", "unmapped_type": "date"}},
		},
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := i.Client.Search(
		i.Client.Search.WithContext(c),
		i.Client.Search.WithIndex(i.IndexName),
		i.Client.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source application.PostDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]application.PostDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

var _ application.PostIndex = (*ESPostIndex)(nil)
