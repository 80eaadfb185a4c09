// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/poiesic/marquee/core"
	"github.com/poiesic/marquee/storage"
)

// ErrResponse indicates Elasticsearch answered with an error status.
var ErrResponse = errors.New("elasticsearch error response")

// Config describes how to reach the cluster and which index to use.
type Config struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string

	// Index is the collection name. Default: storage.DefaultIndexName
	Index string

	// Dimension is the dense_vector width used when creating the index.
	// Default: 384
	Dimension int

	// Refresh makes bulk writes visible to search before UpsertDocuments returns.
	Refresh bool
}

// Normalize fills defaults.
func (c *Config) Normalize() {
	if c.Index == "" {
		c.Index = storage.DefaultIndexName
	}
	if c.Dimension <= 0 {
		c.Dimension = 384
	}
	if len(c.Addresses) == 0 {
		c.Addresses = []string{"http://localhost:9200"}
	}
}

// Index implements storage.Index on an Elasticsearch cluster.
type Index struct {
	client    *elasticsearch.Client
	name      string
	dimension int
	refresh   bool
	logger    *slog.Logger
}

var _ storage.Index = (*Index)(nil)

// newIndex is an internal constructor that returns the concrete type.
func newIndex(config Config) (*Index, error) {
	config.Normalize()

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
		APIKey:    config.APIKey,
	})
	if err != nil {
		return nil, err
	}

	return &Index{
		client:    client,
		name:      config.Index,
		dimension: config.Dimension,
		refresh:   config.Refresh,
		logger:    slog.Default().With("component", "elastic-index", "index", config.Index),
	}, nil
}

// NewIndex creates a client for the configured cluster. No request is made
// until the first operation.
//
// Returns storage.Index interface to enforce abstraction.
func NewIndex(config Config) (storage.Index, error) {
	return newIndex(config)
}

// Name returns the collection name.
func (idx *Index) Name() string {
	return idx.name
}

// CreateIndex creates the index with the movie mapping.
func (idx *Index) CreateIndex(ctx context.Context, recreate bool) error {
	exists, err := idx.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if !recreate {
			return fmt.Errorf("%w: %s", storage.ErrIndexExists, idx.name)
		}
		if err := idx.DeleteIndex(ctx); err != nil {
			return err
		}
		idx.logger.Info("deleted existing index")
	}

	body, err := json.Marshal(indexBody(idx.dimension))
	if err != nil {
		return err
	}
	res, err := idx.client.Indices.Create(idx.name,
		idx.client.Indices.Create.WithBody(bytes.NewReader(body)),
		idx.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(res, "create index")
	}

	idx.logger.Info("created index", "dimension", idx.dimension)
	return nil
}

// DeleteIndex deletes the index.
func (idx *Index) DeleteIndex(ctx context.Context) error {
	res, err := idx.client.Indices.Delete([]string{idx.name},
		idx.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}
	if res.IsError() {
		return responseError(res, "delete index")
	}
	idx.logger.Info("deleted index")
	return nil
}

// Exists reports whether the index exists.
func (idx *Index) Exists(ctx context.Context) (bool, error) {
	res, err := idx.client.Indices.Exists([]string{idx.name},
		idx.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError(res, "index exists")
	}
}

type bulkAction struct {
	Index bulkTarget `json:"index"`
}

type bulkTarget struct {
	Index string `json:"_index"`
	ID    string `json:"_id"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// UpsertDocuments indexes documents by aid with one bulk request.
func (idx *Index) UpsertDocuments(ctx context.Context, docs ...*core.MovieDocument) error {
	if len(docs) == 0 {
		return nil
	}
	// Bulk requests would auto-create the index with a dynamic mapping.
	exists, err := idx.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		if err := core.ValidateDocument(doc); err != nil {
			return err
		}
		if len(doc.Vector) > 0 {
			if err := core.ValidateVector(doc.Vector, idx.dimension); err != nil {
				return fmt.Errorf("%w: aid %s: %w", core.ErrInvalidDocument, doc.Record.Aid, err)
			}
		}
		// Encode terminates each value with a newline, as NDJSON requires.
		if err := enc.Encode(bulkAction{Index: bulkTarget{Index: idx.name, ID: doc.Record.Aid}}); err != nil {
			return err
		}
		if err := enc.Encode(documentSource(doc)); err != nil {
			return err
		}
	}

	opts := []func(*esapi.BulkRequest){
		idx.client.Bulk.WithIndex(idx.name),
		idx.client.Bulk.WithContext(ctx),
	}
	if idx.refresh {
		opts = append(opts, idx.client.Bulk.WithRefresh("true"))
	}
	res, err := idx.client.Bulk(bytes.NewReader(buf.Bytes()), opts...)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}
	if res.IsError() {
		return responseError(res, "bulk")
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		failed := 0
		var first error
		for _, item := range parsed.Items {
			for _, result := range item {
				if result.Error == nil {
					continue
				}
				failed++
				if first == nil {
					first = fmt.Errorf("%w: document %s: %s: %s", ErrResponse, result.ID, result.Error.Type, result.Error.Reason)
				}
			}
		}
		if first != nil {
			idx.logger.Error("bulk upsert had failures", "failed", failed, "total", len(docs))
			return fmt.Errorf("%d of %d documents failed: %w", failed, len(docs), first)
		}
	}

	idx.logger.Debug("upserted documents", "count", len(docs))
	return nil
}

// Count returns the number of documents in the index.
func (idx *Index) Count(ctx context.Context) (int, error) {
	res, err := idx.client.Count(
		idx.client.Count.WithIndex(idx.name),
		idx.client.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}
	if res.IsError() {
		return 0, responseError(res, "count")
	}

	var parsed struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return parsed.Count, nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Score  float64        `json:"_score"`
			Source map[string]any `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// VectorSearch runs the script_score query and returns hits in the order
// Elasticsearch ranked them.
func (idx *Index) VectorSearch(ctx context.Context, q core.VectorQuery) ([]core.Hit, error) {
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	size := q.Size
	if size <= 0 {
		size = storage.DefaultSearchSize
	}

	body, err := json.Marshal(searchBody(q, size))
	if err != nil {
		return nil, err
	}
	idx.logger.Debug("vector search", "filters", len(q.Filters), "size", size)

	res, err := idx.client.Search(
		idx.client.Search.WithIndex(idx.name),
		idx.client.Search.WithBody(bytes.NewReader(body)),
		idx.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", storage.ErrIndexMissing, idx.name)
	}
	if res.IsError() {
		return nil, responseError(res, "search")
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	hits := make([]core.Hit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		source := h.Source
		if source == nil {
			source = map[string]any{}
		}
		delete(source, core.FieldTextVector)
		hits = append(hits, core.Hit{ID: h.ID, Score: h.Score, Source: source})
	}
	return hits, nil
}

// Close is a no-op. The HTTP client holds nothing that needs releasing.
func (idx *Index) Close() error {
	return nil
}

// responseError turns an error response into an ErrResponse carrying the
// status and the server's error type and reason.
func responseError(res *esapi.Response, op string) error {
	var parsed struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Type != "" {
		return fmt.Errorf("%w: %s: status %d: %s: %s", ErrResponse, op, res.StatusCode, parsed.Error.Type, parsed.Error.Reason)
	}
	return fmt.Errorf("%w: %s: status %d: %s", ErrResponse, op, res.StatusCode, bytes.TrimSpace(raw))
}
