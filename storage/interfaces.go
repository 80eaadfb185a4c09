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

package storage

import (
	"context"

	"github.com/poiesic/marquee/core"
)

const (
	// DefaultIndexName is the collection movies are stored in.
	DefaultIndexName = "new_movies_index"

	// DefaultSearchSize is the number of hits returned when a query sets none.
	DefaultSearchSize = 10

	// TitleBoost weights a title match clause. Every other category uses OtherBoost.
	TitleBoost = 2.0
	OtherBoost = 1.0
)

// Index is a named collection of movie documents supporting vector search
// with boost-weighted field matches.
type Index interface {
	// Name returns the collection name.
	Name() string

	// CreateIndex provisions the collection. With recreate an existing
	// collection is dropped first; otherwise an existing collection yields
	// ErrIndexExists.
	CreateIndex(ctx context.Context, recreate bool) error

	// DeleteIndex drops the collection and every document in it.
	// Returns ErrIndexMissing if it does not exist.
	DeleteIndex(ctx context.Context) error

	// Exists reports whether the collection has been provisioned.
	Exists(ctx context.Context) (bool, error)

	// UpsertDocuments writes documents keyed by aid, replacing earlier versions.
	// Returns ErrIndexMissing if the collection does not exist.
	UpsertDocuments(ctx context.Context, docs ...*core.MovieDocument) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// VectorSearch scores every document with a vector as
	// cosine(query, document) + 1.0 plus the boost of each matching filter,
	// and returns the best q.Size hits ordered by score descending.
	// Filters never exclude documents.
	VectorSearch(ctx context.Context, q core.VectorQuery) ([]core.Hit, error)

	// Close releases the backend's resources.
	Close() error
}

// CheckpointStore persists bulk load progress so an interrupted load can resume.
type CheckpointStore interface {
	// SaveCheckpoint stores the checkpoint for checkpoint.Source, setting UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint returns the checkpoint for source, or nil, nil if none exists.
	LoadCheckpoint(ctx context.Context, source string) (*core.Checkpoint, error)

	// ClearCheckpoint removes the checkpoint for source. Clearing a missing
	// checkpoint is not an error.
	ClearCheckpoint(ctx context.Context, source string) error
}

// BoostFor returns the match boost used for an entity category.
func BoostFor(category core.EntityCategory) float64 {
	if category == core.CategoryTitle {
		return TitleBoost
	}
	return OtherBoost
}

// FiltersFor turns an entity bundle into match clauses, one per value, in
// category order.
func FiltersFor(entities core.EntityBundle) []core.FieldFilter {
	var filters []core.FieldFilter
	for _, category := range core.EntityCategories {
		for _, v := range entities.Get(category) {
			filters = append(filters, core.FieldFilter{
				Field: string(category),
				Value: v,
				Boost: BoostFor(category),
			})
		}
	}
	return filters
}
