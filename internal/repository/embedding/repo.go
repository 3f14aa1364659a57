// Package embedding persists item embeddings and answers nearest-neighbour
// queries for the embedded similarity engine.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foundry-app/foundry/internal/db"
	"github.com/foundry-app/foundry/internal/domain"
)

// store is the narrow slice of the database facade this repo consumes.
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo stores embeddings as Redis hashes under an HNSW-indexed prefix.
type Repo struct {
	store  store
	prefix string
	dims   int
}

// New creates an embedding repository. dims fixes the index vector width.
func New(store store, prefix string, dims int) *Repo {
	if prefix == "" {
		prefix = "foundry:"
	}
	return &Repo{store: store, prefix: prefix, dims: dims}
}

// EnsureIndex creates the vector index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.prefix + "emb:"},
		Fields: []db.IndexField{
			{Name: fieldReportType, Type: db.IndexFieldTag},
			{
				Name:            fieldVector,
				Type:            db.IndexFieldVector,
				VectorDim:       r.dims,
				VectorDistance:  db.DistanceCosine,
				HNSWM:           16,
				HNSWEFConstruct: 200,
			},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		// Concurrent startup can race the existence check.
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Save stores an embedding under the given similarity id.
func (r *Repo) Save(ctx context.Context, externalID string, reportType domain.ReportType, vector []float32) error {
	if err := r.store.HSet(ctx, r.key(externalID), recordToFields(reportType, vector)); err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	return nil
}

// Get loads a stored embedding by similarity id.
func (r *Repo) Get(ctx context.Context, externalID string) (domain.ReportType, []float32, error) {
	fields, err := r.store.HGetAll(ctx, r.key(externalID))
	if err != nil {
		return "", nil, fmt.Errorf("load embedding: %w", err)
	}
	if len(fields) == 0 {
		return "", nil, domain.ErrNotFound
	}
	reportType, vector := recordFromFields(fields)
	return reportType, vector, nil
}

// SearchNearest returns up to k candidates of the given report type,
// ordered by descending similarity.
func (r *Repo) SearchNearest(ctx context.Context, vector []float32, reportType domain.ReportType, k int) ([]domain.Candidate, error) {
	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(),
		Vector:       vector,
		K:            k,
		Filter:       fmt.Sprintf("@%s:{%s}", fieldReportType, reportType),
		ReturnFields: []string{fieldReportType},
	})
	if err != nil {
		return nil, fmt.Errorf("knn search: %w", err)
	}

	candidates := make([]domain.Candidate, 0, len(res.Entries))
	for _, e := range res.Entries {
		candidates = append(candidates, domain.Candidate{
			ExternalID: r.externalID(e.Key),
			Score:      e.Score,
		})
	}
	return candidates, nil
}

// Delete removes a stored embedding. Missing ids are not an error.
func (r *Repo) Delete(ctx context.Context, externalID string) error {
	if err := r.store.Del(ctx, r.key(externalID)); err != nil {
		return fmt.Errorf("delete embedding: %w", err)
	}
	return nil
}

func (r *Repo) indexName() string {
	return r.prefix + "emb-idx"
}

func (r *Repo) key(externalID string) string {
	return r.prefix + "emb:" + externalID
}

func (r *Repo) externalID(key string) string {
	return strings.TrimPrefix(key, r.prefix+"emb:")
}
