package vset

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/vsetbrowse/internal/db"
	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/attribute"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/keyinfo"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
)

// store is the consumer interface for vector set operations (ISP).
type store interface {
	VGetAttrBatch(ctx context.Context, key string, elements []string) ([]*string, error)
	VSetAttr(ctx context.Context, key, element, attrs string) error
	VInfoBatch(ctx context.Context, keys []string) ([]db.VInfo, error)
	VSim(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityHit, error)
}

// Repo maps validated batches and queries onto the vector set store.
type Repo struct {
	store store
}

// New creates a vector set repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// FetchAttributes issues the attribute batch as one request.
// The reply has one payload per batch element, nil where none is stored.
func (r *Repo) FetchAttributes(ctx context.Context, batch command.AttributeBatch) ([]*string, error) {
	payloads, err := r.store.VGetAttrBatch(ctx, batch.Key(), batch.Elements())
	if err != nil {
		return nil, fmt.Errorf("vset attributes %s: %w", batch.Key(), err)
	}
	if len(payloads) != batch.Len() {
		return nil, fmt.Errorf("vset attributes %s: got %d payloads for %d elements",
			batch.Key(), len(payloads), batch.Len())
	}
	return payloads, nil
}

// SetAttributes replaces the attribute JSON of element.
// An empty raw clears the attributes, otherwise raw must be a JSON object.
func (r *Repo) SetAttributes(ctx context.Context, key, element, raw string) error {
	if err := command.ValidateKeyName(key); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	if raw != "" {
		if _, err := attribute.Parse(raw); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
	}
	if err := r.store.VSetAttr(ctx, key, element, raw); err != nil {
		if errors.Is(err, db.ErrElementNotFound) {
			return fmt.Errorf("element %s: %w", element, domain.ErrNotFound)
		}
		return fmt.Errorf("vset VSETATTR %s: %w", key, err)
	}
	return nil
}

// Metadata describes every key with a single metadata batch.
// A malformed key rejects the batch before any I/O.
func (r *Repo) Metadata(ctx context.Context, keys []string) ([]keyinfo.Metadata, error) {
	batch, err := command.NewMetadataBatch(keys)
	if err != nil {
		return nil, err
	}

	infos, err := r.store.VInfoBatch(ctx, batch.Keys())
	if err != nil {
		return nil, fmt.Errorf("vset metadata: %w", err)
	}

	out := make([]keyinfo.Metadata, len(infos))
	for i, in := range infos {
		out[i] = keyinfo.Metadata{
			Key:            in.Key,
			Exists:         in.Exists,
			QuantType:      in.QuantType,
			Dim:            in.Dim,
			Size:           in.Size,
			MaxLevel:       in.MaxLevel,
			VSetUID:        in.VSetUID,
			HNSWMaxNodeUID: in.HNSWMaxNodeUID,
		}
	}
	return out, nil
}

// Similar runs req and returns scored rows in server order.
// vector is used when req is a text query and ignored otherwise.
func (r *Repo) Similar(ctx context.Context, req query.Request, vector []float32) ([]result.Row, error) {
	q := &db.SimilarityQuery{
		Key:     req.Key(),
		Count:   req.Count(),
		EF:      req.EF(),
		Epsilon: req.Epsilon(),
		Filter:  req.Filter(),
	}
	if req.ByElement() {
		q.Element = req.Element()
	} else {
		q.Vector = vector
	}

	hits, err := r.store.VSim(ctx, q)
	if err != nil {
		if errors.Is(err, db.ErrElementNotFound) {
			return nil, fmt.Errorf("element %s: %w", req.Element(), domain.ErrNotFound)
		}
		return nil, fmt.Errorf("vset VSIM %s: %w", req.Key(), err)
	}

	rows := make([]result.Row, len(hits))
	for i, h := range hits {
		rows[i] = result.New(h.Element, h.Score)
	}
	return rows, nil
}
