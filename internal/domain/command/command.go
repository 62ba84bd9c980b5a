// Package command builds the bulk requests sent to the vector set store.
//
// A batch is validated as a whole: if any input is malformed no batch is
// produced and the caller must not touch the network.
package command

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
)

// MaxKeyLength is the longest key name accepted into a batch.
const MaxKeyLength = 512

// OpAttributes and OpMetadata name the per-item store operations of a batch.
const (
	OpAttributes = "VGETATTR"
	OpMetadata   = "VINFO"
)

// ValidationError reports why a batch was rejected.
// Index is the position of the offending input, or -1 for whole-batch problems.
type ValidationError struct {
	Index  int
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid batch: %s", e.Reason)
	}
	return fmt.Sprintf("invalid key name %q at %d: %s", e.Key, e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

// ValidateKeyName checks that key is a legal key name for a batch.
func ValidateKeyName(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("key name is empty")
	case len(key) > MaxKeyLength:
		return fmt.Errorf("key name too long (max %d bytes)", MaxKeyLength)
	case !utf8.ValidString(key):
		return fmt.Errorf("key name is not valid UTF-8")
	case strings.TrimSpace(key) == "":
		return fmt.Errorf("key name is blank")
	}
	for _, r := range key {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("key name contains control character %U", r)
		}
	}
	return nil
}

// AttributeBatch is a single request fetching the attributes of many
// elements of one key. Replies zip back onto Elements by position.
type AttributeBatch struct {
	key      string
	elements []string
}

// NewAttributeBatch validates the input and builds exactly one batch.
func NewAttributeBatch(key string, elements []string) (AttributeBatch, error) {
	if err := ValidateKeyName(key); err != nil {
		return AttributeBatch{}, &ValidationError{Index: -1, Key: key, Reason: err.Error()}
	}
	if len(elements) == 0 {
		return AttributeBatch{}, &ValidationError{Index: -1, Key: key, Reason: "no elements"}
	}
	return AttributeBatch{key: key, elements: append([]string(nil), elements...)}, nil
}

// Key returns the vector set key.
func (b AttributeBatch) Key() string { return b.key }

// Elements returns the elements in request order.
func (b AttributeBatch) Elements() []string { return b.elements }

// Len returns the number of elements in the batch.
func (b AttributeBatch) Len() int { return len(b.elements) }

// MetadataOp is one atomic sub-operation of a metadata batch.
type MetadataOp struct {
	Name string
	Key  string
}

// MetadataBatch is a single request carrying one metadata sub-operation
// per key, in input order.
type MetadataBatch struct {
	ops []MetadataOp
}

// NewMetadataBatch validates every key name before building the batch.
// One malformed key rejects the whole batch.
func NewMetadataBatch(keys []string) (MetadataBatch, error) {
	if len(keys) == 0 {
		return MetadataBatch{}, &ValidationError{Index: -1, Reason: "no keys"}
	}
	ops := make([]MetadataOp, len(keys))
	for i, k := range keys {
		if err := ValidateKeyName(k); err != nil {
			return MetadataBatch{}, &ValidationError{Index: i, Key: k, Reason: err.Error()}
		}
		ops[i] = MetadataOp{Name: OpMetadata, Key: k}
	}
	return MetadataBatch{ops: ops}, nil
}

// Ops returns the sub-operations in input order.
func (b MetadataBatch) Ops() []MetadataOp { return b.ops }

// Keys returns the key names in input order.
func (b MetadataBatch) Keys() []string {
	keys := make([]string, len(b.ops))
	for i, op := range b.ops {
		keys[i] = op.Key
	}
	return keys
}

// Len returns the number of sub-operations.
func (b MetadataBatch) Len() int { return len(b.ops) }
