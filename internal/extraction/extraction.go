// Package extraction maps attached claim documents to evidence consumed by
// the validation engine. Each adapter is capability-polymorphic over one
// evidence shape and converts every internal failure into data: a Result
// carrying an error descriptor, never a panic that aborts the pipeline.
package extraction

import (
	"context"
	"fmt"

	"github.com/ayurankh/claims-processor/internal/store/model"
)

// Kind discriminates the variant held by a Result.
type Kind string

const (
	KindMetadata Kind = "metadata"
	KindText     Kind = "text"
	KindError    Kind = "error"
)

// NotAvailable is the sentinel for absent metadata fields.
const NotAvailable = "N/A"

// Result is the tagged outcome of one extraction: a structured metadata
// mapping, best-effort text, or an error descriptor. Immutable once produced.
type Result struct {
	Role     model.DocumentRole
	Kind     Kind
	Metadata map[string]string
	Text     string
	Err      string
}

// Failed reports whether the extraction produced an error descriptor.
func (r Result) Failed() bool {
	return r.Kind == KindError
}

// Adapter extracts evidence from a materialized file reference.
type Adapter interface {
	Extract(ctx context.Context, path string) Result
}

// capture runs fn and converts a panic into an error Result, keeping faults
// local to the adapter boundary.
func capture(role model.DocumentRole, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = errorResult(role, fmt.Errorf("extraction panic: %v", r))
		}
	}()
	return fn()
}

func errorResult(role model.DocumentRole, err error) Result {
	return Result{Role: role, Kind: KindError, Err: err.Error()}
}

func metadataResult(role model.DocumentRole, meta map[string]string) Result {
	return Result{Role: role, Kind: KindMetadata, Metadata: meta}
}

func textResult(role model.DocumentRole, text string) Result {
	return Result{Role: role, Kind: KindText, Text: text}
}
