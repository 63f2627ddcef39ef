package core

import (
	"errors"
	"fmt"
)

// ValidateContentItem checks that a content item carries the fields required
// for ingestion: title, raw text, source, and platform. Derived fields are
// optional and may be filled by enrichment later.
func ValidateContentItem(item *ContentItem) error {
	if item == nil {
		return ErrInvalidContentItem
	}

	var errs []error
	if item.Title == "" {
		errs = append(errs, ErrEmptyTitle)
	}
	if item.RawText == "" {
		errs = append(errs, ErrEmptyRawText)
	}
	if item.Source == "" {
		errs = append(errs, ErrEmptySource)
	}
	if item.Platform == "" {
		errs = append(errs, ErrEmptyPlatform)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidContentItem, errors.Join(errs...))
	}
	return nil
}

// ValidateEdge checks the invariants every persisted edge must satisfy:
// both endpoints present, distinct endpoints, a vocabulary relation type,
// and a confidence within [0, 1].
func ValidateEdge(edge *Edge) error {
	if edge == nil {
		return ErrMissingEdgeEndpoint
	}
	if edge.SourceId == 0 || edge.TargetId == 0 {
		return ErrMissingEdgeEndpoint
	}
	if edge.SourceId == edge.TargetId {
		return ErrSelfEdge
	}
	if !edge.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRelationType, edge.Type)
	}
	if edge.Confidence < 0 || edge.Confidence > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidConfidence, edge.Confidence)
	}
	return nil
}
