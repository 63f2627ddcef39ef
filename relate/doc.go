// Package relate infers relationships between content items.
//
// The Engine finds an item's nearest neighbors in embedding space, asks the
// relation classifier to judge each pair, and records accepted judgments as
// typed edges in the graph store. Classifier labels outside the closed
// vocabulary fall back to the generic RELATED_TO type; judgments without a
// confidence score assume the 0.5 default.
//
// Analysis is designed to run repeatedly over the same items: edges are keyed
// by their (source, target, type) triple and never duplicated.
package relate
