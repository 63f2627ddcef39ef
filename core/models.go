package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for content items.
// IDs are assigned by the document store at first persistence and are the
// sole join key across the document store, vector index, and graph store.
type ID uint64

// Fingerprint is a stable dedupe key derived from an item's provenance URL.
// Re-ingesting content with the same fingerprint updates the existing record
// instead of creating a second one.
type Fingerprint uint64

// FingerprintFromURL generates a deterministic fingerprint from a provenance
// URL using BLAKE2b hashing. Identical URLs always produce identical
// fingerprints.
func FingerprintFromURL(url string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(url))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// RelationType classifies a directed edge between two content items.
// The vocabulary is closed; judgments outside it fall back to RelationRelatedTo.
type RelationType int

const (
	// RelationCauses marks a causal link: the source item caused the target.
	RelationCauses RelationType = iota + 1
	// RelationFollows marks a temporal sequence: the target follows the source.
	RelationFollows
	// RelationContradicts marks items asserting incompatible claims.
	RelationContradicts
	// RelationSimilarTo marks topical similarity without causal or temporal order.
	RelationSimilarTo
	// RelationRefersTo marks an explicit reference from source to target.
	RelationRefersTo
	// RelationRelatedTo is the generic fallback for judgments outside the vocabulary.
	RelationRelatedTo
)

var relationNames = map[RelationType]string{
	RelationCauses:      "CAUSES",
	RelationFollows:     "FOLLOWS",
	RelationContradicts: "CONTRADICTS",
	RelationSimilarTo:   "SIMILAR_TO",
	RelationRefersTo:    "REFERS_TO",
	RelationRelatedTo:   "RELATED_TO",
}

// relationAliases maps classifier output labels onto the closed vocabulary.
// Classifiers phrase types loosely, so common variants are accepted.
var relationAliases = map[string]RelationType{
	"causes":             RelationCauses,
	"causal":             RelationCauses,
	"cause":              RelationCauses,
	"follows":            RelationFollows,
	"followed_by":        RelationFollows,
	"temporal":           RelationFollows,
	"sequential":         RelationFollows,
	"contradicts":        RelationContradicts,
	"contradiction":      RelationContradicts,
	"similar_to":         RelationSimilarTo,
	"similar":            RelationSimilarTo,
	"topical_similarity": RelationSimilarTo,
	"topical-similarity": RelationSimilarTo,
	"refers_to":          RelationRefersTo,
	"reference":          RelationRefersTo,
	"references":         RelationRefersTo,
	"related_to":         RelationRelatedTo,
	"related":            RelationRelatedTo,
}

// String returns the canonical label for the relation type.
func (rt RelationType) String() string {
	if name, ok := relationNames[rt]; ok {
		return name
	}
	return "RELATED_TO"
}

// Valid reports whether the relation type is part of the closed vocabulary.
func (rt RelationType) Valid() bool {
	_, ok := relationNames[rt]
	return ok
}

// ParseRelationType maps a free-form label onto the closed vocabulary.
// Unknown labels fall back to RelationRelatedTo rather than failing, so a
// sloppy classifier can never produce an edge of an undefined type.
func ParseRelationType(label string) RelationType {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if rt, ok := relationAliases[normalized]; ok {
		return rt
	}
	for rt, name := range relationNames {
		if strings.EqualFold(label, name) {
			return rt
		}
	}
	return RelationRelatedTo
}

// MarshalText implements encoding.TextMarshaler using the canonical label.
func (rt RelationType) MarshalText() ([]byte, error) {
	return []byte(rt.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler with fallback parsing.
func (rt *RelationType) UnmarshalText(data []byte) error {
	*rt = ParseRelationType(string(data))
	return nil
}

// Sentiment is the sentiment analysis result for an item's text.
type Sentiment struct {
	Score float64 `json:"score"` // -1 (negative) to 1 (positive)
	Label string  `json:"label"` // positive, negative, neutral
}

// Entity is a named entity extracted from an item's text.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// ValueAssessment scores the worth of a content item on a 1-10 scale.
type ValueAssessment struct {
	Overall  float64            `json:"overall"`
	Criteria map[string]float64 `json:"criteria,omitempty"` // e.g. {"relevance": 9, "timeliness": 8}
}

// ContentItem is the canonical record for a single ingested unit of content.
// Derived fields (Summary, Topics, Keywords, Sentiment, Entities, Value) are
// filled by enrichment and may be back-filled later when NeedsEnrichment is set.
type ContentItem struct {
	Id            ID               `json:"id"`
	Title         string           `json:"title"`
	RawText       string           `json:"raw_text"`
	ProcessedText string           `json:"processed_text,omitempty"`
	Summary       string           `json:"summary,omitempty"`
	Source        string           `json:"source"`   // e.g. "AI Frontier Weekly"
	Platform      string           `json:"platform"` // e.g. "weibo", "wechat", "rss"
	OriginalURL   string           `json:"original_url,omitempty"`
	PublishTime   time.Time        `json:"publish_time"`
	CrawlTime     time.Time        `json:"crawl_time"`
	Topics        []string         `json:"topics,omitempty"`
	Keywords      []string         `json:"keywords,omitempty"`
	Sentiment     *Sentiment       `json:"sentiment,omitempty"`
	Entities      []Entity         `json:"entities,omitempty"`
	Value         *ValueAssessment `json:"value,omitempty"`

	// NeedsEnrichment marks items whose derived fields could not be produced
	// at ingestion time and should be back-filled by a later pass.
	NeedsEnrichment bool `json:"needs_enrichment,omitempty"`

	InsertedAt time.Time `json:"inserted_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Fingerprint returns the item's dedupe key, or zero when the item carries
// no provenance URL (in which case dedupe detection is disabled for it).
func (c *ContentItem) Fingerprint() Fingerprint {
	if c.OriginalURL == "" {
		return 0
	}
	return FingerprintFromURL(c.OriginalURL)
}

// EmbeddingText returns the text the embedding should represent: the
// processed text when enrichment produced one, the raw text otherwise.
func (c *ContentItem) EmbeddingText() string {
	if c.ProcessedText != "" {
		return c.ProcessedText
	}
	return c.RawText
}

// Edge is a directed, typed, confidence-scored assertion that two content
// items are related. The (SourceId, TargetId, Type) triple is the natural
// key; the store additionally assigns a surface Id.
type Edge struct {
	Id          string       `json:"id,omitempty"` // surface identity, assigned by the graph store
	SourceId    ID           `json:"source_id"`
	TargetId    ID           `json:"target_id"`
	Type        RelationType `json:"type"`
	Description string       `json:"description,omitempty"`
	Confidence  float64      `json:"confidence"` // always within [0, 1]
	CreatedAt   time.Time    `json:"created_at"`
}

// ClampConfidence bounds a confidence score to [0, 1].
func ClampConfidence(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
