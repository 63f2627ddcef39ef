package ai

// DefaultConfidence is assumed for a judgment that asserts a relation but
// omits a confidence score.
const DefaultConfidence = 0.5

// DefaultValueCriteria are the scoring dimensions used when a caller passes
// no explicit criteria.
var DefaultValueCriteria = []string{"relevance", "timeliness", "importance", "uniqueness"}

// Enrichment holds the metadata an Enricher derives from content text.
type Enrichment struct {
	// ProcessedText is the cleaned, normalized text used for embeddings and
	// pairwise comparison. Empty means the raw text should be used as-is.
	ProcessedText string

	// Summary is a short abstract of the content.
	Summary string

	// Topics are broad subject tags, e.g. "artificial intelligence".
	Topics []string

	// Keywords are specific salient terms, e.g. "radiology".
	Keywords []string

	// SentimentScore is in [-1, 1]; negative values mean negative sentiment.
	SentimentScore float64

	// SentimentLabel is one of "positive", "negative", "neutral".
	SentimentLabel string

	// Entities are named entities mentioned in the text.
	Entities []ExtractedEntity
}

// ExtractedEntity is a named entity identified in content text.
type ExtractedEntity struct {
	Text string
	Type string
}

// PairItem is the view of a content item passed to pairwise classification.
type PairItem struct {
	Title string
	Text  string
}

// RelationJudgment is a classifier's verdict on a pair of items.
// When HasRelation is false the remaining fields are meaningless.
type RelationJudgment struct {
	// HasRelation reports whether the classifier judged the pair related.
	HasRelation bool

	// RelationType is the classifier's label for the relation. Free-form;
	// callers map it onto the closed edge vocabulary with fallback.
	RelationType string

	// Description explains the relation in prose.
	Description string

	// Confidence is the classifier's certainty in [0, 1], or nil when the
	// service omitted a score (callers substitute DefaultConfidence).
	Confidence *float64
}

// ValueScore rates a content item's worth.
type ValueScore struct {
	// Score is the overall rating on a 1-10 scale.
	Score float64

	// Reason is the scorer's short justification.
	Reason string

	// CriteriaScores holds the per-criterion ratings.
	CriteriaScores map[string]float64
}
