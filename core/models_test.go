package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintFromURL(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		fp1 := FingerprintFromURL("https://example.com/article/123")
		fp2 := FingerprintFromURL("https://example.com/article/123")
		assert.Equal(t, fp1, fp2)
	})

	t.Run("distinct URLs produce distinct fingerprints", func(t *testing.T) {
		fp1 := FingerprintFromURL("https://example.com/article/123")
		fp2 := FingerprintFromURL("https://example.com/article/124")
		assert.NotEqual(t, fp1, fp2)
	})

	t.Run("nonzero for nonempty URL", func(t *testing.T) {
		assert.NotZero(t, FingerprintFromURL("https://example.com"))
	})
}

func TestContentItemFingerprint(t *testing.T) {
	item := &ContentItem{OriginalURL: "https://example.com/a"}
	assert.Equal(t, FingerprintFromURL("https://example.com/a"), item.Fingerprint())

	noURL := &ContentItem{}
	assert.Zero(t, noURL.Fingerprint())
}

func TestContentItemEmbeddingText(t *testing.T) {
	item := &ContentItem{RawText: "raw", ProcessedText: "processed"}
	assert.Equal(t, "processed", item.EmbeddingText())

	item.ProcessedText = ""
	assert.Equal(t, "raw", item.EmbeddingText())
}

func TestParseRelationType(t *testing.T) {
	tests := []struct {
		label string
		want  RelationType
	}{
		{"CAUSES", RelationCauses},
		{"causal", RelationCauses},
		{"FOLLOWS", RelationFollows},
		{"temporal", RelationFollows},
		{"sequential", RelationFollows},
		{"CONTRADICTS", RelationContradicts},
		{"SIMILAR_TO", RelationSimilarTo},
		{"topical-similarity", RelationSimilarTo},
		{"REFERS_TO", RelationRefersTo},
		{"reference", RelationRefersTo},
		{"RELATED_TO", RelationRelatedTo},
		{"something the model made up", RelationRelatedTo},
		{"", RelationRelatedTo},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRelationType(tt.label))
		})
	}
}

func TestRelationTypeString(t *testing.T) {
	assert.Equal(t, "CAUSES", RelationCauses.String())
	assert.Equal(t, "FOLLOWS", RelationFollows.String())
	assert.Equal(t, "RELATED_TO", RelationType(99).String())
}

func TestRelationTypeTextRoundTrip(t *testing.T) {
	data, err := RelationFollows.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "FOLLOWS", string(data))

	var rt RelationType
	assert.NoError(t, rt.UnmarshalText(data))
	assert.Equal(t, RelationFollows, rt)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-0.5))
	assert.Equal(t, 1.0, ClampConfidence(1.5))
	assert.Equal(t, 0.9, ClampConfidence(0.9))
}

func TestEdgeFields(t *testing.T) {
	edge := &Edge{
		SourceId:    1,
		TargetId:    2,
		Type:        RelationCauses,
		Description: "a led to b",
		Confidence:  0.85,
		CreatedAt:   time.Now().UTC(),
	}
	assert.NoError(t, ValidateEdge(edge))
}
