package tagger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
)

func enabledTagger(rules ...Rule) *Tagger {
	return New(Config{Enabled: true, Rules: rules})
}

func TestTags_Disabled(t *testing.T) {
	tg := New(Config{Enabled: false, Rules: []Rule{{Pattern: "go", Tag: "#golang"}}})
	msg := &model.Message{Kind: model.KindText, Text: "go is great"}
	assert.Nil(t, tg.Tags(msg, &model.EnrichedResult{}))
	assert.False(t, tg.Available())
}

func TestTags_RuleMatching(t *testing.T) {
	tg := enabledTagger(
		Rule{Pattern: `\bgolang\b`, Tag: "#golang"},
		Rule{Pattern: "recipe", Tag: "#cooking"},
	)

	msg := &model.Message{Kind: model.KindText, Text: "A GoLang recipe for pipelines"}
	tags := tg.Tags(msg, &model.EnrichedResult{})
	assert.Equal(t, []string{"#cooking", "#golang"}, tags, "case-insensitive, sorted")
}

func TestTags_InvalidPatternDropped(t *testing.T) {
	tg := enabledTagger(
		Rule{Pattern: "([unclosed", Tag: "#broken"},
		Rule{Pattern: "fine", Tag: "#fine"},
	)

	msg := &model.Message{Kind: model.KindText, Text: "fine text"}
	assert.Equal(t, []string{"#fine"}, tg.Tags(msg, &model.EnrichedResult{}))
}

func TestTags_KindTags(t *testing.T) {
	tg := enabledTagger()

	tests := []struct {
		kind model.Kind
		want string
	}{
		{model.KindPhoto, "#image"},
		{model.KindVideo, "#video"},
		{model.KindVoice, "#voice"},
		{model.KindDocument, "#document"},
		{model.KindLink, "#link"},
	}
	for _, tt := range tests {
		msg := &model.Message{Kind: tt.kind}
		assert.Contains(t, tg.Tags(msg, &model.EnrichedResult{}), tt.want, "kind %s", tt.kind)
	}

	// plain text has no kind tag
	assert.Empty(t, tg.Tags(&model.Message{Kind: model.KindText}, &model.EnrichedResult{}))
}

func TestTags_ResultKindOverridesMessageKind(t *testing.T) {
	tg := enabledTagger()
	msg := &model.Message{Kind: model.KindText, Text: "https://example.com"}
	result := &model.EnrichedResult{Kind: model.KindLink}
	assert.Contains(t, tg.Tags(msg, result), "#link")
}

func TestTags_YouTube(t *testing.T) {
	tg := enabledTagger()
	msg := &model.Message{Kind: model.KindLink, Text: "watch https://youtu.be/dQw4w9WgXcQ"}
	tags := tg.Tags(msg, &model.EnrichedResult{})
	assert.Contains(t, tags, "#youtube")
	assert.Contains(t, tags, "#link")
}

func TestTags_FeatureTags(t *testing.T) {
	tg := enabledTagger()
	msg := &model.Message{Kind: model.KindVideo}
	result := &model.EnrichedResult{
		TranscriptFile: "v_transcript.txt",
		Summary:        "a summary",
		OCRText:        "scanned words",
	}
	tags := tg.Tags(msg, result)
	assert.Contains(t, tags, "#transcription")
	assert.Contains(t, tags, "#summarized")
	assert.Contains(t, tags, "#ocr")
	assert.Contains(t, tags, "#video")
}

func TestTags_RulesSeeEnrichedContent(t *testing.T) {
	tg := enabledTagger(Rule{Pattern: "invoice", Tag: "#finance"})
	msg := &model.Message{Kind: model.KindImage}
	result := &model.EnrichedResult{OCRText: "INVOICE #42 total due"}
	assert.Contains(t, tg.Tags(msg, result), "#finance")
}
