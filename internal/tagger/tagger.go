// Package tagger derives hashtag-style tags for processed messages from
// configurable regex rules, the message kind, and the enrichments applied.
package tagger

import (
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/markdown"
	"github.com/itsabhinavjain/project-trudy-km-telegram/internal/model"
)

// Rule maps a content pattern to a tag.
type Rule struct {
	Pattern string `mapstructure:"pattern"`
	Tag     string `mapstructure:"tag"`
}

// Config controls tagging.
type Config struct {
	Enabled bool   `mapstructure:"enabled"`
	Rules   []Rule `mapstructure:"rules"`
}

type compiledRule struct {
	re  *regexp.Regexp
	tag string
}

// Tagger applies rule, kind, and feature tags. Tags come back sorted and
// deduplicated.
type Tagger struct {
	enabled bool
	rules   []compiledRule
}

// New compiles the rule set. Rules with invalid patterns are dropped with
// a warning rather than failing startup.
func New(cfg Config) *Tagger {
	t := &Tagger{enabled: cfg.Enabled}
	if !cfg.Enabled {
		log.Info().Msg("tagging is disabled")
		return t
	}
	for _, rule := range cfg.Rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			log.Warn().Str("pattern", rule.Pattern).Err(err).Msg("invalid tagging rule pattern")
			continue
		}
		t.rules = append(t.rules, compiledRule{re: re, tag: rule.Tag})
	}
	log.Info().Int("rules", len(t.rules)).Msg("initialized rule-based tagger")
	return t
}

var kindTags = map[model.Kind]string{
	model.KindImage:    "#image",
	model.KindPhoto:    "#image",
	model.KindVideo:    "#video",
	model.KindAudio:    "#audio",
	model.KindVoice:    "#voice",
	model.KindDocument: "#document",
	model.KindLink:     "#link",
}

// Tags generates the tag list for one processed message.
func (t *Tagger) Tags(msg *model.Message, result *model.EnrichedResult) []string {
	if !t.enabled {
		return nil
	}

	set := map[string]struct{}{}

	var parts []string
	if msg.Text != "" {
		parts = append(parts, msg.Text)
	}
	if msg.Caption != "" {
		parts = append(parts, msg.Caption)
	}
	if result.OCRText != "" {
		parts = append(parts, result.OCRText)
	}
	if result.Summary != "" {
		parts = append(parts, result.Summary)
	}
	content := strings.ToLower(strings.Join(parts, " "))

	for _, rule := range t.rules {
		if rule.re.MatchString(content) {
			set[rule.tag] = struct{}{}
		}
	}

	kind := result.ResolvedKind(msg)
	if tag, ok := kindTags[kind]; ok {
		set[tag] = struct{}{}
	}
	if kind == model.KindLink && msg.Text != "" {
		for _, url := range markdown.ExtractURLs(msg.Text) {
			if markdown.IsYouTubeURL(url) {
				set["#youtube"] = struct{}{}
				break
			}
		}
	}

	if result.TranscriptFile != "" {
		set["#transcription"] = struct{}{}
	}
	if result.OCRText != "" {
		set["#ocr"] = struct{}{}
	}
	if result.Summary != "" {
		set["#summarized"] = struct{}{}
	}

	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Available reports whether tagging will produce output.
func (t *Tagger) Available() bool {
	return t.enabled
}
