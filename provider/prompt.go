package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/minios-linux/xcstrans/catalog"
	"github.com/minios-linux/xcstrans/langmeta"
	"github.com/minios-linux/xcstrans/suggest"
	"github.com/minios-linux/xcstrans/translate"
)

// ---------------------------------------------------------------------------
// System prompts
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is the translation prompt. {{targetLang}} is replaced
// with the target language label.
const DefaultSystemPrompt = `You are a professional translator specializing in Apple platform app localization. You are translating UI strings from an Xcode string catalog.

CONTEXT AWARENESS:
- The audience is users of an iOS/macOS application
- Follow Apple's Human Interface Guidelines terminology for {{targetLang}}
- Each entry may carry a developer comment describing where the string appears; use it to pick the right meaning

IMPORTANT TRANSLATION PRINCIPLES:
- Translate for NATURALNESS and FLUENCY in {{targetLang}}, not word-for-word
- Keep UI labels short; buttons and menu items must stay concise
- Maintain the original tone and intent

TECHNICAL REQUIREMENTS:
- The input is a JSON object mapping an id to {"text", "context", "variant"}.
- "variant" names a plural category or device, e.g. "plural:few" or "device:mac". Translate into the grammatical form {{targetLang}} uses for that plural category, even when the source text is the same as for another category.
- Return ONLY a JSON object mapping each id to its translated string.
- Preserve all format specifiers exactly as-is (%@, %lld, %d, %1$@, %.2f, etc.).
- Preserve leading/trailing whitespace, newlines, and punctuation patterns.
- Keep brand names and proper nouns unchanged.
- Return ONLY the JSON object, no explanations or markdown code blocks.`

// ReviewSystemPrompt is the prompt for reviewing existing translations.
const ReviewSystemPrompt = `You are a senior localization reviewer for Apple platform apps. You review existing {{targetLang}} translations of UI strings.

For each entry decide whether the current translation has a real problem: a mistranslation, unnatural phrasing, wrong terminology for the platform, inconsistent tone, or broken format specifiers.

TECHNICAL REQUIREMENTS:
- The input is a JSON object mapping an id to {"original", "translation", "context"}.
- Return ONLY a JSON array of objects {"id", "suggestion", "confidence", "reasoning"}.
- confidence is an integer from 1 (unsure) to 5 (certain).
- Only include entries where you are confident (4 or 5) the suggestion is clearly better. Return [] when nothing needs to change.
- Preserve all format specifiers exactly as-is.
- Write reasoning in English, one short sentence.
- Return ONLY the JSON array, no explanations or markdown code blocks.`

// minReviewConfidence is the threshold applied to review results.
const minReviewConfidence = 4

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func (c *Client) systemPrompt(base, lang string) string {
	prompt := strings.ReplaceAll(base, "{{targetLang}}", langmeta.Resolve(lang).Label())
	if c.opts.AppContext != "" {
		prompt += "\n\nAPP DESCRIPTION:\n" + c.opts.AppContext
	}
	return prompt
}

// ---------------------------------------------------------------------------
// Translation
// ---------------------------------------------------------------------------

// TranslateBatch implements translate.Translator. Requests are numbered
// inside the prompt; ids the model leaves out are omitted from the result.
func (c *Client) TranslateBatch(ctx context.Context, lang string, reqs []translate.Request) (map[catalog.UnitRef]string, error) {
	type item struct {
		Text    string `json:"text"`
		Context string `json:"context,omitempty"`
		Variant string `json:"variant,omitempty"`
	}
	payload := make(map[string]item, len(reqs))
	for i, r := range reqs {
		payload[strconv.Itoa(i+1)] = item{Text: r.Text, Context: r.Context, Variant: r.Variant}
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}

	base := DefaultSystemPrompt
	if c.opts.SystemPrompt != "" {
		base = c.opts.SystemPrompt
	}
	userPrompt := fmt.Sprintf("Translate the following %d entries into %s:\n\n%s",
		len(reqs), langmeta.Resolve(lang).Label(), body)

	content, err := c.complete(ctx, c.systemPrompt(base, lang), userPrompt)
	if err != nil {
		return nil, err
	}
	byID, err := parseTranslations(content)
	if err != nil {
		return nil, err
	}

	out := make(map[catalog.UnitRef]string, len(reqs))
	for i, r := range reqs {
		if v, ok := byID[strconv.Itoa(i+1)]; ok && v != "" {
			out[r.ID] = v
		}
	}
	if len(out) < len(reqs) {
		c.log.Warn("partial batch response", "lang", lang, "requested", len(reqs), "returned", len(out))
	}
	return out, nil
}

// parseTranslations extracts a JSON object of id → string from the model
// output. Non-string values are dropped.
func parseTranslations(content string) (map[string]string, error) {
	content = stripCodeBlock(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response: %s", truncate(content, 300))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON object: %w\nResponse: %s", err, truncate(content, 300))
	}
	out := make(map[string]string, len(raw))
	for id, v := range raw {
		var s string
		if json.Unmarshal(v, &s) == nil {
			out[id] = s
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Review
// ---------------------------------------------------------------------------

// AnalyzeBatch implements suggest.Analyzer.
func (c *Client) AnalyzeBatch(ctx context.Context, lang string, cands []suggest.Candidate) ([]suggest.Suggestion, error) {
	type item struct {
		Original    string `json:"original"`
		Translation string `json:"translation"`
		Context     string `json:"context,omitempty"`
	}
	payload := make(map[string]item, len(cands))
	for i, cd := range cands {
		payload[strconv.Itoa(i+1)] = item{Original: cd.Original, Translation: cd.Translation, Context: cd.Context}
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	userPrompt := fmt.Sprintf("Review these %d %s translations:\n\n%s",
		len(cands), langmeta.Resolve(lang).Label(), body)

	content, err := c.complete(ctx, c.systemPrompt(ReviewSystemPrompt, lang), userPrompt)
	if err != nil {
		return nil, err
	}
	reviews, err := parseReviews(content)
	if err != nil {
		return nil, err
	}

	var out []suggest.Suggestion
	for _, r := range reviews {
		i, err := strconv.Atoi(r.ID)
		if err != nil || i < 1 || i > len(cands) {
			continue
		}
		cd := cands[i-1]
		if r.Suggestion == "" || r.Suggestion == cd.Translation || r.Confidence < minReviewConfidence {
			continue
		}
		out = append(out, suggest.Suggestion{
			Ref:        cd.Ref,
			Lang:       lang,
			Original:   cd.Original,
			Current:    cd.Translation,
			Suggested:  r.Suggestion,
			Confidence: min(r.Confidence, 5),
			Reasoning:  r.Reasoning,
		})
	}
	return out, nil
}

type review struct {
	ID         string `json:"-"`
	Suggestion string `json:"suggestion"`
	Confidence int    `json:"confidence"`
	Reasoning  string `json:"reasoning"`
}

// parseReviews extracts the JSON array of reviews. Ids may be numbers or
// strings.
func parseReviews(content string) ([]review, error) {
	content = stripCodeBlock(content)
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response: %s", truncate(content, 300))
	}

	var raw []struct {
		ID json.RawMessage `json:"id"`
		review
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse review response as JSON array: %w\nResponse: %s", err, truncate(content, 300))
	}
	out := make([]review, 0, len(raw))
	for _, r := range raw {
		r.review.ID = strings.Trim(string(r.ID), `"`)
		out = append(out, r.review)
	}
	return out, nil
}

func stripCodeBlock(content string) string {
	content = strings.TrimSpace(content)
	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		return m[1]
	}
	return content
}
