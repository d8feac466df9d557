package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/llm"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
)

const (
	maxPromptChars  = 3000
	maxFallbackTags = 8

	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

type Analysis struct {
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	TagPaths   []string `json:"tagPaths"`
	Keywords   []string `json:"keywords"`
	Language   string   `json:"language"`
	Sentiment  string   `json:"sentiment"`
	Categories []string `json:"categories"`
}

type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

type Analyzer struct {
	llm    Completer
	logger *zap.SugaredLogger
}

func NewAnalyzer(c Completer, l *zap.SugaredLogger) *Analyzer {
	return &Analyzer{
		llm:    c,
		logger: l,
	}
}

// Analyze asks the model for a structured summary of the page. Any model or
// parse failure falls back to KeywordAnalysis, so the result is always set.
func (a *Analyzer) Analyze(ctx context.Context, c Content, pageURL string, cfg models.AIConfig) Analysis {
	out, err := a.llm.Complete(ctx, llm.Request{
		Model: cfg.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: userPrompt(c, pageURL)},
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		JSON:        true,
	})
	if err == nil {
		var res Analysis
		if res, err = parseAnalysis(out); err == nil {
			return res
		}
	}
	a.logger.Warnw("ai analysis failed, using keyword analysis", "url", pageURL, "error", err)
	return KeywordAnalysis(c, pageURL)
}

const systemPrompt = `You are an expert web content analyst. Analyze the provided web page content and return a detailed analysis as a single JSON object. Follow the instructions precisely.`

func userPrompt(c Content, pageURL string) string {
	description := c.Description
	if description == "" {
		description = "None"
	}
	return fmt.Sprintf(`Analyze the following web content.

Title: %s
Description: %s
URL: %s
Content: %s

Return exactly one JSON object and nothing else, with these fields:
- summary: a concise summary of about 100 words covering the core content, purpose and value of the page.
- tags: 5-8 highly relevant tags, each starting with #. Hierarchical tags use / as the separator, e.g. #Business/Marketing.
- tagPaths: for every hierarchical tag, its path without the #, e.g. "Business/Marketing". Omit flat tags.
- keywords: 5-8 core keywords ordered by importance.
- language: the ISO 639-1 code of the primary language, e.g. en, zh, es.
- sentiment: one of positive, neutral, negative.
- categories: 1-3 categories, each a path from broad to specific joined with /.

Base the analysis strictly on the content. Write text values in the language of the content.`,
		c.Title, description, pageURL, truncate(c.Text, maxPromptChars))
}

// stringList accepts a JSON string, a list of strings or a list of string
// lists; nested lists are joined into a path.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*l = stringList{single}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(stringList, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var parts []string
		if err := json.Unmarshal(item, &parts); err != nil {
			return err
		}
		out = append(out, strings.Join(parts, "/"))
	}
	*l = out
	return nil
}

type rawAnalysis struct {
	Summary    string     `json:"summary"`
	Tags       stringList `json:"tags"`
	TagPaths   stringList `json:"tagPaths"`
	Keywords   stringList `json:"keywords"`
	Language   string     `json:"language"`
	Sentiment  string     `json:"sentiment"`
	Categories stringList `json:"categories"`
}

func parseAnalysis(out string) (Analysis, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return Analysis{}, errors.New("no json object in model output")
	}

	raw := rawAnalysis{}
	if err := json.Unmarshal([]byte(out[start:end+1]), &raw); err != nil {
		return Analysis{}, errors.Wrap(err, "decode model output")
	}
	if strings.TrimSpace(raw.Summary) == "" && len(raw.Tags) == 0 {
		return Analysis{}, errors.New("model output has neither summary nor tags")
	}

	return Analysis{
		Summary:    strings.TrimSpace(raw.Summary),
		Tags:       nonEmpty(raw.Tags),
		TagPaths:   nonEmpty(raw.TagPaths),
		Keywords:   nonEmpty(raw.Keywords),
		Language:   strings.TrimSpace(raw.Language),
		Sentiment:  normalizeSentiment(raw.Sentiment),
		Categories: nonEmpty(raw.Categories),
	}, nil
}

func normalizeSentiment(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case SentimentPositive, SentimentNegative:
		return s
	}
	return SentimentNeutral
}

var techKeywords = []struct {
	keyword string
	tag     string
}{
	{"react", "React"},
	{"vue", "Vue.js"},
	{"angular", "Angular"},
	{"javascript", "JavaScript"},
	{"typescript", "TypeScript"},
	{"python", "Python"},
	{"java", "Java"},
	{"golang", "Go"},
	{"rust", "Rust"},
	{"docker", "Docker"},
	{"kubernetes", "Kubernetes"},
	{"api", "API"},
	{"database", "Database"},
	{"frontend", "Frontend"},
	{"backend", "Backend"},
}

var domainTags = []struct {
	fragment string
	tag      string
}{
	{"github", "GitHub"},
	{"stackoverflow", "StackOverflow"},
	{"medium", "Blog"},
	{"dev.to", "Development"},
	{"docs", "Documentation"},
}

// KeywordAnalysis is the offline analysis: a fixed technology vocabulary
// plus a few host name rules, capped at eight tags.
func KeywordAnalysis(c Content, pageURL string) Analysis {
	haystack := strings.ToLower(c.Title + " " + c.Description + " " + c.Text)

	tags := make([]string, 0, maxFallbackTags)
	add := func(tag string) {
		for _, t := range tags {
			if t == tag {
				return
			}
		}
		tags = append(tags, tag)
	}
	for _, k := range techKeywords {
		if strings.Contains(haystack, k.keyword) {
			add(k.tag)
		}
	}
	if u, err := url.Parse(pageURL); err == nil {
		host := strings.ToLower(u.Hostname())
		for _, d := range domainTags {
			if strings.Contains(host, d.fragment) {
				add(d.tag)
			}
		}
	}
	if len(tags) > maxFallbackTags {
		tags = tags[:maxFallbackTags]
	}

	hashed := make([]string, len(tags))
	for i := range tags {
		hashed[i] = "#" + tags[i]
	}

	summary := c.Description
	if summary == "" {
		summary = c.Title
	}
	language := c.Language
	if language == "" {
		language = "unknown"
	}

	return Analysis{
		Summary:    summary,
		Tags:       hashed,
		TagPaths:   []string{},
		Keywords:   tags,
		Language:   language,
		Sentiment:  SentimentNeutral,
		Categories: []string{},
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
