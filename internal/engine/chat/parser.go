package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
)

const (
	// DefaultConfidence is used when the model omits confidence.
	DefaultConfidence = 0.8
	// FallbackConfidence marks a record built without a usable classification.
	FallbackConfidence = 0.5
	// DefaultSessionID is used when a request carries no session.
	DefaultSessionID = "default"

	maxRawInError = 500
)

var errNoCategory = errors.New("missing or unknown category")

type classificationPayload struct {
	Category      FlexString      `json:"category"`
	Confidence    json.RawMessage `json:"confidence"`
	ExtractedData json.RawMessage `json:"extractedData"`
	SearchQuery   FlexString      `json:"searchQuery"`
}

// ParseClassification turns raw model output into a RoutingRecord. It never
// fails: text that yields no usable object becomes a GENERAL_CHAT record whose
// Error field describes what went wrong.
func ParseClassification(raw string, req Request) RoutingRecord {
	req = withRequestDefaults(req)

	payload, err := decodeClassification(raw)
	if err == nil {
		if cat, ok := ParseCategory(string(payload.Category)); ok {
			return buildRecord(cat, payload, req)
		}
		err = fmt.Errorf("%w: %q", errNoCategory, payload.Category)
	}

	engine.IncrClassificationFailures()
	slog.Warn("classification parse failed",
		slog.Any("error", err),
		slog.String("session", req.SessionID),
		slog.Int("raw_len", len(raw)))

	rec := baseRecord(req)
	rec.Category = CategoryGeneralChat
	rec.Confidence = FallbackConfidence
	rec.Error = fmt.Sprintf("classification parsing failed: raw=%q: %v",
		engine.TruncateRunes(raw, maxRawInError, "..."), err)
	return rec
}

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// decodeClassification prefers the first fenced block anywhere in raw, then
// the fence-stripped text. Each candidate is tried whole and then as the span
// between its first '{' and last '}'.
func decodeClassification(raw string) (*classificationPayload, error) {
	var candidates []string
	if m := fencedBlock.FindStringSubmatch(raw); m != nil && strings.TrimSpace(m[1]) != "" {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	if cleaned := engine.StripFences(raw); cleaned != "" {
		candidates = append(candidates, cleaned)
	}
	if len(candidates) == 0 {
		return nil, errors.New("empty response")
	}

	var err error
	for _, c := range candidates {
		var p *classificationPayload
		if p, err = decodeObject(c); err == nil {
			return p, nil
		}
	}
	return nil, err
}

func decodeObject(text string) (*classificationPayload, error) {
	var p classificationPayload
	err := json.Unmarshal([]byte(text), &p)
	if err == nil {
		return &p, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object: %w", err)
	}
	p = classificationPayload{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func buildRecord(cat Category, p *classificationPayload, req Request) RoutingRecord {
	rec := baseRecord(req)
	rec.Category = cat
	rec.Confidence = DefaultConfidence
	if c, ok := parseConfidence(p.Confidence); ok {
		rec.Confidence = min(max(c, 0), 1)
	}
	if q := strings.TrimSpace(string(p.SearchQuery)); q != "" {
		rec.SearchQuery = q
	}
	rec.ExtractedData = decodeExtracted(p.ExtractedData)
	return rec
}

func parseConfidence(raw json.RawMessage) (float64, bool) {
	var v any
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// decodeExtracted is lenient: a non-object extractedData leaves the record
// with an empty one rather than discarding the classification.
func decodeExtracted(raw json.RawMessage) ExtractedData {
	ex := ExtractedData{Raw: map[string]any{}}
	if len(raw) == 0 {
		return ex
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return ex
	}
	if err := json.Unmarshal(raw, &ex); err != nil {
		slog.Debug("extractedData partially decoded", slog.Any("error", err))
	}
	ex.Raw = m
	return ex
}

func baseRecord(req Request) RoutingRecord {
	return RoutingRecord{
		ExtractedData:       ExtractedData{Raw: map[string]any{}},
		SearchQuery:         req.Query,
		OriginalQuery:       req.Query,
		Token:               req.Token,
		SessionID:           req.SessionID,
		BaseURL:             req.BaseURL,
		ConversationContext: req.ConversationContext,
	}
}

func withRequestDefaults(req Request) Request {
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = DefaultSessionID
	}
	if req.BaseURL == "" {
		req.BaseURL = engine.DefaultAPIBaseURL
	}
	return req
}

// defaultClassification is what the classifier returns when the model cannot
// be reached. It is marshalled so quotes in the query stay valid JSON.
func defaultClassification(query string) string {
	b, _ := json.Marshal(map[string]any{
		"category":      CategoryGeneralChat,
		"confidence":    FallbackConfidence,
		"extractedData": map[string]any{},
		"searchQuery":   query,
	})
	return string(b)
}
