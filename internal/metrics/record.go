package metrics

import (
	"encoding/json"
	"time"
)

// PositiveSentiment is the documentSentiment value counted as positive.
const PositiveSentiment = "Positive"

// Analysis is the subset of the analytics API payload used for metrics.
type Analysis struct {
	OCIAnalysis *OCIAnalysis `json:"ociAnalysis,omitempty"`
	LLMInsights *LLMInsights `json:"llmInsights,omitempty"`
}

type OCIAnalysis struct {
	DocumentSentiment string `json:"documentSentiment"`
}

type LLMInsights struct {
	Resolved Truthy `json:"se_resolvio"`
}

// Truthy decodes any JSON value using loose truthiness: false, 0, "" and
// null are false, everything else is true.
type Truthy bool

func (t *Truthy) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = false
	case bool:
		*t = Truthy(x)
	case float64:
		*t = x != 0
	case string:
		*t = x != ""
	default:
		*t = true
	}
	return nil
}

// CallRecord is the aggregator's view of a call.
type CallRecord struct {
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Analysis  *Analysis  `json:"analysis"`
}

// Duration returns the call length when both ends are known and positive.
func (c CallRecord) Duration() (time.Duration, bool) {
	if c.StartTime == nil || c.EndTime == nil {
		return 0, false
	}
	d := c.EndTime.Sub(*c.StartTime)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

func (c CallRecord) Positive() bool {
	return c.Analysis != nil && c.Analysis.OCIAnalysis != nil &&
		c.Analysis.OCIAnalysis.DocumentSentiment == PositiveSentiment
}

func (c CallRecord) Resolved() bool {
	return c.Analysis != nil && c.Analysis.LLMInsights != nil && bool(c.Analysis.LLMInsights.Resolved)
}

// ParseAnalysis decodes an analytics payload. Empty or undecodable input
// yields nil.
func ParseAnalysis(raw json.RawMessage) *Analysis {
	if len(raw) == 0 {
		return nil
	}
	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil
	}
	return &a
}
