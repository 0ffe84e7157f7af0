package metrics

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func ts(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func call(start, end string, analysis *Analysis) CallRecord {
	c := CallRecord{Analysis: analysis}
	if start != "" {
		c.StartTime = ts(start)
	}
	if end != "" {
		c.EndTime = ts(end)
	}
	return c
}

func positive(resolved bool) *Analysis {
	return &Analysis{
		OCIAnalysis: &OCIAnalysis{DocumentSentiment: "Positive"},
		LLMInsights: &LLMInsights{Resolved: Truthy(resolved)},
	}
}

func assertAligned(t *testing.T, h History) {
	t.Helper()
	n := len(h.Intervals)
	if len(h.AverageDurations) != n || len(h.PositiveSentimentPercentages) != n || len(h.ResolvedPercentages) != n {
		t.Fatalf("expected aligned arrays of length %d, got %d/%d/%d", n,
			len(h.AverageDurations), len(h.PositiveSentimentPercentages), len(h.ResolvedPercentages))
	}
	for i := 1; i < n; i++ {
		if h.Intervals[i] <= h.Intervals[i-1] {
			t.Errorf("expected strictly increasing intervals, got %v", h.Intervals)
		}
	}
	for i := 0; i < n; i++ {
		if p := h.PositiveSentimentPercentages[i]; p < 0 || p > 100 {
			t.Errorf("positive percentage out of range: %v", p)
		}
		if p := h.ResolvedPercentages[i]; p < 0 || p > 100 {
			t.Errorf("resolved percentage out of range: %v", p)
		}
	}
}

func TestAggregate_Empty(t *testing.T) {
	for _, in := range [][]CallRecord{nil, {}, {call("", "", nil), call("", "2024-03-15T10:00:00Z", nil)}} {
		h := Aggregate(in, Daily)
		if h.Intervals == nil || len(h.Intervals) != 0 {
			t.Errorf("expected empty non-nil intervals, got %#v", h.Intervals)
		}
		assertAligned(t, h)

		b, _ := json.Marshal(h)
		want := `{"intervals":[],"averageDurations":[],"positiveSentimentPercentages":[],"resolvedPercentages":[]}`
		if string(b) != want {
			t.Errorf("expected %s, got %s", want, b)
		}
	}
}

func TestAggregate_SingleRecordDaily(t *testing.T) {
	h := Aggregate([]CallRecord{call("2024-03-15T10:00:00Z", "2024-03-15T10:30:00Z", nil)}, Daily)

	if len(h.Intervals) != 1 || h.Intervals[0] != "2024-03-15" {
		t.Fatalf("expected [2024-03-15], got %v", h.Intervals)
	}
	if h.AverageDurations[0] != 30 {
		t.Errorf("expected average 30, got %v", h.AverageDurations[0])
	}
	if h.PositiveSentimentPercentages[0] != 0 || h.ResolvedPercentages[0] != 0 {
		t.Errorf("expected zero percentages, got %v %v", h.PositiveSentimentPercentages[0], h.ResolvedPercentages[0])
	}
}

func TestAggregate_DailyFillsGaps(t *testing.T) {
	records := []CallRecord{
		call("2024-03-18T09:00:00Z", "2024-03-18T09:10:00Z", positive(true)),
		call("2024-03-15T10:00:00Z", "2024-03-15T10:20:00Z", positive(false)),
		call("2024-03-15T11:00:00Z", "2024-03-15T11:40:00Z", nil),
	}
	h := Aggregate(records, Daily)
	assertAligned(t, h)

	want := []string{"2024-03-15", "2024-03-16", "2024-03-17", "2024-03-18"}
	if len(h.Intervals) != len(want) {
		t.Fatalf("expected %v, got %v", want, h.Intervals)
	}
	for i := range want {
		if h.Intervals[i] != want[i] {
			t.Errorf("interval %d: expected %s, got %s", i, want[i], h.Intervals[i])
		}
	}

	if h.AverageDurations[0] != 30 {
		t.Errorf("expected 30 minute average on first day, got %v", h.AverageDurations[0])
	}
	if h.PositiveSentimentPercentages[0] != 50 {
		t.Errorf("expected 50%% positive on first day, got %v", h.PositiveSentimentPercentages[0])
	}
	if h.ResolvedPercentages[0] != 0 {
		t.Errorf("expected 0%% resolved on first day, got %v", h.ResolvedPercentages[0])
	}
	for i := 1; i <= 2; i++ {
		if h.AverageDurations[i] != 0 || h.PositiveSentimentPercentages[i] != 0 || h.ResolvedPercentages[i] != 0 {
			t.Errorf("expected empty bucket %s to be zero", h.Intervals[i])
		}
	}
	if h.AverageDurations[3] != 10 || h.ResolvedPercentages[3] != 100 {
		t.Errorf("unexpected last bucket: %v min, %v%% resolved", h.AverageDurations[3], h.ResolvedPercentages[3])
	}
}

func TestAggregate_DurationExcludesOpenAndNegativeCalls(t *testing.T) {
	records := []CallRecord{
		call("2024-03-15T10:00:00Z", "2024-03-15T10:10:00Z", nil),
		call("2024-03-15T11:00:00Z", "", nil),
		call("2024-03-15T12:00:00Z", "2024-03-15T11:00:00Z", nil),
		call("2024-03-15T13:00:00Z", "2024-03-15T13:00:00Z", nil),
	}
	h := Aggregate(records, Daily)
	if h.AverageDurations[0] != 10 {
		t.Errorf("expected only the positive duration to count, got %v", h.AverageDurations[0])
	}
}

func TestAggregate_WeeklyStartsOnMonday(t *testing.T) {
	records := []CallRecord{
		// Sunday belongs to the week starting the previous Monday.
		call("2024-03-17T23:00:00Z", "", nil),
		call("2024-03-18T00:30:00Z", "", nil),
		call("2024-04-02T08:00:00Z", "", nil),
	}
	h := Aggregate(records, Weekly)
	assertAligned(t, h)

	want := []string{"2024-03-11", "2024-03-18", "2024-03-25", "2024-04-01"}
	if len(h.Intervals) != len(want) {
		t.Fatalf("expected %v, got %v", want, h.Intervals)
	}
	for i := range want {
		if h.Intervals[i] != want[i] {
			t.Errorf("interval %d: expected %s, got %s", i, want[i], h.Intervals[i])
		}
	}
}

func TestAggregate_MonthlyAcrossYearEnd(t *testing.T) {
	records := []CallRecord{
		call("2024-01-31T12:00:00Z", "", positive(true)),
		call("2023-11-30T12:00:00Z", "", nil),
	}
	h := Aggregate(records, Monthly)
	assertAligned(t, h)

	want := []string{"2023-11", "2023-12", "2024-01"}
	if len(h.Intervals) != len(want) {
		t.Fatalf("expected %v, got %v", want, h.Intervals)
	}
	for i := range want {
		if h.Intervals[i] != want[i] {
			t.Errorf("interval %d: expected %s, got %s", i, want[i], h.Intervals[i])
		}
	}
	if h.PositiveSentimentPercentages[2] != 100 {
		t.Errorf("expected 100%% positive in January, got %v", h.PositiveSentimentPercentages[2])
	}
}

func TestAggregate_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2024, 3, 15, 22, 0, 0, 0, loc) // 2024-03-16 03:00 UTC
	h := Aggregate([]CallRecord{{StartTime: &local}}, Daily)
	if len(h.Intervals) != 1 || h.Intervals[0] != "2024-03-16" {
		t.Errorf("expected UTC day 2024-03-16, got %v", h.Intervals)
	}
}

func TestParseInterval(t *testing.T) {
	for _, s := range []string{"daily", "weekly", "monthly"} {
		if _, err := ParseInterval(s); err != nil {
			t.Errorf("expected %s to be valid, got %v", s, err)
		}
	}
	for _, s := range []string{"", "hourly", "Daily"} {
		if _, err := ParseInterval(s); !errors.Is(err, ErrInvalidInterval) {
			t.Errorf("expected ErrInvalidInterval for %q, got %v", s, err)
		}
	}
}

func TestParseAnalysis(t *testing.T) {
	a := ParseAnalysis(json.RawMessage(`{"ociAnalysis":{"documentSentiment":"Positive","extra":1},"llmInsights":{"se_resolvio":"si"}}`))
	if a == nil {
		t.Fatal("expected analysis to decode")
	}
	c := CallRecord{Analysis: a}
	if !c.Positive() {
		t.Error("expected positive sentiment")
	}
	if !c.Resolved() {
		t.Error("expected non-empty string to count as resolved")
	}

	if ParseAnalysis(nil) != nil {
		t.Error("expected nil for empty payload")
	}
	if ParseAnalysis(json.RawMessage(`not json`)) != nil {
		t.Error("expected nil for invalid payload")
	}

	zero := ParseAnalysis(json.RawMessage(`{"llmInsights":{"se_resolvio":0}}`))
	if (CallRecord{Analysis: zero}).Resolved() {
		t.Error("expected 0 to count as unresolved")
	}
}
