package ingester

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/callboard/internal/events"
	"github.com/MikeSquared-Agency/callboard/internal/store"
	"github.com/MikeSquared-Agency/callboard/internal/testutil"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type captureRecorder struct {
	mu      sync.Mutex
	entries []events.Entry
}

func (c *captureRecorder) Record(e events.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

func newTestIngester(ms *testutil.MockStore, rec Recorder) *Ingester {
	return &Ingester{store: ms, audit: rec, ctx: context.Background()}
}

func seedCall(t *testing.T, ms *testutil.MockStore) store.Call {
	t.Helper()
	c, err := ms.CreateCall(context.Background(), store.CallInput{ProjectID: "p-1", UserID: "u-1"})
	if err != nil {
		t.Fatalf("seed call: %v", err)
	}
	return c
}

func TestHandleMessage_StoresAnalysis(t *testing.T) {
	ms := testutil.NewMockStore()
	rec := &captureRecorder{}
	ing := newTestIngester(ms, rec)
	c := seedCall(t, ms)

	payload, _ := json.Marshal(map[string]any{
		"call_id":  c.ID,
		"analysis": map[string]any{"ociAnalysis": map[string]any{"documentSentiment": "Positive"}},
	})
	msg := &fakeMsg{subject: "callboard.analysis.completed", data: payload}
	ing.handleMessage(msg)

	if !msg.acked {
		t.Error("expected message to be acked")
	}
	stored := ms.Calls[c.ID]
	if len(stored.Analysis) == 0 {
		t.Fatal("expected analysis to be stored")
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != events.ActionAnalysis {
		t.Errorf("expected one analysis audit entry, got %+v", rec.entries)
	}
}

func TestHandleMessage_MalformedIsAckedAndSkipped(t *testing.T) {
	ms := testutil.NewMockStore()
	rec := &captureRecorder{}
	ing := newTestIngester(ms, rec)

	for _, data := range [][]byte{
		[]byte("not json"),
		[]byte(`{"analysis":{}}`),
		[]byte(`{"call_id":"abc"}`),
		[]byte(`{"call_id":"abc","analysis":{}}`),
	} {
		msg := &fakeMsg{subject: "callboard.analysis.completed", data: data}
		ing.handleMessage(msg)
		if !msg.acked {
			t.Errorf("expected malformed message %s to be acked", data)
		}
	}
	if len(rec.entries) != 0 {
		t.Errorf("expected no audit entries, got %d", len(rec.entries))
	}
}

func TestHandleMessage_UnknownCallIsAcked(t *testing.T) {
	ms := testutil.NewMockStore()
	ing := newTestIngester(ms, nil)

	payload, _ := json.Marshal(map[string]any{"call_id": "6f1c1f5e-8a54-4a8e-9f0e-3c1d0e2b7a11", "analysis": map[string]any{}})
	msg := &fakeMsg{subject: "callboard.analysis.completed", data: payload}
	ing.handleMessage(msg)

	if !msg.acked {
		t.Error("expected message for unknown call to be acked")
	}
	if msg.naked {
		t.Error("expected no nak for unknown call")
	}
}

func TestHandleMessage_AfterStopIsNakedAndNotRecorded(t *testing.T) {
	ms := testutil.NewMockStore()
	rec := &captureRecorder{}
	ing := newTestIngester(ms, rec)
	c := seedCall(t, ms)

	ing.Stop()

	payload, _ := json.Marshal(map[string]any{"call_id": c.ID, "analysis": map[string]any{}})
	msg := &fakeMsg{subject: "callboard.analysis.completed", data: payload}
	ing.handleMessage(msg)

	if !msg.naked {
		t.Error("expected message after stop to be nak'd")
	}
	if msg.acked {
		t.Error("expected message after stop not to be acked")
	}
	if len(ms.Calls[c.ID].Analysis) != 0 {
		t.Error("expected analysis not to be stored after stop")
	}
	if len(rec.entries) != 0 {
		t.Errorf("expected no audit entries after stop, got %d", len(rec.entries))
	}
}

// fakeMsg implements jetstream.Msg for unit testing without a real NATS connection.
type fakeMsg struct {
	subject string
	data    []byte
	acked   bool
	naked   bool
}

func (m *fakeMsg) Data() []byte                       { return m.data }
func (m *fakeMsg) Subject() string                    { return m.subject }
func (m *fakeMsg) Ack() error                         { m.acked = true; return nil }
func (m *fakeMsg) Nak() error                         { m.naked = true; return nil }
func (m *fakeMsg) NakWithDelay(d time.Duration) error { return nil }
func (m *fakeMsg) InProgress() error                  { return nil }
func (m *fakeMsg) Term() error                        { return nil }
func (m *fakeMsg) TermWithReason(reason string) error { return nil }
func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) {
	return nil, nil
}
func (m *fakeMsg) Headers() nats.Header                { return nil }
func (m *fakeMsg) Reply() string                       { return "" }
func (m *fakeMsg) DoubleAck(ctx context.Context) error { return nil }
