package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Entry is an audit record of a mutation, persisted to audit_logs and
// published on the bus.
type Entry struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actor_id,omitempty"`
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata"`
}

// Entities.
const (
	EntityDepartment = "department"
	EntityUser       = "user"
	EntityClient     = "client"
	EntityProject    = "project"
	EntityCall       = "call"
	EntityReport     = "report"
)

// Actions.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionAnalysis = "analysis"
)

// SubjectPrefix is prepended to every audit subject published on NATS.
const SubjectPrefix = "callboard.audit"

// New builds an entry stamped with a fresh ID and the current time. meta may
// be nil.
func New(actorID, entity, entityID, action string, meta map[string]any) Entry {
	e := Entry{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Entity:    entity,
		EntityID:  entityID,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Metadata:  json.RawMessage(`{}`),
	}
	if len(meta) > 0 {
		if b, err := json.Marshal(meta); err == nil {
			e.Metadata = b
		}
	}
	return e
}

// Normalize decodes raw JSON into an Entry and fills in missing fields with
// sensible defaults. It never drops an entry that parses.
func Normalize(raw []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, err
	}

	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	if e.Timestamp.IsZero() {
		slog.Warn("audit entry missing timestamp, using ingestion time", "id", e.ID)
		e.Timestamp = time.Now().UTC()
	}

	if e.Metadata == nil {
		e.Metadata = json.RawMessage(`{}`)
	}

	return e, nil
}

// Subject is the NATS subject the entry is published on.
func (e *Entry) Subject() string {
	return SubjectPrefix + "." + e.Entity + "." + e.Action
}

// MetadataField extracts a string field from the metadata JSON.
func (e *Entry) MetadataField(key string) string {
	var m map[string]any
	if err := json.Unmarshal(e.Metadata, &m); err != nil {
		return ""
	}
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// MetadataMap returns metadata as a generic map.
func (e *Entry) MetadataMap() map[string]any {
	var m map[string]any
	if err := json.Unmarshal(e.Metadata, &m); err != nil {
		return nil
	}
	return m
}
