package mongostore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"task_manager/internal/models"
	"task_manager/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// auditDoc stores metadata as JSON text so it reads back as plain Go values.
type auditDoc struct {
	ID         string    `bson:"_id"`
	OccurredAt time.Time `bson:"occurred_at"`
	Type       string    `bson:"type"`
	ActorID    string    `bson:"actor_id"`
	SubjectID  string    `bson:"subject_id"`
	Meta       string    `bson:"meta,omitempty"`
}

type AuditStore struct {
	coll *mongo.Collection
}

func NewAuditStore(db *mongo.Database) *AuditStore {
	return &AuditStore{coll: db.Collection(auditCollection)}
}

var _ repository.AuditLog = (*AuditStore)(nil)

func (s *AuditStore) Append(ctx context.Context, e models.AuditEvent) error {
	doc := auditDoc{
		ID:         e.EventID,
		OccurredAt: e.OccurredAt.UTC(),
		Type:       strings.ToUpper(strings.TrimSpace(e.Type)),
		ActorID:    e.ActorID,
		SubjectID:  e.SubjectID,
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		doc.OccurredAt = time.Now().UTC()
	}
	meta, err := repository.EncodeMetadata(e.Metadata)
	if err != nil {
		return err
	}
	doc.Meta = meta
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// auditFilter builds the query for [from, to] (inclusive) and type.
func auditFilter(from, to time.Time, typ string) bson.M {
	filter := bson.M{}
	window := bson.M{}
	if !from.IsZero() {
		window["$gte"] = from.UTC()
	}
	if !to.IsZero() {
		window["$lte"] = to.UTC()
	}
	if len(window) > 0 {
		filter["occurred_at"] = window
	}
	if typ = strings.ToUpper(strings.TrimSpace(typ)); typ != "" {
		filter["type"] = typ
	}
	return filter
}

func (s *AuditStore) List(ctx context.Context, from, to time.Time, typ string) ([]models.AuditEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	cur, err := s.coll.Find(ctx, auditFilter(from, to, typ), opts)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	out := make([]models.AuditEvent, 0, len(docs))
	for _, d := range docs {
		ev := models.AuditEvent{
			EventID:    d.ID,
			OccurredAt: d.OccurredAt.UTC(),
			Type:       d.Type,
			ActorID:    d.ActorID,
			SubjectID:  d.SubjectID,
		}
		if d.Meta != "" {
			var v any
			if err := json.Unmarshal([]byte(d.Meta), &v); err == nil {
				ev.Metadata = v
			} else {
				ev.Metadata = d.Meta
			}
		}
		out = append(out, ev)
	}
	return out, nil
}
