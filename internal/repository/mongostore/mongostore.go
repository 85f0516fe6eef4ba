// Package mongostore implements the repository interfaces on MongoDB, with
// users and tasks kept in two collections keyed by opaque string ids.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task_manager/internal/models"
	"task_manager/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
	auditCollection = "audit_events"

	connectTimeout = 10 * time.Second
)

// Connect dials MongoDB, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, db, nil
}

// EnsureIndexes creates the unique email index and the task owner index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users.email index: %w", err)
	}
	_, err = db.Collection(tasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create tasks.user_id index: %w", err)
	}
	return nil
}

// NewRepository builds the MongoDB-backed repositories.
func NewRepository(db *mongo.Database) *repository.Repository {
	return &repository.Repository{
		Users:  NewUserStore(db),
		Tasks:  NewTaskStore(db),
		Audit:  NewAuditStore(db),
		Pinger: clientPinger{client: db.Client()},
	}
}

type clientPinger struct {
	client *mongo.Client
}

func (p clientPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, readpref.Primary())
}

// ---- users ----

type UserStore struct {
	coll *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(usersCollection)}
}

var _ repository.Users = (*UserStore)(nil)

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user %q: %w", u.Email, err)
	}
	return nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// ---- tasks ----

type TaskStore struct {
	coll *mongo.Collection
}

func NewTaskStore(db *mongo.Database) *TaskStore {
	return &TaskStore{coll: db.Collection(tasksCollection)}
}

var _ repository.Tasks = (*TaskStore)(nil)

func (s *TaskStore) Create(ctx context.Context, t *models.Task) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if _, err := s.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert task for user %q: %w", t.UserID, err)
	}
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find task %q: %w", id, err)
	}
	normalizeTaskTimes(&t)
	return &t, nil
}

func (s *TaskStore) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	filter := bson.M{}
	if f.OwnerID != "" {
		filter["user_id"] = f.OwnerID
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]models.Task, 0, 16)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	for i := range out {
		normalizeTaskTimes(&out[i])
	}
	return out, nil
}

// normalizeTaskTimes converts decoded timestamps, which come back in local time, to UTC.
func normalizeTaskTimes(t *models.Task) {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
}

// patchDocument renders the $set document for p; updated_at is always bumped.
func patchDocument(p models.TaskPatch, now time.Time) bson.M {
	set := bson.M{"updated_at": now.UTC()}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	return bson.M{"$set": set}
}

// Update is a single-document atomic $set; concurrent writers race, last write wins.
func (s *TaskStore) Update(ctx context.Context, id string, p models.TaskPatch) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, patchDocument(p, time.Now()))
	if err != nil {
		return fmt.Errorf("update task %q: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete task %q: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
