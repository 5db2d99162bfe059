// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"time"

	"github.com/dalemusser/fieldops/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "assignee_id", Value: 1}, {Key: "status", Value: 1}, {Key: "due_date", Value: 1}}, Options: options.Index().SetName("idx_assignee_status_due")},
		{Keys: bson.D{{Key: "created_by_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_creator")},
	})
	return err
}

func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Status = models.TaskOpen
	t.CompletedAt = nil
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	return t, err
}

// ListAssignedTo returns the user's tasks, open first then by due date.
func (s *Store) ListAssignedTo(ctx context.Context, userID primitive.ObjectID, includeDone bool) ([]models.Task, error) {
	filter := bson.M{"assignee_id": userID}
	if !includeDone {
		filter["status"] = models.TaskOpen
	}
	return s.find(ctx, filter)
}

// ListCreatedBy returns the tasks a manager handed out.
func (s *Store) ListCreatedBy(ctx context.Context, userID primitive.ObjectID) ([]models.Task, error) {
	return s.find(ctx, bson.M{"created_by_id": userID})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Task, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{
		{Key: "status", Value: -1}, // "open" sorts after "done"
		{Key: "due_date", Value: 1},
		{Key: "created_at", Value: -1},
	}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Task
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Complete marks a task done. Only the assignee may complete it; the
// returned bool is false when nothing matched.
func (s *Store) Complete(ctx context.Context, id, assigneeID primitive.ObjectID) (bool, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "assignee_id": assigneeID, "status": models.TaskOpen},
		bson.M{"$set": bson.M{"status": models.TaskDone, "completed_at": now, "updated_at": now}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// OverdueOpen returns open tasks due before date (YYYY-MM-DD).
func (s *Store) OverdueOpen(ctx context.Context, date string) ([]models.Task, error) {
	return s.find(ctx, bson.M{
		"status":   models.TaskOpen,
		"due_date": bson.M{"$lt": date, "$ne": ""},
	})
}
