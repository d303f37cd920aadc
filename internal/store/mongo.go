package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paperstudio/backend/internal/models"
)

// MongoStore persists research sessions and their append-only agent
// logs in MongoDB.
type MongoStore struct {
	sessions *mongo.Collection
	logs     *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		sessions: db.Collection("sessions"),
		logs:     db.Collection("agent_logs"),
	}
}

func (s *MongoStore) InsertSession(ctx context.Context, sess *models.ResearchSession) error {
	if _, err := s.sessions.InsertOne(ctx, sess); err != nil {
		return fmt.Errorf("mongo insert session: %w", err)
	}
	return nil
}

func (s *MongoStore) GetSession(ctx context.Context, id string) (*models.ResearchSession, error) {
	var sess models.ResearchSession
	if err := s.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// UpdateSessionProgress bumps the progress high-water mark and the
// current step label. $max keeps progress monotonically non-decreasing
// even if updates race.
func (s *MongoStore) UpdateSessionProgress(ctx context.Context, id string, progress int, step string) error {
	_, err := s.sessions.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$max": bson.M{"progress": progress},
		"$set": bson.M{"current_step": step, "updated_at": time.Now()},
	})
	return err
}

func (s *MongoStore) SetSessionMemory(ctx context.Context, id, memory string) error {
	_, err := s.sessions.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"memory": memory, "updated_at": time.Now()},
	})
	return err
}

func (s *MongoStore) FinalizeSession(ctx context.Context, id string, status models.SessionStatus) error {
	_, err := s.sessions.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now()},
	})
	return err
}

// AppendLog inserts one agent log entry. Entries are never updated or
// deleted.
func (s *MongoStore) AppendLog(ctx context.Context, entry *models.AgentLog) error {
	if _, err := s.logs.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("mongo append log: %w", err)
	}
	return nil
}

func (s *MongoStore) ListLogs(ctx context.Context, sessionID string) ([]models.AgentLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cur, err := s.logs.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var logs []models.AgentLog
	if err := cur.All(ctx, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}
