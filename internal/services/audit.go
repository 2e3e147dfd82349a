package services

import (
	"context"
	"sync"
	"time"

	"github.com/AnshRaj112/mindnest-backend/internal/models"
	"github.com/AnshRaj112/mindnest-backend/pkg/clientip"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	AuditCollection = "audit_events"
	AuditRetention  = 180 * 24 * time.Hour
)

// AuditLog records security-relevant actions. Record must not block the request.
type AuditLog interface {
	Record(ctx context.Context, event models.AuditEvent)
}

// NopAuditLog discards events. Used when MongoDB is not configured.
type NopAuditLog struct{}

func (NopAuditLog) Record(context.Context, models.AuditEvent) {}

// MongoAuditLog writes events to MongoDB in the background.
type MongoAuditLog struct {
	col *mongo.Collection
	log zerolog.Logger
	wg  sync.WaitGroup
}

func NewMongoAuditLog(db *mongo.Database, log zerolog.Logger) *MongoAuditLog {
	return &MongoAuditLog{col: db.Collection(AuditCollection), log: log}
}

// EnsureIndexes configures the per-user lookup index and the retention TTL index.
// Called on startup from main after Mongo has connected.
func (a *MongoAuditLog) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_user_created"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("ttl_created_at").SetExpireAfterSeconds(int32(AuditRetention.Seconds())),
		},
	}
	_, err := a.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// Record persists the event asynchronously with its own timeout; failures are logged only.
// The client IP is taken from ctx when the event does not carry one.
func (a *MongoAuditLog) Record(ctx context.Context, event models.AuditEvent) {
	if event.IPAddress == "" {
		event.IPAddress = clientip.FromContext(ctx)
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	a.wg.Add(1)
	go func(ev models.AuditEvent) {
		defer a.wg.Done()
		insertCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.insert(insertCtx, ev); err != nil {
			a.log.Warn().Err(err).Str("action", string(ev.Action)).Msg("⚠️ Failed to write audit event")
		}
	}(event)
}

func (a *MongoAuditLog) insert(ctx context.Context, event models.AuditEvent) error {
	_, err := a.col.InsertOne(ctx, event)
	return err
}

// Wait blocks until in-flight writes finish. Called during shutdown.
func (a *MongoAuditLog) Wait() {
	a.wg.Wait()
}
