package database

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "mindnest"

// ConnectMongo connects to MongoDB and returns the client together with the database
// named in the URI path (or "mindnest" when the URI names none).
func ConnectMongo(ctx context.Context, mongoURI string, log zerolog.Logger) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, nil, err
	}

	log.Info().Msg("✅ Connected to MongoDB")
	return client, client.Database(MongoDatabaseName(mongoURI)), nil
}

// MongoDatabaseName extracts the database name from mongodb://host/name?opts.
func MongoDatabaseName(mongoURI string) string {
	rest := mongoURI
	if i := strings.Index(rest, "://"); i != -1 {
		rest = rest[i+3:]
	}
	slash := strings.Index(rest, "/")
	if slash == -1 {
		return defaultMongoDatabase
	}
	name := strings.SplitN(rest[slash+1:], "?", 2)[0]
	if name == "" {
		return defaultMongoDatabase
	}
	return name
}

// DisconnectMongo closes the client with a bounded timeout.
func DisconnectMongo(client *mongo.Client) error {
	if client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
