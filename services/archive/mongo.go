package archive

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	FetchAuditCollection = "fetch_audit"
	SyncAuditCollection  = "sync_audit"
)

// FetchRecord is one archived provider fetch
type FetchRecord struct {
	Provider  string    `bson:"provider" json:"provider"`
	Symbol    string    `bson:"symbol" json:"symbol"`
	BarCount  int       `bson:"bar_count" json:"bar_count"`
	FetchedAt time.Time `bson:"fetched_at" json:"fetched_at"`
}

// SyncRecord is one archived full-sync run
type SyncRecord struct {
	TotalSymbols int       `bson:"total_symbols" json:"total_symbols"`
	SuccessCount int       `bson:"success_count" json:"success_count"`
	FailedCount  int       `bson:"failed_count" json:"failed_count"`
	Elapsed      string    `bson:"elapsed" json:"elapsed"`
	CompletedAt  time.Time `bson:"completed_at" json:"completed_at"`
}

// Client wraps the MongoDB archive connection
type Client struct {
	client   *mongo.Client
	database string
	mu       sync.RWMutex
	enabled  bool
}

// Global archive client. Disabled until Init succeeds; all recorders are
// no-ops while disabled.
var GlobalArchive = &Client{}

// Init connects to MongoDB. An empty URI or a connection failure leaves the
// archive disabled; that is not an error for the application.
func Init(uri, database string) error {
	if uri == "" {
		log.Println("MongoDB archive not configured, audit trail disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}

	GlobalArchive.mu.Lock()
	GlobalArchive.client = client
	GlobalArchive.database = database
	GlobalArchive.enabled = true
	GlobalArchive.mu.Unlock()

	log.Printf("MongoDB archive connected, database=%s", database)
	return nil
}

// Enabled reports whether the archive is connected
func (c *Client) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Close disconnects from MongoDB
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return nil
	}
	c.enabled = false

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}

func (c *Client) collection(name string) *mongo.Collection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.enabled {
		return nil
	}
	return c.client.Database(c.database).Collection(name)
}

// RecordFetch archives one provider fetch. No-op when the archive is disabled.
func RecordFetch(ctx context.Context, provider, symbol string, barCount int) {
	coll := GlobalArchive.collection(FetchAuditCollection)
	if coll == nil {
		return
	}

	record := FetchRecord{
		Provider:  provider,
		Symbol:    symbol,
		BarCount:  barCount,
		FetchedAt: time.Now().UTC(),
	}
	if _, err := coll.InsertOne(ctx, record); err != nil {
		log.Printf("Failed to archive fetch record for %s: %v", symbol, err)
	}
}

// RecordSync archives one completed sync run. No-op when disabled.
func RecordSync(ctx context.Context, total, success, failed int, elapsed string) {
	coll := GlobalArchive.collection(SyncAuditCollection)
	if coll == nil {
		return
	}

	record := SyncRecord{
		TotalSymbols: total,
		SuccessCount: success,
		FailedCount:  failed,
		Elapsed:      elapsed,
		CompletedAt:  time.Now().UTC(),
	}
	if _, err := coll.InsertOne(ctx, record); err != nil {
		log.Printf("Failed to archive sync record: %v", err)
	}
}

// RecentSyncs returns the latest archived sync runs, newest first
func RecentSyncs(ctx context.Context, limit int) ([]SyncRecord, error) {
	coll := GlobalArchive.collection(SyncAuditCollection)
	if coll == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "completed_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync audit: %w", err)
	}
	defer cursor.Close(ctx)

	var records []SyncRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode sync audit: %w", err)
	}
	return records, nil
}
