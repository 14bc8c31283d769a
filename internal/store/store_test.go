package store_test

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nyashahama/order-ready-notifier/internal/store"
)

// ─── TEST INFRASTRUCTURE ──────────────────────────────────────────────────────

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openMongo connects to MONGO_TEST_URI using a throwaway database. Skips when
// the env var is not set so the suite passes without a replica set.
func openMongo(t *testing.T) (*store.MongoStore, *mongo.Database) {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set — skipping mongo integration tests")
	}
	ctx := context.Background()
	dbName := "notifier_test_" + primitive.NewObjectID().Hex()

	st, err := store.OpenMongo(ctx, store.Config{
		URL:            uri,
		Database:       dbName,
		ConnectTimeout: 10 * time.Second,
	}, discardLogger())
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	db := client.Database(dbName)

	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
		_ = st.Close(context.Background())
	})
	return st, db
}

// openPostgres connects to DATABASE_URL, which must already carry the schema
// from migrations/0001_orders.sql.
func openPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set — skipping postgres integration tests")
	}
	st, err := store.OpenPostgres(context.Background(), store.Config{
		URL:            dsn,
		ConnectTimeout: 10 * time.Second,
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

// openRawPostgres returns a plain pool for seeding rows behind the store.
func openRawPostgres(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

// seedPostgresOrder inserts a Preparing order and removes it, with its change
// rows, when the test ends.
func seedPostgresOrder(ctx context.Context, t *testing.T, pool *sql.DB) string {
	t.Helper()
	id := primitive.NewObjectID().Hex()
	_, err := pool.ExecContext(ctx, `INSERT INTO orders (id, status) VALUES ($1, 'Preparing')`, id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.ExecContext(context.Background(), `DELETE FROM orders WHERE id = $1`, id)
		_, _ = pool.ExecContext(context.Background(), `DELETE FROM order_changes WHERE order_id = $1`, id)
	})
	return id
}

// collectReady reads the stream until want has become Ready, skipping
// unrelated rows left in order_changes, and returns how often each order
// became Ready along the way.
func collectReady(ctx context.Context, t *testing.T, stream store.ChangeStream, want string) map[string]int {
	t.Helper()
	ready := map[string]int{}
	for ready[want] == 0 {
		ev, err := stream.Next(ctx)
		require.NoError(t, err)
		if ev.BecameReady() {
			ready[ev.OrderID]++
		}
	}
	return ready
}

// ─── MongoDB ──────────────────────────────────────────────────────────────────

func TestMongo_FindOrderAndUser(t *testing.T) {
	st, db := openMongo(t)
	ctx := context.Background()

	userID := primitive.NewObjectID()
	orderID := primitive.NewObjectID()
	_, err := db.Collection("users").InsertOne(ctx, bson.M{"_id": userID, "email": "u@x.com"})
	require.NoError(t, err)
	_, err = db.Collection("orders").InsertOne(ctx, bson.M{"_id": orderID, "status": "Preparing", "user_id": userID.Hex()})
	require.NoError(t, err)

	o, err := st.FindOrderByID(ctx, orderID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Preparing", o.Status)
	assert.Equal(t, userID.Hex(), o.UserID)

	u, err := st.FindUserByID(ctx, o.UserID)
	require.NoError(t, err)
	assert.Equal(t, "u@x.com", u.Email)
}

func TestMongo_NotFound(t *testing.T) {
	st, _ := openMongo(t)
	ctx := context.Background()

	_, err := st.FindOrderByID(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.FindOrderByID(ctx, "nonexistent")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.FindUserByID(ctx, "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMongo_WatchOrders_DeliversStatusUpdate(t *testing.T) {
	st, db := openMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	orderID := primitive.NewObjectID()
	_, err := db.Collection("orders").InsertOne(ctx, bson.M{"_id": orderID, "status": "Preparing"})
	require.NoError(t, err)

	stream, err := st.WatchOrders(ctx)
	require.NoError(t, err)
	defer stream.Close(context.Background())

	_, err = db.Collection("orders").UpdateByID(ctx, orderID, bson.M{"$set": bson.M{"status": "Ready"}})
	require.NoError(t, err)

	ev, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, orderID.Hex(), ev.OrderID)
	assert.True(t, ev.BecameReady())
}

// ─── Postgres ─────────────────────────────────────────────────────────────────

func TestPostgres_WatchOrders_DeliversStatusUpdate(t *testing.T) {
	st := openPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := openRawPostgres(t)
	orderID := primitive.NewObjectID().Hex()
	userID := primitive.NewObjectID().Hex()
	_, err := pool.ExecContext(ctx, `INSERT INTO users (id, email) VALUES ($1, 'u@x.com')`, userID)
	require.NoError(t, err)
	_, err = pool.ExecContext(ctx, `INSERT INTO orders (id, status, user_id) VALUES ($1, 'Preparing', $2)`, orderID, userID)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.ExecContext(context.Background(), `DELETE FROM orders WHERE id = $1`, orderID)
		_, _ = pool.ExecContext(context.Background(), `DELETE FROM order_changes WHERE order_id = $1`, orderID)
		_, _ = pool.ExecContext(context.Background(), `DELETE FROM users WHERE id = $1`, userID)
	})

	o, err := st.FindOrderByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, userID, o.UserID)

	stream, err := st.WatchOrders(ctx)
	require.NoError(t, err)
	defer stream.Close(context.Background())

	_, err = pool.ExecContext(ctx, `UPDATE orders SET status = 'Ready' WHERE id = $1`, orderID)
	require.NoError(t, err)

	ready := collectReady(ctx, t, stream, orderID)
	assert.Equal(t, 1, ready[orderID])
}

func TestPostgres_WatchOrders_DeliversLateCommit(t *testing.T) {
	st := openPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := openRawPostgres(t)
	early := seedPostgresOrder(ctx, t, pool)
	late := seedPostgresOrder(ctx, t, pool)

	stream, err := st.WatchOrders(ctx)
	require.NoError(t, err)
	defer stream.Close(context.Background())

	// early takes the lower order_changes id but commits after late.
	tx, err := pool.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	_, err = tx.ExecContext(ctx, `UPDATE orders SET status = 'Ready' WHERE id = $1`, early)
	require.NoError(t, err)

	_, err = pool.ExecContext(ctx, `UPDATE orders SET status = 'Ready' WHERE id = $1`, late)
	require.NoError(t, err)
	assert.Equal(t, 1, collectReady(ctx, t, stream, late)[late])

	require.NoError(t, tx.Commit())
	assert.Equal(t, 1, collectReady(ctx, t, stream, early)[early])
}

func TestPostgres_NotFound(t *testing.T) {
	st := openPostgres(t)
	_, err := st.FindOrderByID(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
