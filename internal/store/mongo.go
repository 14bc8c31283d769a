package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nyashahama/order-ready-notifier/internal/order"
)

// MongoStore reads orders and users from two collections of one database and
// watches the orders collection through a change stream. Change streams need
// a replica set or sharded cluster.
type MongoStore struct {
	client *mongo.Client
	orders *mongo.Collection
	users  *mongo.Collection
	logger *slog.Logger
}

// OpenMongo connects to cfg.URL and pings the primary before returning.
func OpenMongo(ctx context.Context, cfg Config, logger *slog.Logger) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "pizzeria"
	}
	if cfg.OrdersCollection == "" {
		cfg.OrdersCollection = "orders"
	}
	if cfg.UsersCollection == "" {
		cfg.UsersCollection = "users"
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URL))
	if err != nil {
		return nil, fmt.Errorf("store: mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("store: mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	logger.Info("store: connected to mongodb", "database", cfg.Database)

	return &MongoStore{
		client: client,
		orders: db.Collection(cfg.OrdersCollection),
		users:  db.Collection(cfg.UsersCollection),
		logger: logger,
	}, nil
}

// ─── DOCUMENT SHAPES ─────────────────────────────────────────────────────────

type orderDocument struct {
	ID     primitive.ObjectID `bson:"_id"`
	Status string             `bson:"status"`
	// user_id is written as an ObjectId by some producers and as its hex
	// string by others.
	UserID bson.RawValue `bson:"user_id"`
}

type userDocument struct {
	ID    primitive.ObjectID `bson:"_id"`
	Email string             `bson:"email"`
}

// changeDocument is the subset of a change stream event the notifier reads.
type changeDocument struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	UpdateDescription *struct {
		UpdatedFields bson.M `bson:"updatedFields"`
	} `bson:"updateDescription,omitempty"`
}

func (d orderDocument) toOrder() order.Order {
	return order.Order{
		ID:     d.ID.Hex(),
		Status: d.Status,
		UserID: rawIDString(d.UserID),
	}
}

func (d changeDocument) toEvent() order.ChangeEvent {
	ev := order.ChangeEvent{
		Operation: order.Operation(d.OperationType),
		OrderID:   d.DocumentKey.ID.Hex(),
	}
	if d.UpdateDescription != nil {
		ev.UpdatedFields = map[string]any(d.UpdateDescription.UpdatedFields)
	}
	return ev
}

// rawIDString renders an ObjectId or string reference as a hex string. Any
// other BSON type, or an absent field, yields "".
func rawIDString(v bson.RawValue) string {
	switch v.Type {
	case bson.TypeObjectID:
		return v.ObjectID().Hex()
	case bson.TypeString:
		return v.StringValue()
	default:
		return ""
	}
}

// ─── READER ──────────────────────────────────────────────────────────────────

// FindOrderByID returns ErrNotFound for unknown or malformed identifiers.
func (s *MongoStore) FindOrderByID(ctx context.Context, id string) (order.Order, error) {
	oid, err := order.ParseID(id)
	if err != nil {
		return order.Order{}, ErrNotFound
	}

	var doc orderDocument
	if err := s.orders.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return order.Order{}, ErrNotFound
		}
		return order.Order{}, fmt.Errorf("store: find order %s: %w", id, err)
	}
	return doc.toOrder(), nil
}

// FindUserByID returns ErrNotFound for unknown or malformed identifiers.
func (s *MongoStore) FindUserByID(ctx context.Context, id string) (order.User, error) {
	oid, err := order.ParseID(id)
	if err != nil {
		return order.User{}, ErrNotFound
	}

	var doc userDocument
	if err := s.users.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return order.User{}, ErrNotFound
		}
		return order.User{}, fmt.Errorf("store: find user %s: %w", id, err)
	}
	return order.User{ID: doc.ID.Hex(), Email: doc.Email}, nil
}

// ─── WATCHER ─────────────────────────────────────────────────────────────────

// WatchOrders opens a change stream on the orders collection starting from
// now. Only update events are requested from the server; the caller still
// decides which of them are actionable.
func (s *MongoStore) WatchOrders(ctx context.Context) (ChangeStream, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "operationType", Value: string(order.OpUpdate)}}}},
	}

	cs, err := s.orders.Watch(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("store: open change stream: %w", err)
	}
	s.logger.Info("store: watching orders collection", "collection", s.orders.Name())
	return &mongoChangeStream{cs: cs}, nil
}

type mongoChangeStream struct {
	cs *mongo.ChangeStream
}

func (m *mongoChangeStream) Next(ctx context.Context) (order.ChangeEvent, error) {
	if !m.cs.Next(ctx) {
		if err := ctx.Err(); err != nil {
			return order.ChangeEvent{}, err
		}
		if err := m.cs.Err(); err != nil {
			return order.ChangeEvent{}, fmt.Errorf("store: change stream: %w", err)
		}
		return order.ChangeEvent{}, io.EOF
	}

	var doc changeDocument
	if err := m.cs.Decode(&doc); err != nil {
		return order.ChangeEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return doc.toEvent(), nil
}

func (m *mongoChangeStream) Close(ctx context.Context) error {
	return m.cs.Close(ctx)
}

// ─── LIFECYCLE ───────────────────────────────────────────────────────────────

func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("store: mongo ping: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
