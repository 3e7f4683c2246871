package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/fyz_store/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection(Collection),
	}
}

// Save inserts the order under its id. An id that is already stored yields
// ErrOrderExists and leaves the stored document untouched.
func (m *mongoRepository) Save(ctx context.Context, order *domain.Order) error {
	if order.OrderID == "" {
		return errors.New("order id is required")
	}

	if _, err := m.collection.InsertOne(ctx, toDocument(order)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrOrderExists
		}
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (m *mongoRepository) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var doc orderDocument

	err := m.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return doc.toDomain(), nil
}

// ListByUser returns the user's orders, newest first.
func (m *mongoRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := m.collection.Find(ctx, bson.M{"usuarioId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (m *mongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "usuarioId", Value: 1}, {Key: "fecha", Value: -1}},
			Options: options.Index().SetName("usuario_fecha_idx"),
		},
		{
			Keys:    bson.D{{Key: "estado", Value: 1}},
			Options: options.Index().SetName("estado_idx"),
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
