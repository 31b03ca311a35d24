package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/beaufnet/quotes-api/internal/core/domain"
	"github.com/beaufnet/quotes-api/internal/core/ports"
)

const quoteCollection = "quotes"

type MongoQuoteRepository struct {
	coll *mongo.Collection
}

func NewQuoteRepository(db *mongo.Database) *MongoQuoteRepository {
	return &MongoQuoteRepository{coll: db.Collection(quoteCollection)}
}

type mongoQuote struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Text      string             `bson:"text"`
	Source    string             `bson:"source,omitempty"`
	Author    string             `bson:"author,omitempty"`
	Validated bool               `bson:"validated"`
	CreatedAt int64              `bson:"created_at"`
	UpdatedAt int64              `bson:"updated_at"`
}

func toMongoQuote(q *domain.Quote) mongoQuote {
	return mongoQuote{
		Text:      q.Text,
		Source:    q.Source,
		Author:    q.Author,
		Validated: q.Validated,
		CreatedAt: q.CreatedAt.Unix(),
		UpdatedAt: q.UpdatedAt.Unix(),
	}
}

func (mq mongoQuote) toDomain() *domain.Quote {
	return &domain.Quote{
		ID:        mq.ID.Hex(),
		Text:      mq.Text,
		Source:    mq.Source,
		Author:    mq.Author,
		Validated: mq.Validated,
		CreatedAt: unixToTime(mq.CreatedAt),
		UpdatedAt: unixToTime(mq.UpdatedAt),
	}
}

func (r *MongoQuoteRepository) Create(ctx context.Context, quote *domain.Quote) (*domain.Quote, error) {
	res, err := r.coll.InsertOne(ctx, toMongoQuote(quote))
	if err != nil {
		return nil, fmt.Errorf("insert quote: %w", err)
	}

	created := *quote
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MongoQuoteRepository) FindByID(ctx context.Context, id string) (*domain.Quote, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrQuoteNotFound
	}

	var mq mongoQuote
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mq); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("find quote: %w", err)
	}
	return mq.toDomain(), nil
}

func (r *MongoQuoteRepository) List(ctx context.Context, filter ports.ListQuotesFilter) ([]*domain.Quote, int64, error) {
	query := bson.M{"validated": filter.Validated}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	order := -1
	if filter.OldestFirst {
		order = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: order}}).
		SetSkip(int64((filter.Page - 1) * filter.PerPage)).
		SetLimit(int64(filter.PerPage))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	defer cur.Close(ctx)

	var quotes []*domain.Quote
	for cur.Next(ctx) {
		var mq mongoQuote
		if err := cur.Decode(&mq); err != nil {
			return nil, 0, fmt.Errorf("decode quote: %w", err)
		}
		quotes = append(quotes, mq.toDomain())
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}

	return quotes, total, nil
}

func (r *MongoQuoteRepository) Update(ctx context.Context, quote *domain.Quote) (*domain.Quote, error) {
	oid, err := primitive.ObjectIDFromHex(quote.ID)
	if err != nil {
		return nil, domain.ErrQuoteNotFound
	}

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, toMongoQuote(quote))
	if err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrQuoteNotFound
	}

	return quote, nil
}

func (r *MongoQuoteRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrQuoteNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete quote: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuoteNotFound
	}
	return nil
}

func (r *MongoQuoteRepository) SetValidated(ctx context.Context, id string, validated bool) (*domain.Quote, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrQuoteNotFound
	}

	update := bson.M{"$set": bson.M{
		"validated":  validated,
		"updated_at": time.Now().UTC().Unix(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var mq mongoQuote
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&mq); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrQuoteNotFound
		}
		return nil, fmt.Errorf("set validated: %w", err)
	}
	return mq.toDomain(), nil
}
