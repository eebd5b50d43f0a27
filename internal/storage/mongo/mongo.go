// Package mongo stores offers, leads and score results in MongoDB. Score
// results embed the lead snapshot they were computed from.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spigell/lead-scorer/internal/model"
	"github.com/spigell/lead-scorer/internal/storage"
)

const (
	offersCollection  = "offers"
	leadsCollection   = "leads"
	resultsCollection = "score_results"

	defaultDatabase = "lead_scorer"
)

// Store implements storage.Store on a MongoDB database.
type Store struct {
	client  *mongo.Client
	offers  *mongo.Collection
	leads   *mongo.Collection
	results *mongo.Collection
}

// Connect opens a client for uri. An empty database selects lead_scorer.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if database == "" {
		database = defaultDatabase
	}

	return New(client.Database(database)), nil
}

// New uses the collections of an already connected database.
func New(db *mongo.Database) *Store {
	return &Store{
		client:  db.Client(),
		offers:  db.Collection(offersCollection),
		leads:   db.Collection(leadsCollection),
		results: db.Collection(resultsCollection),
	}
}

// EnsureIndexes makes a lead scorable at most once per offer.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.results.Indexes().CreateOne(ctx, resultsIndex())
	if err != nil {
		return fmt.Errorf("creating score results index: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) CreateOffer(ctx context.Context, offer *model.Offer) error {
	if offer.ID == "" {
		offer.ID = storage.NewID()
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = time.Now().UTC()
	}

	if _, err := s.offers.InsertOne(ctx, offer); err != nil {
		return fmt.Errorf("inserting offer: %w", err)
	}
	return nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (model.Offer, error) {
	var offer model.Offer
	err := s.offers.FindOne(ctx, bson.M{"_id": id}).Decode(&offer)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Offer{}, fmt.Errorf("offer %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return model.Offer{}, fmt.Errorf("finding offer: %w", err)
	}
	return offer, nil
}

func (s *Store) ListOffers(ctx context.Context) ([]model.Offer, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.offers.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding offers: %w", err)
	}

	offers := []model.Offer{}
	if err := cursor.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("decoding offers: %w", err)
	}
	return offers, nil
}

func (s *Store) CreateLeads(ctx context.Context, leads []model.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	storage.StampLeads(leads, time.Now().UTC())

	docs := make([]interface{}, 0, len(leads))
	for _, lead := range leads {
		docs = append(docs, lead)
	}
	if _, err := s.leads.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("inserting leads: %w", err)
	}
	return nil
}

func (s *Store) ListLeads(ctx context.Context) ([]model.Lead, error) {
	opts := options.Find().SetSort(bson.D{{Key: "uploaded_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.leads.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("finding leads: %w", err)
	}

	leads := []model.Lead{}
	if err := cursor.All(ctx, &leads); err != nil {
		return nil, fmt.Errorf("decoding leads: %w", err)
	}
	return leads, nil
}

func (s *Store) DeleteScoreResults(ctx context.Context, offerID string) error {
	if _, err := s.results.DeleteMany(ctx, bson.M{"offer_id": offerID}); err != nil {
		return fmt.Errorf("deleting score results: %w", err)
	}
	return nil
}

func (s *Store) CreateScoreResult(ctx context.Context, result *model.ScoreResult) error {
	if result.ID == "" {
		result.ID = storage.NewID()
	}
	if result.ScoredAt.IsZero() {
		result.ScoredAt = time.Now().UTC()
	}

	if _, err := s.results.InsertOne(ctx, result); err != nil {
		return fmt.Errorf("inserting score result: %w", err)
	}
	return nil
}

func (s *Store) ListScoreResults(ctx context.Context, offerID string) ([]model.ScoreResult, error) {
	cursor, err := s.results.Find(ctx, bson.M{"offer_id": offerID}, options.Find().SetSort(resultsOrder()))
	if err != nil {
		return nil, fmt.Errorf("finding score results: %w", err)
	}

	results := []model.ScoreResult{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decoding score results: %w", err)
	}
	return results, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func resultsIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "lead_id", Value: 1}, {Key: "offer_id", Value: 1}},
		Options: options.Index().SetName("lead_offer_unique").SetUnique(true),
	}
}

func resultsOrder() bson.D {
	return bson.D{{Key: "lead.uploaded_at", Value: 1}, {Key: "lead._id", Value: 1}}
}
