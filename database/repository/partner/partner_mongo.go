package partnerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"visaflow/config"
	"visaflow/database"
	"visaflow/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrPartnerNotFound is returned when no partner matches the given ID.
var ErrPartnerNotFound = errors.New("partner not found")

// MongoPartnerRepo implements PartnerRepository using MongoDB.
type MongoPartnerRepo struct {
	coll *mongo.Collection
}

// NewMongoPartnerRepo creates a new instance of PartnerRepository using MongoDB.
func NewMongoPartnerRepo() PartnerRepository {
	coll := database.MongoClient.Database(config.AppConfig.MongoDatabase).Collection("partners")
	repo := &MongoPartnerRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create partner indexes: %v\n", err)
	}
	return repo
}

// newContext creates a context with the given timeout.
func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoPartnerRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "supportedCountries", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoPartnerRepo) GetAll() ([]models.PartnerProfile, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve partners: %w", err)
	}
	defer cursor.Close(ctx)

	var partners []models.PartnerProfile
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, fmt.Errorf("failed to decode partners: %w", err)
	}
	return partners, nil
}

func (r *MongoPartnerRepo) GetByID(id string) (*models.PartnerProfile, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var partner models.PartnerProfile
	filter := bson.M{"id": id}
	if err := r.coll.FindOne(ctx, filter).Decode(&partner); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPartnerNotFound
		}
		return nil, fmt.Errorf("failed to fetch partner with id %s: %w", id, err)
	}
	return &partner, nil
}

func (r *MongoPartnerRepo) GetByCountry(country string) ([]models.PartnerProfile, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"supportedCountries": country}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find partners for country %s: %w", country, err)
	}
	defer cursor.Close(ctx)

	var partners []models.PartnerProfile
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, fmt.Errorf("failed to decode partners: %w", err)
	}
	return partners, nil
}

func (r *MongoPartnerRepo) Upsert(partner *models.PartnerProfile) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": partner.ID}
	update := bson.M{"$set": partner}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert partner with id %s: %w", partner.ID, err)
	}
	return nil
}
