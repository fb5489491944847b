package scrapetargetRepo

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

// ErrTargetNotFound is returned when no target matches the given ID.
var ErrTargetNotFound = errors.New("scraping target not found")

// MongoScrapeTargetRepo implements ScrapeTargetRepository using MongoDB.
type MongoScrapeTargetRepo struct {
	coll *mongo.Collection
}

// NewMongoScrapeTargetRepo creates a new instance of ScrapeTargetRepository using MongoDB.
func NewMongoScrapeTargetRepo() ScrapeTargetRepository {
	coll := database.MongoClient.Database(config.AppConfig.MongoDatabase).Collection("scrape_targets")
	repo := &MongoScrapeTargetRepo{coll: coll}

	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create scrape target indexes: %v\n", err)
	}
	return repo
}

func newContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func (r *MongoScrapeTargetRepo) ensureIndexes() error {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "country", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (r *MongoScrapeTargetRepo) GetAll() ([]models.ScrapingTarget, error) {
	ctx, cancel := newContext(10 * time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve scraping targets: %w", err)
	}
	defer cursor.Close(ctx)

	var targets []models.ScrapingTarget
	if err := cursor.All(ctx, &targets); err != nil {
		return nil, fmt.Errorf("failed to decode scraping targets: %w", err)
	}
	return targets, nil
}

func (r *MongoScrapeTargetRepo) GetByID(id string) (*models.ScrapingTarget, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var target models.ScrapingTarget
	filter := bson.M{"id": id}
	if err := r.coll.FindOne(ctx, filter).Decode(&target); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTargetNotFound
		}
		return nil, fmt.Errorf("failed to fetch scraping target with id %s: %w", id, err)
	}
	return &target, nil
}

func (r *MongoScrapeTargetRepo) GetByCountry(country string) ([]models.ScrapingTarget, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"country": country}
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find scraping targets for country %s: %w", country, err)
	}
	defer cursor.Close(ctx)

	var targets []models.ScrapingTarget
	if err := cursor.All(ctx, &targets); err != nil {
		return nil, fmt.Errorf("failed to decode scraping targets: %w", err)
	}
	return targets, nil
}

func (r *MongoScrapeTargetRepo) Upsert(target *models.ScrapingTarget) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	filter := bson.M{"id": target.ID}
	update := bson.M{"$set": target}
	opts := options.Update().SetUpsert(true)
	if _, err := r.coll.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert scraping target with id %s: %w", target.ID, err)
	}
	return nil
}
