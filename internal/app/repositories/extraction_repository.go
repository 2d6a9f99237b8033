package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
)

const extractionCollection = "extractions"

// ExtractionRepository stores raw extraction documents in MongoDB.
// Postgres keeps only the derived questions and the extraction's hex ID.
type ExtractionRepository struct {
	collection *mongo.Collection
}

// NewExtractionRepository creates a new ExtractionRepository
func NewExtractionRepository(database *mongo.Database) *ExtractionRepository {
	return &ExtractionRepository{
		collection: database.Collection(extractionCollection),
	}
}

// Insert stores an extraction document and returns its hex object ID
func (r *ExtractionRepository) Insert(ctx context.Context, extraction *models.Extraction) (string, error) {
	if extraction.CreatedAt.IsZero() {
		extraction.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, extraction)
	if err != nil {
		logger.Error().Err(err).Int64("paperID", extraction.PaperID).Msg("Error inserting extraction document")
		return "", fmt.Errorf("error inserting extraction: %w", err)
	}

	objectID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted ID type %T", result.InsertedID)
	}

	return objectID.Hex(), nil
}

// GetByID retrieves an extraction document by its hex object ID
func (r *ExtractionRepository) GetByID(ctx context.Context, hexID string) (*models.Extraction, error) {
	objectID, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, apperrors.ErrResourceNotFound
	}

	extraction := &models.Extraction{}
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(extraction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrResourceNotFound
		}
		logger.Error().Err(err).Str("extractionID", hexID).Msg("Error fetching extraction document")
		return nil, fmt.Errorf("error fetching extraction: %w", err)
	}

	return extraction, nil
}

// GetByPaperID retrieves the most recent extraction document for a paper
func (r *ExtractionRepository) GetByPaperID(ctx context.Context, paperID int64) (*models.Extraction, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	extraction := &models.Extraction{}
	err := r.collection.FindOne(ctx, bson.M{"paper_id": paperID}, opts).Decode(extraction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrResourceNotFound
		}
		logger.Error().Err(err).Int64("paperID", paperID).Msg("Error fetching extraction document by paper")
		return nil, fmt.Errorf("error fetching extraction: %w", err)
	}

	return extraction, nil
}

// DeleteByPaperID removes extraction documents for a paper. Re-ingesting a
// paper replaces its raw document rather than accumulating versions.
func (r *ExtractionRepository) DeleteByPaperID(ctx context.Context, paperID int64) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"paper_id": paperID})
	if err != nil {
		logger.Error().Err(err).Int64("paperID", paperID).Msg("Error deleting extraction documents")
		return fmt.Errorf("error deleting extractions: %w", err)
	}

	return nil
}
