package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExtractionBlock is one recognized text block with its OCR confidence.
type ExtractionBlock struct {
	Text       string  `bson:"text" json:"text"`
	Confidence float64 `bson:"confidence" json:"confidence"`
}

// ExtractionPage holds the recognized content of a single paper page.
type ExtractionPage struct {
	PageNumber int               `bson:"page_number" json:"pageNumber"`
	RawText    string            `bson:"raw_text" json:"rawText"`
	Blocks     []ExtractionBlock `bson:"blocks" json:"blocks"`
}

// Extraction is the raw OCR artifact for one processed paper, stored in
// MongoDB. Postgres keeps only the derived questions and this document's id.
type Extraction struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PaperID        int64              `bson:"paper_id" json:"paperId"`
	Extractor      string             `bson:"extractor" json:"extractor"`
	Pages          []ExtractionPage   `bson:"pages" json:"pages"`
	MeanConfidence float64            `bson:"mean_confidence" json:"meanConfidence"`
	DroppedBlocks  int                `bson:"dropped_blocks" json:"droppedBlocks"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
}
