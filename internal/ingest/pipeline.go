package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/app/repositories"
	"github.com/qpaperai/qpaper-api/internal/pkg/apperrors"
	"github.com/qpaperai/qpaper-api/internal/pkg/filestorage"
	"github.com/qpaperai/qpaper-api/internal/pkg/logger"
	"github.com/qpaperai/qpaper-api/internal/pkg/mathpix"
)

// Marks assigned when the paper printed no marks marker for a question.
// Reviewers correct these before approval.
const defaultMarks = 5

// Settings are the tunables of the extraction pipeline.
type Settings struct {
	MinConfidence       float64 // blocks below this OCR confidence are dropped
	SimilarityThreshold float64 // Jaccard score at which questions join a variant group
	PageWorkers         int     // bound for per-page fan-out
}

// Processor runs the full ingest pipeline for one paper: extract text,
// gate by OCR confidence, store the raw document, split into questions,
// classify and variant-group them, and insert PENDING drafts.
type Processor struct {
	papers      *repositories.PaperRepository
	questions   *repositories.QuestionRepository
	courses     *repositories.CourseRepository
	extractions *repositories.ExtractionRepository
	storage     filestorage.FileStorage
	extractors  []Extractor
	settings    Settings
	logger      zerolog.Logger
}

// NewProcessor creates a Processor. Extractors are tried in order; an
// extractor that reports itself unconfigured or unsupported falls through
// to the next one.
func NewProcessor(
	repos *repositories.Repositories,
	storage filestorage.FileStorage,
	extractors []Extractor,
	settings Settings,
) *Processor {
	if settings.PageWorkers <= 0 {
		settings.PageWorkers = 1
	}

	return &Processor{
		papers:      repos.PaperRepository,
		questions:   repos.QuestionRepository,
		courses:     repos.CourseRepository,
		extractions: repos.ExtractionRepository,
		storage:     storage,
		extractors:  extractors,
		settings:    settings,
		logger:      logger.WithComponent("ingest"),
	}
}

// Process runs the pipeline for one paper. It is safe to run again after a
// failure: previous drafts for the paper are replaced, not duplicated.
func (p *Processor) Process(ctx context.Context, paperID int64) error {
	paper, err := p.papers.GetByID(ctx, paperID)
	if err != nil {
		return err
	}

	if err := p.papers.UpdateStatus(ctx, paper.ID, models.PaperStatusProcessing); err != nil {
		return err
	}

	fullPath := p.storage.GetFullPath(paper.FilePath)

	pages, extractorName, err := p.extract(ctx, fullPath)
	if err != nil {
		return err
	}

	report, err := p.gate(ctx, pages)
	if err != nil {
		return err
	}

	if report.keptBlocks == 0 {
		return apperrors.ErrEmptyPaper
	}

	// Replace any raw document from an earlier run before writing the new one.
	if err := p.extractions.DeleteByPaperID(ctx, paper.ID); err != nil {
		return err
	}

	extractionID, err := p.extractions.Insert(ctx, &models.Extraction{
		PaperID:        paper.ID,
		Extractor:      extractorName,
		Pages:          report.docPages,
		MeanConfidence: report.meanConfidence,
		DroppedBlocks:  report.droppedBlocks,
	})
	if err != nil {
		return err
	}

	staleGroups, err := p.questions.DeleteDraftsByPaper(ctx, paper.ID)
	if err != nil {
		return err
	}
	for _, groupID := range staleGroups {
		if err := p.questions.RefreshVariantCount(ctx, groupID); err != nil {
			return err
		}
	}

	parsed := SplitQuestions(report.pages)

	inserted, err := p.insertQuestions(ctx, paper, parsed)
	if err != nil {
		return err
	}

	if err := p.papers.MarkExtracted(ctx, paper.ID, extractionID, len(report.pages), inserted); err != nil {
		return err
	}

	p.logger.Info().
		Int64("paperID", paper.ID).
		Str("extractor", extractorName).
		Int("pages", len(report.pages)).
		Int("questions", inserted).
		Int("droppedBlocks", report.droppedBlocks).
		Float64("meanConfidence", report.meanConfidence).
		Msg("Paper extracted")

	return nil
}

func (p *Processor) extract(ctx context.Context, filePath string) ([]PageExtraction, string, error) {
	var lastErr error

	for _, extractor := range p.extractors {
		pages, err := extractor.ExtractPages(ctx, filePath)
		if err == nil {
			return pages, extractor.Name(), nil
		}

		if errors.Is(err, mathpix.ErrNotConfigured) || errors.Is(err, apperrors.ErrUnsupportedFile) {
			lastErr = err
			continue
		}

		return nil, "", fmt.Errorf("%s extraction: %w", extractor.Name(), err)
	}

	if lastErr == nil {
		lastErr = apperrors.ErrUnsupportedFile
	}

	return nil, "", lastErr
}

type gateReport struct {
	pages          []PageExtraction        // kept blocks only, parser input
	docPages       []models.ExtractionPage // full report incl. raw text
	keptBlocks     int
	droppedBlocks  int
	meanConfidence float64
}

// gate drops blocks below the configured OCR confidence, page by page.
// Pages are independent, so the work fans out bounded by PageWorkers.
func (p *Processor) gate(ctx context.Context, pages []PageExtraction) (*gateReport, error) {
	report := &gateReport{
		pages:    make([]PageExtraction, len(pages)),
		docPages: make([]models.ExtractionPage, len(pages)),
	}
	kept := make([]int, len(pages))
	dropped := make([]int, len(pages))
	confidenceSums := make([]float64, len(pages))

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.settings.PageWorkers)

	for i := range pages {
		i := i
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			page := pages[i]
			keptBlocks := make([]Block, 0, len(page.Blocks))
			docBlocks := make([]models.ExtractionBlock, 0, len(page.Blocks))
			rawParts := make([]string, 0, len(page.Blocks))

			for _, block := range page.Blocks {
				if block.Confidence < p.settings.MinConfidence {
					dropped[i]++
					continue
				}
				keptBlocks = append(keptBlocks, block)
				docBlocks = append(docBlocks, models.ExtractionBlock{Text: block.Text, Confidence: block.Confidence})
				rawParts = append(rawParts, block.Text)
				confidenceSums[i] += block.Confidence
			}

			kept[i] = len(keptBlocks)
			report.pages[i] = PageExtraction{PageNumber: page.PageNumber, Blocks: keptBlocks}
			report.docPages[i] = models.ExtractionPage{
				PageNumber: page.PageNumber,
				RawText:    strings.Join(rawParts, "\n"),
				Blocks:     docBlocks,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	confidenceTotal := 0.0
	for i := range pages {
		report.keptBlocks += kept[i]
		report.droppedBlocks += dropped[i]
		confidenceTotal += confidenceSums[i]
	}
	if report.keptBlocks > 0 {
		report.meanConfidence = confidenceTotal / float64(report.keptBlocks)
	}

	return report, nil
}

// insertQuestions classifies and variant-groups the parsed questions and
// inserts them as PENDING drafts. Freshly inserted questions immediately
// become match candidates, so duplicates within one paper also group.
func (p *Processor) insertQuestions(ctx context.Context, paper *models.Paper, parsed []ParsedQuestion) (int, error) {
	candidates, err := p.questions.ListVariantCandidates(ctx, paper.CourseID, 0)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, parsedQuestion := range parsed {
		bloom := ClassifyBloom(parsedQuestion.Text)

		question := &models.Question{
			CourseID:      paper.CourseID,
			PaperID:       &paper.ID,
			Text:          parsedQuestion.Text,
			Marks:         parsedQuestion.Marks,
			BloomLevel:    bloom.Level,
			ExamType:      paper.ExamType,
			ExamYear:      paper.ExamYear,
			ReviewStatus:  models.ReviewStatusPending,
			OCRConfidence: parsedQuestion.Confidence,
			VariantCount:  1,
		}
		if question.Marks == 0 {
			question.Marks = defaultMarks
		}

		if parsedQuestion.UnitNumber > 0 {
			unit, err := p.courses.GetUnitByCourseAndNumber(ctx, paper.CourseID, parsedQuestion.UnitNumber)
			switch {
			case err == nil:
				question.UnitID = &unit.ID
			case errors.Is(err, apperrors.ErrUnitNotFound):
				// Heading names a unit the catalog does not know; keep the
				// question without a unit.
			default:
				return inserted, err
			}
		}

		match, score := BestMatch(parsedQuestion.Text, candidates, p.settings.SimilarityThreshold)

		var groupID int64
		if match != nil {
			groupID = match.ID
			if match.VariantGroupID != nil {
				groupID = *match.VariantGroupID
			}
			question.VariantGroupID = &groupID
		}

		id, err := p.questions.Create(ctx, question)
		if err != nil {
			return inserted, err
		}

		if match != nil {
			if err := p.questions.RefreshVariantCount(ctx, groupID); err != nil {
				return inserted, err
			}
			p.logger.Debug().
				Int64("questionID", id).
				Int64("groupID", groupID).
				Float64("score", score).
				Msg("Question joined variant group")
		} else {
			if err := p.questions.InitVariantGroup(ctx, id); err != nil {
				return inserted, err
			}
			groupID = id
		}

		candidates = append(candidates, models.VariantCandidate{
			ID:             id,
			Text:           parsedQuestion.Text,
			VariantGroupID: &groupID,
		})
		inserted++
	}

	return inserted, nil
}
