package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/metrics"
	"github.com/pageza/recipematch/backend/internal/model"
)

// DefaultTagThreshold is the minimum classifier score for a tag to be accepted.
const DefaultTagThreshold = 0.8

const ingredientPrompt = `Your job is to extract only the ingredient names from the user's request.
Respond with a comma-separated list, nothing else. Don't repeat ingredients.

Examples:

User: "I want to make a dish with rice, egg, and meat."
Ingredients: rice, egg, meat

User: "I have flour, sugar and butter at home."
Ingredients: flour, sugar, butter

User: "%s"
Ingredients:`

// ExtractorConfig tunes the ConstraintExtractor.
type ExtractorConfig struct {
	// TagThreshold defaults to DefaultTagThreshold.
	TagThreshold float64
	// CallTimeout bounds each external call. Zero means no extra deadline.
	CallTimeout time.Duration
}

// ConstraintExtractor turns free text into a Constraint using an ingredient
// generator and a tag classifier.
type ConstraintExtractor struct {
	generator  TextGenerator
	classifier TagClassifier
	threshold  float64
	timeout    time.Duration
}

// NewConstraintExtractor creates a new ConstraintExtractor instance
func NewConstraintExtractor(generator TextGenerator, classifier TagClassifier, cfg ExtractorConfig) *ConstraintExtractor {
	if cfg.TagThreshold <= 0 {
		cfg.TagThreshold = DefaultTagThreshold
	}
	return &ConstraintExtractor{
		generator:  generator,
		classifier: classifier,
		threshold:  cfg.TagThreshold,
		timeout:    cfg.CallTimeout,
	}
}

// Extract derives the constraint for text. Unparseable model output and a single
// failed call degrade to empty sets. Only when both calls fail is an error
// returned, since the resulting constraint would carry no signal.
func (e *ConstraintExtractor) Extract(ctx context.Context, text string) (model.Constraint, error) {
	var (
		ingredients, tags []string
		ingErr, tagErr    error
		g                 errgroup.Group
	)

	g.Go(func() error {
		ingredients, ingErr = e.extractIngredients(ctx, text)
		return nil
	})
	g.Go(func() error {
		tags, tagErr = e.classifyTags(ctx, text)
		return nil
	})
	_ = g.Wait()

	log := logging.Ctx(ctx)
	switch {
	case ingErr != nil && tagErr != nil:
		metrics.ExtractionDegraded.WithLabelValues("ingredients").Inc()
		metrics.ExtractionDegraded.WithLabelValues("tags").Inc()
		err := dependencyError("constraint extraction", fmt.Errorf("ingredients: %w; tags: %w", ingErr, tagErr))
		log.Error().Err(err).Msg("constraint extraction failed")
		return model.Constraint{}, err
	case ingErr != nil:
		metrics.ExtractionDegraded.WithLabelValues("ingredients").Inc()
		log.Warn().Err(ingErr).Msg("ingredient extraction failed, continuing without ingredients")
	case tagErr != nil:
		metrics.ExtractionDegraded.WithLabelValues("tags").Inc()
		log.Warn().Err(tagErr).Msg("tag classification failed, continuing without tags")
	}

	c := model.NewConstraint(ingredients, ResolveTimeTags(model.NormalizeSet(tags)))
	log.Debug().Strs("ingredients", c.Ingredients).Strs("tags", c.Tags).Msg("constraint extracted")
	return c, nil
}

func (e *ConstraintExtractor) extractIngredients(ctx context.Context, text string) ([]string, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	resp, err := e.generator.Generate(ctx, fmt.Sprintf(ingredientPrompt, sanitizePromptInput(text)))
	if err != nil {
		return nil, err
	}
	return ParseIngredientList(resp), nil
}

func (e *ConstraintExtractor) classifyTags(ctx context.Context, text string) ([]string, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	scores, err := e.classifier.Classify(ctx, text, TagTaxonomy)
	if err != nil {
		return nil, err
	}
	return AcceptedLabels(scores, e.threshold), nil
}

func (e *ConstraintExtractor) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

// ParseIngredientList reads a generator reply such as "Ingredients: rice, egg".
// A leading "ingredients" label is dropped up to the first colon; the rest is
// split on commas, trimmed, and deduplicated keeping first-seen order.
func ParseIngredientList(resp string) []string {
	csv := strings.TrimSpace(resp)
	if strings.HasPrefix(strings.ToLower(csv), "ingredients") {
		if _, rest, ok := strings.Cut(csv, ":"); ok {
			csv = rest
		}
	}

	items := make([]string, 0)
	seen := make(map[string]struct{})
	for _, part := range strings.Split(csv, ",") {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}
	return items
}

// AcceptedLabels keeps labels scoring at least threshold, in classifier order.
func AcceptedLabels(scores []LabelScore, threshold float64) []string {
	out := make([]string, 0, len(scores))
	for _, s := range scores {
		if s.Score >= threshold {
			out = append(out, s.Label)
		}
	}
	return out
}

// sanitizePromptInput keeps user text from closing the quoted example line.
func sanitizePromptInput(text string) string {
	text = strings.ReplaceAll(text, `"`, "'")
	return strings.Join(strings.Fields(text), " ")
}
