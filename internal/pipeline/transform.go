package pipeline

import (
	"context"
	"log/slog"

	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/gazetteer"
)

// BulletinTransformer implements Transformer using the domain extraction
// functions with optional rainfall advisory enrichment.
type BulletinTransformer struct {
	gaz    *gazetteer.Index
	feed   domain.AdvisoryFeed
	logger *slog.Logger
}

// NewTransformer creates a BulletinTransformer. Pass a nil feed to disable
// advisory enrichment.
func NewTransformer(ix *gazetteer.Index, feed domain.AdvisoryFeed, logger *slog.Logger) *BulletinTransformer {
	return &BulletinTransformer{
		gaz:    ix,
		feed:   feed,
		logger: logger,
	}
}

func (t *BulletinTransformer) Transform(ctx context.Context, doc domain.RawDocument) (domain.ExtractedBulletin, error) {
	raw, err := domain.ParseRawBulletin(doc.Value)
	if err != nil {
		return domain.ExtractedBulletin{}, err
	}

	out := domain.AssembleEnvelope(raw, t.gaz, t.logger)
	domain.EnrichWithAdvisory(ctx, &out, t.feed, t.gaz, t.logger)

	return out, nil
}
