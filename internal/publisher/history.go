package publisher

import (
	"context"
	"time"

	"github.com/steveyegge/postbot/internal/clock"
	"github.com/steveyegge/postbot/internal/deduplication"
	"github.com/steveyegge/postbot/internal/storage"
	"github.com/steveyegge/postbot/internal/types"
)

// HistorySource lists published attempts started within window as
// artifacts. Combined with the artifact store it makes a second publish of
// the same candidate a duplicate before the first pull request is merged.
func HistorySource(history storage.Storage, window time.Duration, clk clock.Clock) deduplication.Source {
	if clk == nil {
		clk = clock.Real()
	}
	return deduplication.SourceFunc(func(ctx context.Context) ([]types.PublishedArtifact, error) {
		published, err := history.RecentPublished(ctx, clk.Now().Add(-window))
		if err != nil {
			return nil, err
		}
		out := make([]types.PublishedArtifact, 0, len(published))
		for _, a := range published {
			out = append(out, *a)
		}
		return out, nil
	})
}
