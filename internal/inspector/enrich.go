package inspector

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// enrich looks up every record in the registry concurrently. A failed
// lookup leaves RegistryInfo nil and never fails the batch.
func (in *Inspector) enrich(ctx context.Context, records []ExtensionRecord) {
	if in.registry == nil || len(records) == 0 {
		return
	}
	var g errgroup.Group
	for i := range records {
		g.Go(func() error {
			info, err := in.registry.PluginInfo(ctx, records[i].Slug)
			if err != nil {
				in.logger.Debug("registry lookup failed",
					zap.String("slug", records[i].Slug),
					zap.Error(err),
				)
				return nil
			}
			records[i].RegistryInfo = info
			return nil
		})
	}
	_ = g.Wait()
}
