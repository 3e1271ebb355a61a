package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// CompareSchemes evaluates the given schemes concurrently and returns one
// row per scheme in request order.
func (e *Engine) CompareSchemes(ctx context.Context, ids []string) ([]cultivation.CompareRow, error) {
	rows := make([]cultivation.CompareRow, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.compareWorkers)

	for i, id := range ids {
		g.Go(func() error {
			sc, err := e.GetScheme(gctx, id)
			if err != nil {
				return err
			}
			rows[i] = compareRow(sc)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

func compareRow(sc *cultivation.Scheme) cultivation.CompareRow {
	row := cultivation.CompareRow{SchemeID: sc.ID, Name: sc.Name}

	resp := Evaluate(sc.Overrides.Apply(sc.Params, sc.Resource))
	if len(resp.Errors) > 0 {
		row.Errors = resp.Errors
		return row
	}

	res := resp.Result
	row.ConversionRate = res.ConversionRate
	row.AbsorptionRate = res.AbsorptionRate
	row.TotalDuration = res.TotalDuration
	row.HighestStageReached = res.HighestStageReached
	row.AlertCount = len(res.Alerts)
	row.WorstSeverity = cultivation.WorstSeverity(res.Alerts)
	row.IsSufficient = res.Resources.IsSufficient
	return row
}
