package engine

import (
	"errors"
	"sync"

	"meatdash/internal/models"
)

// HandleInteraction turns one selection into everything the dashboard draws.
// An incomplete selection yields a prompt and no charts; a selection that
// matches nothing yields empty charts.
func HandleInteraction(base Relation, sel Selection, by GroupBy) (*models.RenderPlan, error) {
	plan := &models.RenderPlan{Mode: sel.Mode.String(), GroupBy: by.String()}

	rel, opts, err := Cascade(base, sel)
	plan.Options = opts
	if err != nil {
		var incomplete *IncompleteSelectionError
		if !errors.As(err, &incomplete) {
			return nil, err
		}
		plan.Incomplete = &models.Prompt{Facet: incomplete.Facet.String(), Message: incomplete.Facet.Prompt()}
		return plan, nil
	}

	plan.Rows = rel.Len()
	plan.Empty = rel.Len() == 0

	// aggregators are independent and only read rel
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		plan.Distribution = MeatDistribution(rel)
	}()
	go func() {
		defer wg.Done()
		plan.Heatmap = CountryMeatHeatmap(rel)
	}()
	go func() {
		defer wg.Done()
		plan.Grouped = GroupedBar(rel, by)
	}()
	plan.Description = Summarize(rel)
	wg.Wait()

	return plan, nil
}
