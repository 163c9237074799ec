package activity

import "github.com/j-veylop/omnicoach/internal/models"

// ComputeStats aggregates samples into totals, per-app and per-category
// breakdowns. App and category productivity are averages over their samples.
func ComputeStats(samples []models.ActivitySample) models.TodayStats {
	stats := models.TodayStats{
		Apps:       make(map[string]models.AppStats),
		Categories: make(map[models.Category]models.CategoryStats),
		Sessions:   len(samples),
	}
	if len(samples) == 0 {
		return stats
	}

	var prodSum float64
	appSums := make(map[string]float64)
	catSums := make(map[models.Category]float64)
	catCounts := make(map[models.Category]int)

	for _, s := range samples {
		stats.TotalTime += s.Duration
		prodSum += s.Productivity

		app := stats.Apps[s.AppName]
		app.Time += s.Duration
		app.Sessions++
		stats.Apps[s.AppName] = app
		appSums[s.AppName] += s.Productivity

		category := s.Category
		if category == "" {
			category = models.CategoryOther
		}
		cat := stats.Categories[category]
		cat.Time += s.Duration
		stats.Categories[category] = cat
		catSums[category] += s.Productivity
		catCounts[category]++
	}

	stats.AvgProductivity = prodSum / float64(len(samples))

	for name, app := range stats.Apps {
		app.Productivity = appSums[name] / float64(app.Sessions)
		stats.Apps[name] = app
	}
	for name, cat := range stats.Categories {
		cat.Productivity = catSums[name] / float64(catCounts[name])
		stats.Categories[name] = cat
	}

	return stats
}
