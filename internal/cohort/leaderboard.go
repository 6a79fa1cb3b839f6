package cohort

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/model"
)

// badgeBands are the leaderboard badges on the 0-10 display scale, keyed by
// inclusive lower bound, highest first. They are a display concern and
// independent of the 0-100 maturity classification.
var badgeBands = []struct {
	min   float64
	badge string
}{
	{8, "Leader"},
	{6, "Advanced"},
	{4, "Developing"},
	{0, "Emerging"},
}

// Rating converts a 0-100 overall score to the 0-10 display scale.
func Rating(overall int) float64 {
	return float64(overall) / 10
}

// Badge returns the leaderboard badge for a 0-10 rating.
func Badge(rating float64) string {
	for _, b := range badgeBands {
		if rating >= b.min {
			return b.badge
		}
	}
	return badgeBands[len(badgeBands)-1].badge
}

// Leaderboard ranks eligible records by overall score, highest first, ties
// broken by alias. limit <= 0 returns every entry.
func Leaderboard(records []model.Assessment, limit int) []model.LeaderboardEntry {
	var entries []model.LeaderboardEntry
	var skipped int
	for _, r := range records {
		if !eligible(r) {
			continue
		}
		if err := checkRecord(r); err != nil {
			skipped++
			zap.L().Debug("cohort: skipping record", zap.Error(err))
			continue
		}
		rating := Rating(r.Scores.Overall)
		entries = append(entries, model.LeaderboardEntry{
			Alias:       Alias(r.ID),
			Sector:      r.Company.Sector,
			CompanySize: r.Company.CompanySize,
			Overall:     r.Scores.Overall,
			Rating:      rating,
			Badge:       Badge(rating),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Overall != entries[j].Overall {
			return entries[i].Overall > entries[j].Overall
		}
		return entries[i].Alias < entries[j].Alias
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if skipped > 0 {
		zap.L().Warn("cohort: leaderboard skipped malformed records", zap.Int("skipped", skipped))
	}
	return entries
}
