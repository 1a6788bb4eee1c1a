package usecase

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"resume-portfolio-backend/internal/domain"
)

// rapidDuplicateWindow is the suppression window for back-to-back
// submissions. The surrounding one-minute check only gates the comparison;
// the binding threshold is 30 seconds.
const (
	recentGateWindow     = time.Minute
	rapidDuplicateWindow = 30 * time.Second
)

// decideStore determines whether a new score observation is materially
// different from the most recently stored entry and should be persisted.
//
// Rules are evaluated in order and the first match wins:
//  1. no prior entry -> store
//  2. prior entry within the last 30 seconds -> skip, regardless of delta
//  3. overall score moved by at least the tolerance -> store
//  4. any detailed category moved by at least the tolerance (a category the
//     prior entry lacks counts as 0) -> store
//  5. the new map introduces a category absent from the prior entry -> store
//  6. otherwise -> skip
//
// The function is total: it never errors and treats missing optional fields
// as zero/absent.
func decideStore(prev *domain.ScoreHistoryEntry, overall float64, detailed map[string]float64, tolerance float64, now time.Time) domain.StoreDecision {
	if prev == nil {
		return domain.StoreDecision{Store: true, Reason: "No previous score exists"}
	}

	if prev.AnalysisDate.After(now.Add(-recentGateWindow)) {
		elapsed := now.Sub(prev.AnalysisDate)
		if elapsed < rapidDuplicateWindow {
			return domain.StoreDecision{
				Store:  false,
				Reason: fmt.Sprintf("Recent score stored %d seconds ago - preventing rapid duplicates", int(math.Round(elapsed.Seconds()))),
			}
		}
	}

	if diff := math.Abs(prev.OverallScore - overall); diff >= tolerance {
		return domain.StoreDecision{
			Store:  true,
			Reason: fmt.Sprintf("Overall score changed by %g%% (%g%% → %g%%)", diff, prev.OverallScore, overall),
		}
	}

	// Sorted key order keeps the winning category deterministic.
	keys := make([]string, 0, len(detailed))
	for k := range detailed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		prevValue := prev.DetailedScores[key]
		if diff := math.Abs(prevValue - detailed[key]); diff >= tolerance {
			return domain.StoreDecision{
				Store:  true,
				Reason: fmt.Sprintf("%s score changed by %g%% (%g%% → %g%%)", key, diff, prevValue, detailed[key]),
			}
		}
	}

	var newCategories []string
	for _, key := range keys {
		if _, ok := prev.DetailedScores[key]; !ok {
			newCategories = append(newCategories, key)
		}
	}
	if len(newCategories) > 0 {
		return domain.StoreDecision{
			Store:  true,
			Reason: "New score categories detected: " + strings.Join(newCategories, ", "),
		}
	}

	return domain.StoreDecision{
		Store:  false,
		Reason: fmt.Sprintf("All scores within tolerance (%g%% threshold)", tolerance),
	}
}
