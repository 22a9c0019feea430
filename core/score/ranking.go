package score

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

var (
	// ErrNoScores is returned by ranking operations when the student has no
	// test records to rank.
	ErrNoScores = errors.New("no test records found")
)

// TiePolicy controls how equal totals are ranked.
type TiePolicy int

const (
	// TiePolicyOrdinal assigns distinct sequential ranks to equal totals,
	// in input order. This matches the legacy portal behavior.
	TiePolicyOrdinal TiePolicy = iota
	// TiePolicyDense assigns the same rank to equal totals.
	TiePolicyDense
)

// TotalScore sums all subject fields of a record, treating nulls as 0.
func TotalScore(rec TestScoreRecord) float64 {
	var total float64
	for _, s := range rec.SubjectScores() {
		if s.Valid {
			total += s.Float64
		}
	}
	return total
}

// EffectiveTotal returns the stored total when present, otherwise the
// recomputed sum. Consumers must treat a missing total identically to a
// stored one.
func (r TestScoreRecord) EffectiveTotal() float64 {
	if r.TotalScore.Valid {
		return r.TotalScore.Float64
	}
	return TotalScore(r)
}

// RankedRecord is a TestScoreRecord with its rank within a sitting.
type RankedRecord struct {
	TestScoreRecord
	Total float64 `json:"total"`
	Rank  int     `json:"rank"`
}

// RankScores ranks the records of a single sitting, descending by total.
// The sort is stable, so under TiePolicyOrdinal equal totals keep their
// input order and receive distinct sequential ranks.
func RankScores(recs []TestScoreRecord, policy TiePolicy) []RankedRecord {
	ranked := make([]RankedRecord, 0, len(recs))
	for _, rec := range recs {
		ranked = append(ranked, RankedRecord{TestScoreRecord: rec, Total: rec.EffectiveTotal()})
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Total > ranked[j].Total })

	switch policy {
	case TiePolicyDense:
		rank := 0
		for i := range ranked {
			if i == 0 || ranked[i].Total != ranked[i-1].Total {
				rank++
			}
			ranked[i].Rank = rank
		}
	default:
		for i := range ranked {
			ranked[i].Rank = i + 1
		}
	}
	return ranked
}

// Sitting is one administration of a named test on a given date, with the
// full cohort of records for it.
type Sitting struct {
	TestName string
	Records  []TestScoreRecord
}

// OverallRanking summarizes a student's standing across all their sittings.
type OverallRanking struct {
	StudentID   string `json:"student_id"`
	AverageRank int    `json:"average_rank"`
	BestRank    int    `json:"best_rank"`
	BestTest    string `json:"best_test"`
	Percentile  int    `json:"percentile"`
	TotalTests  int    `json:"total_tests"`
}

// ComputeOverallRanking ranks every given sitting's full cohort, extracts
// the student's rank and cohort size in each, and aggregates:
// average rank (rounded), best rank and its test, and a participant-weighted
// percentile, round(100 * sum(cohort-rank) / sum(cohort)).
// A student with no valid sittings yields ErrNoScores, never a divide by zero.
func ComputeOverallRanking(studentID string, sittings []Sitting, policy TiePolicy) (OverallRanking, error) {
	var rankSum, bestRank, beaten, participants, total int
	var bestTest string

	for _, sitting := range sittings {
		ranked := RankScores(sitting.Records, policy)
		for _, rr := range ranked {
			if rr.StudentID != studentID {
				continue
			}
			cohort := len(ranked)
			rankSum += rr.Rank
			beaten += cohort - rr.Rank
			participants += cohort
			total++
			if bestRank == 0 || rr.Rank < bestRank {
				bestRank = rr.Rank
				bestTest = sitting.TestName
			}
			break
		}
	}

	if total == 0 {
		return OverallRanking{}, errors.Wrapf(ErrNoScores, "student %s", studentID)
	}

	return OverallRanking{
		StudentID:   studentID,
		AverageRank: int(math.Round(float64(rankSum) / float64(total))),
		BestRank:    bestRank,
		BestTest:    bestTest,
		Percentile:  int(math.Round(100 * float64(beaten) / float64(participants))),
		TotalTests:  total,
	}, nil
}
