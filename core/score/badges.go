package score

// Fixed thresholds used by badges and experience. PassingThreshold is the
// pass/fail boundary across all statistics.
const (
	PassingThreshold   = 114
	HighScoreThreshold = 152
	MasterySumMin      = 45
	TopRankMax         = 3
)

// Experience point values.
const (
	XPPerSitting   = 10
	XPPerPass      = 20
	XPPerHighScore = 30
)

type Badge struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	badgeFirstTest = Badge{
		Code:        "first_test",
		Name:        "First Steps",
		Description: "Completed a first test",
	}
	badgePassing = Badge{
		Code:        "passing",
		Name:        "Pass Line",
		Description: "Scored at or above the passing threshold",
	}
	badgeBasicScience = Badge{
		Code:        "basic_science",
		Name:        "Basic Science Master",
		Description: "Strong combined anatomy, physiology and microbiology scores",
	}
	badgeClinical = Badge{
		Code:        "clinical",
		Name:        "Clinical Master",
		Description: "Strong combined adult, pediatric and maternal nursing scores",
	}
	badgeTopRank = Badge{
		Code:        "top_rank",
		Name:        "Podium",
		Description: "Ranked in the top 3 of the latest test",
	}
)

func (r TestScoreRecord) basicScienceSum() float64 {
	var sum float64
	for _, s := range []int{0, 1, 4} { // anatomy, physiology, microbiology
		if v := r.SubjectScores()[s]; v.Valid {
			sum += v.Float64
		}
	}
	return sum
}

func (r TestScoreRecord) clinicalSum() float64 {
	var sum float64
	for _, s := range []int{6, 7, 8} { // adult, pediatric, maternal nursing
		if v := r.SubjectScores()[s]; v.Valid {
			sum += v.Float64
		}
	}
	return sum
}

// EvaluateBadges derives a student's badges from their historical records
// and their rank in the latest sitting (0 when unknown). Pure.
func EvaluateBadges(recs []TestScoreRecord, latestRank int) []Badge {
	badges := make([]Badge, 0, 5)
	if len(recs) == 0 {
		return badges
	}
	badges = append(badges, badgeFirstTest)

	var passed, basicScience, clinical bool
	for _, rec := range recs {
		if rec.EffectiveTotal() >= PassingThreshold {
			passed = true
		}
		if rec.basicScienceSum() >= MasterySumMin {
			basicScience = true
		}
		if rec.clinicalSum() >= MasterySumMin {
			clinical = true
		}
	}
	if passed {
		badges = append(badges, badgePassing)
	}
	if basicScience {
		badges = append(badges, badgeBasicScience)
	}
	if clinical {
		badges = append(badges, badgeClinical)
	}
	if latestRank > 0 && latestRank <= TopRankMax {
		badges = append(badges, badgeTopRank)
	}
	return badges
}

// Experience accrues fixed point values per sitting, per pass and per high
// score. Pure.
func Experience(recs []TestScoreRecord) int {
	var xp int
	for _, rec := range recs {
		xp += XPPerSitting
		total := rec.EffectiveTotal()
		if total >= PassingThreshold {
			xp += XPPerPass
		}
		if total >= HighScoreThreshold {
			xp += XPPerHighScore
		}
	}
	return xp
}

// Level is derived from experience: floor(xp/100) + 1.
func Level(xp int) int {
	return xp/100 + 1
}

// Profile is the gamified view of a student's history.
type Profile struct {
	StudentID  string  `json:"student_id"`
	Badges     []Badge `json:"badges"`
	Experience int     `json:"experience"`
	Level      int     `json:"level"`
	TotalTests int     `json:"total_tests"`
	LatestRank int     `json:"latest_rank,omitempty"`
}
