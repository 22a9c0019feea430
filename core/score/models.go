package score

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Subjects is the fixed list of graded subjects, in display order. The
// column layout of test_scores, question_counts and subject_criteria
// mirrors this list.
var Subjects = []string{
	"anatomy",
	"physiology",
	"pharmacology",
	"pathology",
	"microbiology",
	"basic_nursing",
	"adult_nursing",
	"pediatric_nursing",
	"maternal_nursing",
	"psychiatric_nursing",
	"community_health",
	"medical_law",
	"nutrition",
	"first_aid",
	"infection_control",
	"medical_terminology",
}

// TestScoreRecord is one student's result for one sitting of a named test.
// Subject fields are nullable: a null means the student did not take that
// subject and counts as 0 towards the total.
type TestScoreRecord struct {
	ID        string    `json:"id" db:"id"`
	StudentID string    `json:"student_id" db:"student_id"`
	TestName  string    `json:"test_name" db:"test_name"`
	TestDate  time.Time `json:"test_date" db:"test_date"`

	Anatomy            null.Float64 `json:"anatomy" db:"anatomy"`
	Physiology         null.Float64 `json:"physiology" db:"physiology"`
	Pharmacology       null.Float64 `json:"pharmacology" db:"pharmacology"`
	Pathology          null.Float64 `json:"pathology" db:"pathology"`
	Microbiology       null.Float64 `json:"microbiology" db:"microbiology"`
	BasicNursing       null.Float64 `json:"basic_nursing" db:"basic_nursing"`
	AdultNursing       null.Float64 `json:"adult_nursing" db:"adult_nursing"`
	PediatricNursing   null.Float64 `json:"pediatric_nursing" db:"pediatric_nursing"`
	MaternalNursing    null.Float64 `json:"maternal_nursing" db:"maternal_nursing"`
	PsychiatricNursing null.Float64 `json:"psychiatric_nursing" db:"psychiatric_nursing"`
	CommunityHealth    null.Float64 `json:"community_health" db:"community_health"`
	MedicalLaw         null.Float64 `json:"medical_law" db:"medical_law"`
	Nutrition          null.Float64 `json:"nutrition" db:"nutrition"`
	FirstAid           null.Float64 `json:"first_aid" db:"first_aid"`
	InfectionControl   null.Float64 `json:"infection_control" db:"infection_control"`
	MedicalTerminology null.Float64 `json:"medical_terminology" db:"medical_terminology"`

	TotalScore null.Float64 `json:"total_score" db:"total_score"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// SubjectScores returns the subject fields in Subjects order.
func (r TestScoreRecord) SubjectScores() []null.Float64 {
	return []null.Float64{
		r.Anatomy,
		r.Physiology,
		r.Pharmacology,
		r.Pathology,
		r.Microbiology,
		r.BasicNursing,
		r.AdultNursing,
		r.PediatricNursing,
		r.MaternalNursing,
		r.PsychiatricNursing,
		r.CommunityHealth,
		r.MedicalLaw,
		r.Nutrition,
		r.FirstAid,
		r.InfectionControl,
		r.MedicalTerminology,
	}
}

// SameSitting reports whether two records belong to the same test sitting.
func (r TestScoreRecord) SameSitting(other TestScoreRecord) bool {
	return r.TestName == other.TestName && r.TestDate.Equal(other.TestDate)
}

// QuestionCount holds the number of questions per subject for a named test.
// Display only; it never participates in scoring.
type QuestionCount struct {
	ID       string `json:"id" db:"id"`
	TestName string `json:"test_name" db:"test_name"`

	Anatomy            null.Int `json:"anatomy" db:"anatomy"`
	Physiology         null.Int `json:"physiology" db:"physiology"`
	Pharmacology       null.Int `json:"pharmacology" db:"pharmacology"`
	Pathology          null.Int `json:"pathology" db:"pathology"`
	Microbiology       null.Int `json:"microbiology" db:"microbiology"`
	BasicNursing       null.Int `json:"basic_nursing" db:"basic_nursing"`
	AdultNursing       null.Int `json:"adult_nursing" db:"adult_nursing"`
	PediatricNursing   null.Int `json:"pediatric_nursing" db:"pediatric_nursing"`
	MaternalNursing    null.Int `json:"maternal_nursing" db:"maternal_nursing"`
	PsychiatricNursing null.Int `json:"psychiatric_nursing" db:"psychiatric_nursing"`
	CommunityHealth    null.Int `json:"community_health" db:"community_health"`
	MedicalLaw         null.Int `json:"medical_law" db:"medical_law"`
	Nutrition          null.Int `json:"nutrition" db:"nutrition"`
	FirstAid           null.Int `json:"first_aid" db:"first_aid"`
	InfectionControl   null.Int `json:"infection_control" db:"infection_control"`
	MedicalTerminology null.Int `json:"medical_terminology" db:"medical_terminology"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// Criteria types
const (
	CriteriaPassing = "passing"
	CriteriaFailing = "failing"
)

// CriteriaRecord holds per-subject pass or fail thresholds for a named test.
// Each test has at most two rows, one per criteria type.
type CriteriaRecord struct {
	ID           string `json:"id" db:"id"`
	TestName     string `json:"test_name" db:"test_name"`
	CriteriaType string `json:"criteria_type" db:"criteria_type"`

	Anatomy            null.Float64 `json:"anatomy" db:"anatomy"`
	Physiology         null.Float64 `json:"physiology" db:"physiology"`
	Pharmacology       null.Float64 `json:"pharmacology" db:"pharmacology"`
	Pathology          null.Float64 `json:"pathology" db:"pathology"`
	Microbiology       null.Float64 `json:"microbiology" db:"microbiology"`
	BasicNursing       null.Float64 `json:"basic_nursing" db:"basic_nursing"`
	AdultNursing       null.Float64 `json:"adult_nursing" db:"adult_nursing"`
	PediatricNursing   null.Float64 `json:"pediatric_nursing" db:"pediatric_nursing"`
	MaternalNursing    null.Float64 `json:"maternal_nursing" db:"maternal_nursing"`
	PsychiatricNursing null.Float64 `json:"psychiatric_nursing" db:"psychiatric_nursing"`
	CommunityHealth    null.Float64 `json:"community_health" db:"community_health"`
	MedicalLaw         null.Float64 `json:"medical_law" db:"medical_law"`
	Nutrition          null.Float64 `json:"nutrition" db:"nutrition"`
	FirstAid           null.Float64 `json:"first_aid" db:"first_aid"`
	InfectionControl   null.Float64 `json:"infection_control" db:"infection_control"`
	MedicalTerminology null.Float64 `json:"medical_terminology" db:"medical_terminology"`

	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}
