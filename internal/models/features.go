package models

// FeatureCount is the number of model inputs in a feature row.
const FeatureCount = 10

// FeatureNames lists the model inputs in the order the scorer expects them.
var FeatureNames = [FeatureCount]string{
	"course_post_score",
	"sex_code",
	"age",
	"sire_score",
	"broodmare_sire_score",
	"pedigree_combined",
	"jockey_score",
	"trainer_score",
	"breeder_score",
	"team_combined",
}

// FeatureVector holds the derived, always-numeric features of one entry.
type FeatureVector struct {
	CoursePostScore    float64 `json:"course_post_score"`
	SexCode            int     `json:"sex_code"`
	Age                float64 `json:"age"`
	PostNumber         int     `json:"post_number"`
	SireScore          float64 `json:"sire_score"`
	BroodmareSireScore float64 `json:"broodmare_sire_score"`
	PedigreeCombined   float64 `json:"pedigree_combined"`
	JockeyScore        float64 `json:"jockey_score"`
	TrainerScore       float64 `json:"trainer_score"`
	BreederScore       float64 `json:"breeder_score"`
	TeamCombined       float64 `json:"team_combined"`
}

// Values returns the model inputs in FeatureNames order.
func (f *FeatureVector) Values() []float64 {
	return []float64{
		f.CoursePostScore,
		float64(f.SexCode),
		f.Age,
		f.SireScore,
		f.BroodmareSireScore,
		f.PedigreeCombined,
		f.JockeyScore,
		f.TrainerScore,
		f.BreederScore,
		f.TeamCombined,
	}
}
