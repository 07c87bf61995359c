package model

// ExamLevel distinguishes associate from professional certification exams.
type ExamLevel string

const (
	ExamLevelAssociate    ExamLevel = "associate"
	ExamLevelProfessional ExamLevel = "professional"
)

// ExamType is a certification-exam profile: time limit, pass threshold
// and question count for a full-length mock exam.
type ExamType struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	ShortName        string    `json:"short_name"`
	Level            ExamLevel `json:"level"`
	TimeLimitMinutes int       `json:"time_limit_minutes"`
	PassThreshold    int       `json:"pass_threshold"`
	QuestionCount    int       `json:"question_count"`
}

// ExamTypes is the built-in catalog of supported exam profiles.
var ExamTypes = map[string]ExamType{
	"AWS_DVA": {
		ID:               "AWS_DVA",
		Name:             "AWS Certified Developer",
		ShortName:        "Developer Associate",
		Level:            ExamLevelAssociate,
		TimeLimitMinutes: 130,
		PassThreshold:    45,
		QuestionCount:    65,
	},
	"AWS_SAA": {
		ID:               "AWS_SAA",
		Name:             "AWS Certified Solutions Architect",
		ShortName:        "Solutions Architect Associate",
		Level:            ExamLevelAssociate,
		TimeLimitMinutes: 130,
		PassThreshold:    45,
		QuestionCount:    65,
	},
	"AWS_SOA": {
		ID:               "AWS_SOA",
		Name:             "AWS Certified SysOps Administrator",
		ShortName:        "SysOps Administrator Associate",
		Level:            ExamLevelAssociate,
		TimeLimitMinutes: 130,
		PassThreshold:    45,
		QuestionCount:    65,
	},
	"AWS_DOP": {
		ID:               "AWS_DOP",
		Name:             "AWS Certified DevOps Engineer",
		ShortName:        "DevOps Engineer Professional",
		Level:            ExamLevelProfessional,
		TimeLimitMinutes: 180,
		PassThreshold:    45,
		QuestionCount:    75,
	},
}

// ExamTypeByID looks up an exam profile, reporting whether it exists.
func ExamTypeByID(id string) (ExamType, bool) {
	et, ok := ExamTypes[id]
	return et, ok
}

// ExamTypeIDs returns the catalog keys in a stable order.
func ExamTypeIDs() []string {
	return []string{"AWS_DVA", "AWS_SAA", "AWS_SOA", "AWS_DOP"}
}
