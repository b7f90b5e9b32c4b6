package model

import (
	"time"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/variant"
)

type DrawingTest struct {
	ID          uint      `gorm:"column:test_id;primaryKey;autoIncrement" json:"test_id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	ImageRef    string    `gorm:"type:varchar(255);not null" json:"image_ref"`
	Description string    `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	SubmittedAt time.Time `gorm:"not null" json:"submitted_at"`

	// DrawingTest <-> User
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// DrawingTest <-> DrawingTestResult
	Result *DrawingTestResult `gorm:"foreignKey:TestID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"result,omitempty"`
}

func (DrawingTest) TableName() string { return "drawing_tests" }

// DrawingTestResult holds one score column per variant. The column names are
// historical; only their position in variant.All carries meaning.
type DrawingTestResult struct {
	TestID       uint    `gorm:"column:test_id;primaryKey;autoIncrement:false" json:"test_id"`
	PersonaType  *uint   `gorm:"index" json:"persona_type"`
	SummaryText  string  `gorm:"type:text;not null;default:''" json:"summary_text"`
	DogScores    float64 `gorm:"type:decimal(5,2);not null;default:0" json:"dog_scores"`
	CatScores    float64 `gorm:"type:decimal(5,2);not null;default:0" json:"cat_scores"`
	RabbitScores float64 `gorm:"type:decimal(5,2);not null;default:0" json:"rabbit_scores"`
	BearScores   float64 `gorm:"type:decimal(5,2);not null;default:0" json:"bear_scores"`
	TurtleScores float64 `gorm:"type:decimal(5,2);not null;default:0" json:"turtle_scores"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (DrawingTestResult) TableName() string { return "drawing_test_results" }

// Scores returns the five score columns in label order.
func (r *DrawingTestResult) Scores() [variant.Count]float64 {
	return [variant.Count]float64{r.DogScores, r.CatScores, r.RabbitScores, r.BearScores, r.TurtleScores}
}

// SetScores clamps each score to the column range and writes it in label order.
func (r *DrawingTestResult) SetScores(s [variant.Count]float64) {
	r.DogScores = variant.ClampScore(s[0])
	r.CatScores = variant.ClampScore(s[1])
	r.RabbitScores = variant.ClampScore(s[2])
	r.BearScores = variant.ClampScore(s[3])
	r.TurtleScores = variant.ClampScore(s[4])
}

// ScoreColumns lists the score column names in label order.
func ScoreColumns() []string {
	cols := make([]string, 0, variant.Count)
	for _, v := range variant.All {
		cols = append(cols, v.Column)
	}
	return cols
}
