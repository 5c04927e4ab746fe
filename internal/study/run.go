package study

import (
	"time"

	"github.com/KaramelBytes/errmech-cli/internal/mechanism"
	"github.com/KaramelBytes/errmech-cli/internal/pipeline"
)

// Settings captures what a run needs to be reproduced.
type Settings struct {
	Seed       int64   `json:"seed"`
	Folds      int     `json:"folds"`
	Estimators int     `json:"estimators"`
	Test       string  `json:"test"`
	Metric     string  `json:"metric"`
	Rule       string  `json:"mar_rule"`
	MNARAlpha  float64 `json:"mnar_alpha"`
	MARAlpha   float64 `json:"mar_alpha"`
}

// Run is one inference pass over a dataset.
type Run struct {
	ID        string                  `json:"id"`
	Dataset   string                  `json:"dataset"`
	Settings  Settings                `json:"settings"`
	Results   []pipeline.ColumnResult `json:"results"`
	CreatedAt time.Time               `json:"created_at"`
}

// Counts tallies the run's results per mechanism.
func (r *Run) Counts() map[mechanism.Mechanism]int {
	return pipeline.Summary(r.Results)
}
