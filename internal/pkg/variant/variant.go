// Package variant holds the canonical five-way persona label space shared by the
// classifier, the result columns and the chat personas. Every name/id/column map
// in the codebase is derived from All.
package variant

import "math"

// Variant is one personality label.
type Variant struct {
	ID        int    // persona_id, 1..5
	Name      string // Korean label emitted by the classifier
	English   string
	Column    string // score column on drawing_test_results
	PromptKey string // persona prompt file key
}

// All is the wire-critical label order. Index i holds persona_id i+1.
var All = [5]Variant{
	{ID: 1, Name: "추진형", English: "driver", Column: "dog_scores", PromptKey: "chujin"},
	{ID: 2, Name: "내면형", English: "introspective", Column: "cat_scores", PromptKey: "nemyeon"},
	{ID: 3, Name: "관계형", English: "relational", Column: "rabbit_scores", PromptKey: "gwangye"},
	{ID: 4, Name: "쾌락형", English: "hedonic", Column: "bear_scores", PromptKey: "querock"},
	{ID: 5, Name: "안정형", English: "stable", Column: "turtle_scores", PromptKey: "anjeong"},
}

const (
	// Count is the number of variants.
	Count = len(All)
	// FallbackName is what the classifier reports when inference is unavailable.
	FallbackName = "내면형"
	// MaxScore is the largest value a DECIMAL(5,2) score column can hold.
	MaxScore = 999.99
)

var (
	byName = make(map[string]Variant, Count)
	byID   = make(map[int]Variant, Count)
)

func init() {
	for _, v := range All {
		byName[v.Name] = v
		byID[v.ID] = v
	}
}

// ByName looks a variant up by its Korean label.
func ByName(name string) (Variant, bool) {
	v, ok := byName[name]
	return v, ok
}

// ByID looks a variant up by persona_id.
func ByID(id int) (Variant, bool) {
	v, ok := byID[id]
	return v, ok
}

// Names returns the labels in canonical order.
func Names() []string {
	out := make([]string, 0, Count)
	for _, v := range All {
		out = append(out, v.Name)
	}
	return out
}

// IDForName maps a label to its persona_id; ok is false for unknown labels.
func IDForName(name string) (int, bool) {
	v, ok := byName[name]
	if !ok {
		return 0, false
	}
	return v.ID, true
}

// ClampScore bounds a probability to the DECIMAL(5,2) column range and rounds
// it to two decimals. NaN is stored as zero.
func ClampScore(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > MaxScore {
		return MaxScore
	}
	return math.Round(p*100) / 100
}

// ScoresFromProbabilities lays a name→probability map out in label order with
// clamping applied. Missing labels score zero.
func ScoresFromProbabilities(probs map[string]float64) [Count]float64 {
	var out [Count]float64
	for i, v := range All {
		out[i] = ClampScore(probs[v.Name])
	}
	return out
}

// ArgMax returns the variant with the highest score, and false when every
// score is zero. Ties resolve to the earlier label.
func ArgMax(scores [Count]float64) (Variant, bool) {
	best := -1
	for i, s := range scores {
		if s <= 0 {
			continue
		}
		if best < 0 || s > scores[best] {
			best = i
		}
	}
	if best < 0 {
		return Variant{}, false
	}
	return All[best], true
}
