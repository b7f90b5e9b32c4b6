// Package classify predicts the personality variant of a drawing from the
// emotion keywords of its interpretation.
package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/httpclient"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/pkg/variant"
)

var ErrNoKeywords = errors.New("no keywords to classify")

// Prediction is the classifier output merged into the drawing result.
type Prediction struct {
	PersonalityType string             `json:"personality_type"`
	Confidence      float64            `json:"confidence"`
	Probabilities   map[string]float64 `json:"probabilities"`
	InputKeywords   []string           `json:"input_keywords"`
	Error           string             `json:"error,omitempty"`
}

// Scores lays the probabilities out in label order, clamped for storage.
func (p Prediction) Scores() [variant.Count]float64 {
	return variant.ScoresFromProbabilities(p.Probabilities)
}

// PersonaID maps the predicted name to its persona id.
func (p Prediction) PersonaID() (int, bool) {
	return variant.IDForName(p.PersonalityType)
}

// Fallback is returned when inference is unavailable.
func Fallback(keywords []string, err error) Prediction {
	probs := make(map[string]float64, variant.Count)
	for _, n := range variant.Names() {
		probs[n] = 100.0 / float64(variant.Count)
	}
	p := Prediction{
		PersonalityType: variant.FallbackName,
		Confidence:      0.2,
		Probabilities:   probs,
		InputKeywords:   keywords,
	}
	if err != nil {
		p.Error = err.Error()
	}
	return p
}

type Classifier interface {
	// Scores returns one raw score per variant, in label order.
	Scores(ctx context.Context, text string) ([variant.Count]float64, error)
}

// HFClassifier adapts the text-classification inference client.
type HFClassifier struct {
	Client *httpclient.ClassifierClient
}

func (c HFClassifier) Scores(ctx context.Context, text string) ([variant.Count]float64, error) {
	var out [variant.Count]float64
	labels, err := c.Client.Classify(ctx, text)
	if err != nil {
		return out, err
	}
	found := 0
	seen := [variant.Count]bool{}
	for _, ls := range labels {
		i, ok := labelIndex(ls.Label)
		if !ok {
			return out, fmt.Errorf("unknown classifier label %q", ls.Label)
		}
		if !seen[i] {
			seen[i] = true
			found++
		}
		out[i] = ls.Score
	}
	if found != variant.Count {
		return out, fmt.Errorf("classifier returned %d of %d labels", found, variant.Count)
	}
	return out, nil
}

// labelIndex accepts "LABEL_<i>", a bare index, the Korean name or the
// English name.
func labelIndex(label string) (int, bool) {
	l := strings.TrimSpace(label)
	if rest, ok := strings.CutPrefix(strings.ToUpper(l), "LABEL_"); ok {
		l = rest
	}
	if i, err := strconv.Atoi(l); err == nil {
		return i, i >= 0 && i < variant.Count
	}
	for i, v := range variant.All {
		if l == v.Name || strings.EqualFold(l, v.English) {
			return i, true
		}
	}
	return 0, false
}

// Normalize turns raw scores into probabilities. Scores that already form a
// distribution are kept; anything else is treated as logits.
func Normalize(scores [variant.Count]float64) [variant.Count]float64 {
	sum := 0.0
	isDist := true
	for _, s := range scores {
		if s < 0 || s > 1 || math.IsNaN(s) {
			isDist = false
		}
		sum += s
	}
	if isDist && math.Abs(sum-1) < 1e-3 {
		return scores
	}
	return Softmax(scores)
}

func Softmax(logits [variant.Count]float64) [variant.Count]float64 {
	maxL := math.Inf(-1)
	for _, l := range logits {
		maxL = math.Max(maxL, l)
	}
	var out [variant.Count]float64
	sum := 0.0
	for i, l := range logits {
		out[i] = math.Exp(l - maxL)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// Predict builds a prediction from a probability vector.
func Predict(probs [variant.Count]float64, keywords []string) Prediction {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	named := make(map[string]float64, variant.Count)
	for i, v := range variant.All {
		named[v.Name] = math.Round(probs[i]*100*100) / 100
	}
	return Prediction{
		PersonalityType: variant.All[best].Name,
		Confidence:      probs[best],
		Probabilities:   named,
		InputKeywords:   keywords,
	}
}
