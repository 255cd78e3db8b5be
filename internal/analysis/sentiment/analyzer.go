package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"
)

// Label 表示情感倾向的粗粒度结论。
type Label string

const (
	Positive          Label = "positive"
	NeutralOrNegative Label = "neutral or negative"
)

// PositiveThreshold is the polarity a text must exceed to be labelled positive.
const PositiveThreshold = 0.3

// Result carries the polarity score in [-1, 1] and its label.
type Result struct {
	Polarity float64 `json:"polarity"`
	Label    Label   `json:"label"`
}

// analyzer only reads its lexicon after construction and is shared by all requests.
var analyzer = govader.NewSentimentIntensityAnalyzer()

// Analyze scores text with VADER. The compound score is already normalized to
// [-1, 1] and accounts for negation, boosters and punctuation emphasis.
func Analyze(text string) Result {
	if strings.TrimSpace(text) == "" {
		return classify(0)
	}
	return classify(clamp(analyzer.PolarityScores(text).Compound))
}

func classify(polarity float64) Result {
	label := NeutralOrNegative
	if polarity > PositiveThreshold {
		label = Positive
	}
	return Result{Polarity: polarity, Label: label}
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
