package facescore

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/utilities"
)

const (
	MinRating = 1.0
	MaxRating = 10.0
	// base rating is held inside this band before jitter
	MinBase   = 4.0
	MaxBase   = 9.5
	MaxJitter = 0.2

	labelCount = 3
)

// Strength and weakness labels produced by the metric rules.
const (
	LabelSymmetrical   = "Symmetrical facial features"
	LabelProportioned  = "Well-proportioned face"
	LabelStrongJawline = "Strong jawline definition"
	LabelAsymmetry     = "Facial asymmetry"
	LabelUnbalanced    = "Unbalanced facial proportions"
	LabelSoftJawline   = "Soft jawline definition"
)

var ErrVocabularyTooSmall = errors.New("vocabulary needs at least 3 distinct labels per pool")

// RandomSource draws uniformly from [low, high).
type RandomSource interface {
	Uniform(low, high float64) float64
}

type Clock interface {
	Now() time.Time
}

// ScanHistoryStore keeps completed scans per user.
type ScanHistoryStore interface {
	Append(ctx context.Context, userID string, result entity.FaceScanResult) error
	// List returns the user's scans, most recent first.
	List(ctx context.Context, userID string) ([]entity.FaceScanResult, error)
	DeleteAll(ctx context.Context, userID string) error
}

// Engine turns face metrics into a rating with labels. Everything apart from
// the jitter draw and label sampling is a pure function of the metrics.
type Engine struct {
	random     RandomSource
	clock      Clock
	ids        func() string
	strengths  []string
	weaknesses []string
}

type Option func(*Engine)

func WithVocabulary(v Vocabulary) Option {
	return func(e *Engine) {
		e.strengths = distinct(v.Strengths)
		e.weaknesses = distinct(v.Weaknesses)
	}
}

// WithIDs sets the result ID generator. Defaults to KSUIDs.
func WithIDs(next func() string) Option {
	return func(e *Engine) {
		if next != nil {
			e.ids = next
		}
	}
}

func NewEngine(random RandomSource, clock Clock, opts ...Option) (*Engine, error) {
	v := DefaultVocabulary()
	e := &Engine{
		random:     random,
		clock:      clock,
		ids:        utilities.NewKSUID,
		strengths:  v.Strengths,
		weaknesses: v.Weaknesses,
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.strengths) < labelCount || len(e.weaknesses) < labelCount {
		return nil, ErrVocabularyTooSmall
	}
	return e, nil
}

// Score rates one face. The result always has a rating in [1, 10] and three
// distinct strengths and weaknesses.
func (e *Engine) Score(metrics entity.FaceMetrics) entity.FaceScanResult {
	start := e.clock.Now()
	m := Sanitize(metrics)

	delta := clamp(e.random.Uniform(-MaxJitter, MaxJitter), -MaxJitter, MaxJitter)
	rating := clamp(BaseRating(m)+delta, MinRating, MaxRating)

	strengths := e.pick(strengthRules(m), e.strengths)
	weaknesses := e.pick(weaknessRules(m), e.weaknesses)

	end := e.clock.Now()
	elapsed := end.Sub(start).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return entity.FaceScanResult{
		ID:                        e.ids(),
		Rating:                    rating,
		Strengths:                 strengths,
		Weaknesses:                weaknesses,
		CapturedAt:                end,
		ProcessingDurationSeconds: elapsed,
	}
}

// BaseRating is the rating before jitter, held inside [MinBase, MaxBase].
//
//	base = 6.5 + (symmetry-0.5)*3 + proportionBonus + jaw*0.5
func BaseRating(metrics entity.FaceMetrics) float64 {
	m := Sanitize(metrics)
	base := 6.5 + (m.Symmetry-0.5)*3.0 + proportionBonus(m.AspectRatio) + m.JawlineAngleProxy*0.5
	return clamp(base, MinBase, MaxBase)
}

// Sanitize pulls metrics into their valid ranges. Landmark extraction can
// hand over zero-sized boxes, so bad values degrade instead of failing.
func Sanitize(m entity.FaceMetrics) entity.FaceMetrics {
	m.Symmetry = clamp(finiteOr(m.Symmetry, 0), 0, 1)
	m.AspectRatio = finiteOr(m.AspectRatio, 0)
	if m.AspectRatio < 0 {
		m.AspectRatio = 0
	}
	m.JawlineAngleProxy = clamp(finiteOr(m.JawlineAngleProxy, 0), 0, 1)
	return m
}

// MetricsFromBox derives aspect ratio and jaw proxy from a face bounding box.
func MetricsFromBox(symmetry, width, height float64) entity.FaceMetrics {
	var ar float64
	if height > 0 && width > 0 {
		ar = width / height
	}
	return Sanitize(entity.FaceMetrics{
		Symmetry:          symmetry,
		AspectRatio:       ar,
		JawlineAngleProxy: JawlineProxy(ar),
	})
}

// JawlineProxy thresholds the aspect ratio: narrower faces read as a more
// angular jaw.
func JawlineProxy(aspectRatio float64) float64 {
	switch {
	case aspectRatio <= 0 || math.IsNaN(aspectRatio):
		return 0
	case aspectRatio < 0.75:
		return 0.8
	case aspectRatio < 0.9:
		return 0.6
	default:
		return 0.3
	}
}

func proportionBonus(ar float64) float64 {
	switch {
	case ar > 0.7 && ar < 0.9:
		return 0.5
	case ar > 0.6 && ar < 1.0:
		return 0.2
	default:
		return 0
	}
}

func strengthRules(m entity.FaceMetrics) []string {
	var out []string
	if m.Symmetry > 0.75 {
		out = append(out, LabelSymmetrical)
	}
	if m.AspectRatio > 0.7 && m.AspectRatio < 0.9 {
		out = append(out, LabelProportioned)
	}
	if m.JawlineAngleProxy > 0.7 {
		out = append(out, LabelStrongJawline)
	}
	return out
}

func weaknessRules(m entity.FaceMetrics) []string {
	var out []string
	if m.Symmetry < 0.5 {
		out = append(out, LabelAsymmetry)
	}
	if m.AspectRatio <= 0.6 || m.AspectRatio >= 1.0 {
		out = append(out, LabelUnbalanced)
	}
	if m.JawlineAngleProxy < 0.4 {
		out = append(out, LabelSoftJawline)
	}
	return out
}

// pick keeps the rule matches in order, then samples the rest of pool
// without replacement until labelCount labels are chosen.
func (e *Engine) pick(matched, pool []string) []string {
	out := make([]string, 0, labelCount)
	seen := make(map[string]struct{}, labelCount)
	for _, l := range matched {
		if len(out) == labelCount {
			break
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}

	rest := make([]string, 0, len(pool))
	for _, l := range pool {
		if _, ok := seen[l]; !ok {
			rest = append(rest, l)
		}
	}
	for len(out) < labelCount && len(rest) > 0 {
		i := e.index(len(rest))
		out = append(out, rest[i])
		rest = append(rest[:i], rest[i+1:]...)
	}
	return out
}

func (e *Engine) index(n int) int {
	i := int(e.random.Uniform(0, float64(n)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
