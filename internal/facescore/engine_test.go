package facescore_test

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore"
	"github.com/ovaphlow/pitchfork/service-streak-go/internal/facescore/entity"
	"github.com/ovaphlow/pitchfork/service-streak-go/pkg/utilities"
)

var epoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// fractionRandom maps every draw to the same point of the requested range.
type fractionRandom float64

func (f fractionRandom) Uniform(low, high float64) float64 {
	return low + float64(f)*(high-low)
}

// tickingClock moves forward by step on every read.
type tickingClock struct {
	now  time.Time
	step time.Duration
}

func (c *tickingClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

func newEngine(t *testing.T, random facescore.RandomSource) *facescore.Engine {
	t.Helper()
	e, err := facescore.NewEngine(random, clockwork.NewFakeClockAt(epoch))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBaseRatingFormula(t *testing.T) {
	tests := []struct {
		name string
		m    entity.FaceMetrics
		want float64
	}{
		{"ideal proportions", entity.FaceMetrics{Symmetry: 0.8, AspectRatio: 0.8, JawlineAngleProxy: 0.6}, 8.2},
		{"near proportions", entity.FaceMetrics{Symmetry: 0.5, AspectRatio: 0.65, JawlineAngleProxy: 0}, 6.7},
		{"outside proportions", entity.FaceMetrics{Symmetry: 0, AspectRatio: 2, JawlineAngleProxy: 0}, 5.0},
		{"bonus boundary is exclusive", entity.FaceMetrics{Symmetry: 0.5, AspectRatio: 0.9, JawlineAngleProxy: 0}, 6.7},
		{"best case", entity.FaceMetrics{Symmetry: 1, AspectRatio: 0.8, JawlineAngleProxy: 1}, 9.0},
		{"out of range inputs are clamped", entity.FaceMetrics{Symmetry: 4, AspectRatio: -1, JawlineAngleProxy: 7}, 8.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := facescore.BaseRating(tt.m); !approx(got, tt.want) {
				t.Fatalf("BaseRating() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRatingStaysWithinBounds(t *testing.T) {
	e := newEngine(t, utilities.NewSeededRandom(42))
	gen := rand.New(rand.NewPCG(7, 11))
	for i := 0; i < 1000; i++ {
		m := entity.FaceMetrics{
			Symmetry:    gen.Float64(),
			AspectRatio: 3 - gen.Float64()*3, // (0, 3]
		}
		m.JawlineAngleProxy = facescore.JawlineProxy(m.AspectRatio)
		res := e.Score(m)
		if res.Rating < facescore.MinRating || res.Rating > facescore.MaxRating {
			t.Fatalf("trial %d: rating %v out of bounds for %+v", i, res.Rating, m)
		}
	}
}

func TestJitterIsBounded(t *testing.T) {
	m := entity.FaceMetrics{Symmetry: 0.7, AspectRatio: 0.82, JawlineAngleProxy: 0.6}
	base := facescore.BaseRating(m)

	e := newEngine(t, utilities.NewSeededRandom(3))
	for i := 0; i < 500; i++ {
		res := e.Score(m)
		if math.Abs(res.Rating-base) > facescore.MaxJitter+1e-9 {
			t.Fatalf("rating %v drifted more than %v from base %v", res.Rating, facescore.MaxJitter, base)
		}
	}

	low := newEngine(t, fractionRandom(0)).Score(m)
	if !approx(low.Rating, base-facescore.MaxJitter) {
		t.Fatalf("lowest draw: rating %v, want %v", low.Rating, base-facescore.MaxJitter)
	}
	mid := newEngine(t, fractionRandom(0.5)).Score(m)
	if !approx(mid.Rating, base) {
		t.Fatalf("middle draw: rating %v, want %v", mid.Rating, base)
	}
}

type wildRandom struct{}

func (wildRandom) Uniform(float64, float64) float64 { return 50 }

func TestMisbehavingRandomSourceIsContained(t *testing.T) {
	m := entity.FaceMetrics{Symmetry: 0.7, AspectRatio: 0.82, JawlineAngleProxy: 0.6}
	res := newEngine(t, wildRandom{}).Score(m)
	if !approx(res.Rating, facescore.BaseRating(m)+facescore.MaxJitter) {
		t.Fatalf("jitter escaped its bound: %v", res.Rating)
	}
	assertLabels(t, res.Strengths)
	assertLabels(t, res.Weaknesses)
}

func assertLabels(t *testing.T, labels []string) {
	t.Helper()
	if len(labels) != 3 {
		t.Fatalf("expected 3 labels, got %v", labels)
	}
	seen := map[string]bool{}
	for _, l := range labels {
		if seen[l] {
			t.Fatalf("duplicate label %q in %v", l, labels)
		}
		seen[l] = true
	}
}

func TestLabelsAreDistinctTriples(t *testing.T) {
	e := newEngine(t, utilities.NewSeededRandom(99))
	gen := rand.New(rand.NewPCG(5, 8))
	for i := 0; i < 1000; i++ {
		m := facescore.MetricsFromBox(gen.Float64(), gen.Float64()*300, 1+gen.Float64()*300)
		res := e.Score(m)
		assertLabels(t, res.Strengths)
		assertLabels(t, res.Weaknesses)
	}
}

func TestRuleLabelsComeFirst(t *testing.T) {
	e := newEngine(t, utilities.NewSeededRandom(1))

	strong := e.Score(facescore.MetricsFromBox(0.9, 72, 100))
	want := []string{facescore.LabelSymmetrical, facescore.LabelProportioned, facescore.LabelStrongJawline}
	if !reflect.DeepEqual(strong.Strengths, want) {
		t.Fatalf("strengths = %v, want %v", strong.Strengths, want)
	}

	weak := e.Score(entity.FaceMetrics{Symmetry: 0.2, AspectRatio: 1.2, JawlineAngleProxy: 0.3})
	want = []string{facescore.LabelAsymmetry, facescore.LabelUnbalanced, facescore.LabelSoftJawline}
	if !reflect.DeepEqual(weak.Weaknesses, want) {
		t.Fatalf("weaknesses = %v, want %v", weak.Weaknesses, want)
	}

	partial := e.Score(entity.FaceMetrics{Symmetry: 0.9, AspectRatio: 1.5, JawlineAngleProxy: 0.5})
	if partial.Strengths[0] != facescore.LabelSymmetrical {
		t.Fatalf("expected symmetry label first, got %v", partial.Strengths)
	}
	assertLabels(t, partial.Strengths)
}

func TestSameSeedSameResult(t *testing.T) {
	m := entity.FaceMetrics{Symmetry: 0.66, AspectRatio: 0.95, JawlineAngleProxy: 0.3}
	build := func() *facescore.Engine {
		e, err := facescore.NewEngine(utilities.NewSeededRandom(2024), clockwork.NewFakeClockAt(epoch),
			facescore.WithIDs(func() string { return "scan_1" }))
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		return e
	}
	a, b := build().Score(m), build().Score(m)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different results:\n%+v\n%+v", a, b)
	}
}

func TestScoreRecordsProcessingTime(t *testing.T) {
	clock := &tickingClock{now: epoch, step: 250 * time.Millisecond}
	e, err := facescore.NewEngine(utilities.NewSeededRandom(1), clock)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	res := e.Score(entity.FaceMetrics{Symmetry: 0.5, AspectRatio: 0.8})
	if !approx(res.ProcessingDurationSeconds, 0.25) {
		t.Fatalf("ProcessingDurationSeconds = %v, want 0.25", res.ProcessingDurationSeconds)
	}
	if !res.CapturedAt.Equal(epoch.Add(250 * time.Millisecond)) {
		t.Fatalf("CapturedAt = %v", res.CapturedAt)
	}
	if res.ID == "" {
		t.Fatalf("expected generated id")
	}
}

func TestDegenerateMetrics(t *testing.T) {
	e := newEngine(t, fractionRandom(0.5))
	m := facescore.MetricsFromBox(math.NaN(), 0, 0)
	if m.Symmetry != 0 || m.AspectRatio != 0 || m.JawlineAngleProxy != 0 {
		t.Fatalf("expected zeroed metrics, got %+v", m)
	}
	res := e.Score(m)
	if !approx(res.Rating, 5.0) {
		t.Fatalf("rating = %v, want 5.0", res.Rating)
	}
	assertLabels(t, res.Strengths)
	assertLabels(t, res.Weaknesses)
}

func TestVocabularyNeedsThreeLabels(t *testing.T) {
	_, err := facescore.ParseVocabulary([]byte("strengths: [a, b, b]\nweaknesses: [x, y, z]\n"))
	if !errors.Is(err, facescore.ErrVocabularyTooSmall) {
		t.Fatalf("expected ErrVocabularyTooSmall, got %v", err)
	}

	_, err = facescore.NewEngine(utilities.NewSeededRandom(1), clockwork.NewFakeClockAt(epoch),
		facescore.WithVocabulary(facescore.Vocabulary{Strengths: []string{"a", "b", "c"}, Weaknesses: []string{"x"}}))
	if !errors.Is(err, facescore.ErrVocabularyTooSmall) {
		t.Fatalf("expected ErrVocabularyTooSmall, got %v", err)
	}

	v := facescore.DefaultVocabulary()
	if len(v.Strengths) != 10 || len(v.Weaknesses) != 10 {
		t.Fatalf("default vocabulary sizes = %d/%d", len(v.Strengths), len(v.Weaknesses))
	}
}

func TestCustomVocabularyFillsFromPool(t *testing.T) {
	v := facescore.Vocabulary{Strengths: []string{"a", "b", "c"}, Weaknesses: []string{"x", "y", "z"}}
	e, err := facescore.NewEngine(utilities.NewSeededRandom(1), clockwork.NewFakeClockAt(epoch), facescore.WithVocabulary(v))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	res := e.Score(entity.FaceMetrics{Symmetry: 0.6, AspectRatio: 0.65, JawlineAngleProxy: 0.5})
	got := map[string]bool{}
	for _, l := range res.Strengths {
		got[l] = true
	}
	if !got["a"] || !got["b"] || !got["c"] {
		t.Fatalf("expected the whole pool, got %v", res.Strengths)
	}
}
