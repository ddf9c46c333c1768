package facescore

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var defaultVocabularyYAML []byte

// Vocabulary holds the label pools results draw from.
type Vocabulary struct {
	Strengths  []string `yaml:"strengths"`
	Weaknesses []string `yaml:"weaknesses"`
}

// ParseVocabulary reads a YAML vocabulary and checks both pools.
func ParseVocabulary(raw []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parse vocabulary: %w", err)
	}
	v.Strengths = distinct(v.Strengths)
	v.Weaknesses = distinct(v.Weaknesses)
	if len(v.Strengths) < labelCount {
		return Vocabulary{}, fmt.Errorf("%w: %d strengths", ErrVocabularyTooSmall, len(v.Strengths))
	}
	if len(v.Weaknesses) < labelCount {
		return Vocabulary{}, fmt.Errorf("%w: %d weaknesses", ErrVocabularyTooSmall, len(v.Weaknesses))
	}
	return v, nil
}

// DefaultVocabulary returns the embedded pools.
func DefaultVocabulary() Vocabulary {
	v, err := ParseVocabulary(defaultVocabularyYAML)
	if err != nil {
		panic(err)
	}
	return v
}

func distinct(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
