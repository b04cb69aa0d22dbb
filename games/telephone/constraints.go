/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

type ConstraintKind string

const (
	ConstraintNone           ConstraintKind = "none"
	ConstraintOneSyllable    ConstraintKind = "one_syllable"
	ConstraintNoAdjectives   ConstraintKind = "no_adjectives"
	ConstraintForbiddenWords ConstraintKind = "forbidden_words"
)

func (c ConstraintKind) Valid() bool {
	switch c {
	case ConstraintNone, ConstraintOneSyllable, ConstraintNoAdjectives, ConstraintForbiddenWords:
		return true
	}

	return false
}

type Violation struct {
	Word     string `json:"word"`
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// ValidationResult is advisory; callers decide whether to block or warn.
type ValidationResult struct {
	IsValid    bool        `json:"is_valid"`
	Violations []Violation `json:"violations"`
	Message    string      `json:"message,omitempty"`
}

var (
	silentSuffix = regexp.MustCompile(`(?:[^laeiouy]es|ed|[^laeiouy]e)$`)
	vowelGroup   = regexp.MustCompile(`[aeiouy]{1,2}`)
	nonLetters   = regexp.MustCompile(`[^a-z]`)
)

func trimToken(word string) string {
	return strings.TrimFunc(strings.ToLower(word), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CountSyllables is a vowel-group heuristic, never less than one.
func CountSyllables(word string) int {
	word = trimToken(word)
	if len(word) <= 3 {
		return 1
	}

	word = silentSuffix.ReplaceAllString(word, "")

	n := len(vowelGroup.FindAllString(word, -1))
	if n == 0 {
		return 1
	}

	return n
}

var commonAdjectives = toSet(
	"good", "bad", "big", "small", "large", "little", "old", "new", "young",
	"high", "low", "long", "short", "tall", "wide", "narrow", "thick", "thin",
	"heavy", "light", "dark", "bright", "hot", "cold", "warm", "cool", "wet", "dry",
	"clean", "dirty", "empty", "full", "hard", "soft", "loud", "quiet", "fast", "slow",
	"early", "late", "happy", "sad", "angry", "calm", "strong", "weak", "rich", "poor",
	"beautiful", "ugly", "pretty", "handsome", "nice", "mean", "kind", "cruel", "gentle", "rough",
	"smooth", "sharp", "dull", "round", "square", "straight", "curved", "flat", "steep",
	"deep", "shallow", "near", "far", "close", "distant", "same", "different", "similar",
	"easy", "difficult", "simple", "complex", "clear", "unclear", "obvious", "hidden",
	"real", "fake", "true", "false", "right", "wrong", "correct", "incorrect", "perfect", "broken",
	"whole", "complete", "incomplete", "busy", "free", "open", "closed",
	"red", "blue", "green", "yellow", "orange", "purple", "pink", "brown", "black", "white", "gray",
	"amazing", "terrible", "wonderful", "awful", "great", "horrible", "fantastic", "excellent", "brilliant",
	"strange", "weird", "normal", "unusual", "common", "rare", "special", "ordinary", "unique",
	"important", "unimportant", "necessary", "unnecessary", "useful", "useless", "helpful", "harmful",
	"safe", "dangerous", "scary", "funny", "serious", "silly", "crazy", "wild", "peaceful",
	"tiny", "huge", "giant", "massive", "enormous", "gigantic", "microscopic", "miniature",
	"ancient", "modern", "contemporary", "historic", "futuristic", "prehistoric",
	"electric", "wooden", "metal", "plastic", "stone", "glass", "paper", "golden", "silver",
	"sweet", "sour", "bitter", "salty", "spicy", "bland", "tasty", "delicious", "disgusting",
	"silent", "noisy", "deafening", "dim", "shiny", "sparkly", "glowing",
	"alive", "dead", "living", "dying", "healthy", "sick", "ill", "well",
	"awake", "asleep", "sleepy", "tired", "energetic", "lazy", "active", "passive",
)

var adjectiveEndings = []string{"able", "ible", "al", "ful", "ic", "ive", "less", "ous", "ish", "y"}

func IsAdjective(word string) bool {
	lower := trimToken(word)
	if _, ok := commonAdjectives[lower]; ok {
		return true
	}

	for _, ending := range adjectiveEndings {
		if strings.HasSuffix(lower, ending) && len(lower) > len(ending)+2 {
			return true
		}
	}

	return false
}

// ExtractWords normalizes a prompt into lowercase letter-only tokens, dropping
// anything left empty. Used to build the forbidden list from the seed prompt.
func ExtractWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))

	words := make([]string, 0, len(fields))
	for _, f := range fields {
		if w := nonLetters.ReplaceAllString(f, ""); w != "" {
			words = append(words, w)
		}
	}

	return words
}

// Validate checks text against a constraint. Input is never modified.
func Validate(text string, constraint ConstraintKind, forbidden []string) ValidationResult {
	words := strings.Fields(text)
	violations := []Violation{}

	var label string

	switch constraint {
	case ConstraintOneSyllable:
		label = "word(s) have more than 1 syllable"
		for i, w := range words {
			if n := CountSyllables(w); n > 1 {
				violations = append(violations, Violation{
					Word:     w,
					Position: i,
					Reason:   fmt.Sprintf("%q has %d syllables (need 1)", w, n),
				})
			}
		}

	case ConstraintNoAdjectives:
		label = "adjective(s) detected"
		for i, w := range words {
			if IsAdjective(w) {
				violations = append(violations, Violation{
					Word:     w,
					Position: i,
					Reason:   fmt.Sprintf("%q is an adjective", w),
				})
			}
		}

	case ConstraintForbiddenWords:
		label = "forbidden word(s) used"
		set := toSet(forbidden...)
		if len(set) == 0 {
			break
		}
		for i, w := range words {
			clean := nonLetters.ReplaceAllString(strings.ToLower(w), "")
			if _, ok := set[clean]; ok {
				violations = append(violations, Violation{
					Word:     w,
					Position: i,
					Reason:   fmt.Sprintf("%q was in the first player's prompt", w),
				})
			}
		}
	}

	res := ValidationResult{
		IsValid:    len(violations) == 0,
		Violations: violations,
	}
	if !res.IsValid {
		res.Message = fmt.Sprintf("%d %s", len(violations), label)
	}

	return res
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}

	return set
}
