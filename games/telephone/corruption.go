/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/rs/zerolog"
)

type Strategy string

const (
	SynonymChaos   Strategy = "synonym_chaos"
	Elaborator     Strategy = "elaborator"
	Completion     Strategy = "completion"
	HomophoneRhyme Strategy = "homophone_rhyme"
	GapFiller      Strategy = "gap_filler"
)

var Strategies = []Strategy{SynonymChaos, Elaborator, Completion, HomophoneRhyme, GapFiller}

func (s Strategy) Valid() bool {
	for _, v := range Strategies {
		if s == v {
			return true
		}
	}

	return false
}

// Personality sets the tone of the words the rewrite service inserts.
type Personality string

const (
	Wholesome Personality = "wholesome"
	Absurd    Personality = "absurd"
	Deranged  Personality = "deranged"
	Unhinged  Personality = "unhinged"
)

var personalities = map[Personality]string{
	Wholesome: "You are an overly enthusiastic, well-meaning AI assistant who tries too hard to make everything sound nice and pleasant. You add happy, family-friendly details and use wholesome language. Think kindergarten teacher energy.",
	Absurd:    "You are a surrealist AI that makes things wonderfully weird and nonsensical. You add bizarre, dreamlike elements that don't make logical sense. Think Salvador Dali meets Monty Python.",
	Deranged:  "You are an unhinged AI that makes things dark, disturbing, or unsettling. You add creepy, ominous, or slightly horrifying details. Think horror movie meets fever dream.",
	Unhinged:  "You are a chaotic AI that adds completely random, off-the-wall elements that make no sense whatsoever. You're unpredictable and wild, throwing in whatever bizarre word comes to mind. Think maximum chaos and randomness.",
}

func (p Personality) Valid() bool {
	_, ok := personalities[p]
	return ok
}

type ChangeKind string

const (
	ChangeAdd     ChangeKind = "add"
	ChangeReplace ChangeKind = "replace"
)

// Change is one entry of the "your words -> AI's words" audit trail.
// Position is a word index into the corrupted prompt.
type Change struct {
	Kind         ChangeKind `json:"type"`
	OriginalText string     `json:"original_text"`
	NewText      string     `json:"new_text"`
	Position     int        `json:"position"`
}

type CorruptionResult struct {
	Original  string   `json:"original"`
	Corrupted string   `json:"corrupted"`
	Strategy  Strategy `json:"strategy"`
	Changes   []Change `json:"changes"`
}

// Applied reports whether the prompt was actually altered.
func (r CorruptionResult) Applied() bool {
	return r.Corrupted != r.Original && len(r.Changes) > 0
}

func noop(prompt string, strategy Strategy) CorruptionResult {
	return CorruptionResult{
		Original:  prompt,
		Corrupted: prompt,
		Strategy:  strategy,
		Changes:   []Change{},
	}
}

type RewriteRequest struct {
	SystemInstructions string
	UserPrompt         string
}

// Rewriter is the external text-completion service.
type Rewriter interface {
	Rewrite(ctx context.Context, req RewriteRequest) (string, error)
}

var (
	ErrNoRewriter       = errors.New("no rewrite service configured")
	ErrMalformedRewrite = errors.New("rewrite dropped or altered the player's words")
)

// Engine fills unused word budget with AI-chosen words. It never shortens a
// prompt and never lets a rewrite failure reach the caller.
type Engine struct {
	rewriter Rewriter
	log      zerolog.Logger

	mu  sync.Mutex
	rng Rand
}

func NewEngine(rewriter Rewriter, rng Rand, log zerolog.Logger) *Engine {
	return &Engine{
		rewriter: rewriter,
		rng:      rng,
		log:      log,
	}
}

func (e *Engine) pickStrategy() Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Strategies[e.rng.IntN(len(Strategies))]
}

// Corrupt inserts exactly limit-minus-current words into prompt, if there is
// room. An empty strategy is picked at random; a limit of zero means "the
// prompt's own length", which leaves nothing to fill.
func (e *Engine) Corrupt(ctx context.Context, prompt string, strategy Strategy, personality Personality, limit WordLimit) CorruptionResult {
	current := CountWords(prompt)

	if limit == 0 {
		limit = WordLimit(current)
	}

	if limit.IsUnlimited() || int(limit)-current <= 0 {
		if strategy == "" {
			strategy = GapFiller
		}

		return noop(prompt, strategy)
	}

	if !strategy.Valid() {
		strategy = e.pickStrategy()
	}
	if !personality.Valid() {
		personality = Absurd
	}

	res, err := e.rewrite(ctx, prompt, strategy, personality, int(limit))
	if err != nil {
		e.log.Warn().Err(err).Str("strategy", string(strategy)).Msg("corruption skipped")

		return noop(prompt, strategy)
	}

	return res
}

func (e *Engine) rewrite(ctx context.Context, prompt string, strategy Strategy, personality Personality, limit int) (CorruptionResult, error) {
	if e.rewriter == nil {
		return CorruptionResult{}, ErrNoRewriter
	}

	out, err := e.rewriter.Rewrite(ctx, RewriteRequest{
		SystemInstructions: instructions(prompt, strategy, personality, limit),
		UserPrompt:         prompt,
	})
	if err != nil {
		return CorruptionResult{}, err
	}

	words, inserted, ok := alignInsertions(strings.Fields(prompt), strings.Fields(cleanRewrite(out)))
	if !ok {
		return CorruptionResult{}, ErrMalformedRewrite
	}

	// The service is asked for an exact count but not trusted to deliver it.
	for i := len(words) - 1; i >= 0 && len(words) > limit; i-- {
		if inserted[i] {
			words = append(words[:i], words[i+1:]...)
			inserted = append(inserted[:i], inserted[i+1:]...)
		}
	}

	changes := insertionRuns(words, inserted)
	if len(changes) == 0 {
		return noop(prompt, strategy), nil
	}

	return CorruptionResult{
		Original:  prompt,
		Corrupted: strings.Join(words, " "),
		Strategy:  strategy,
		Changes:   changes,
	}, nil
}

// FightBack swaps the AI's insertions for the player's own words, capped at
// the unused budget. Empty text leaves the corruption standing.
func FightBack(res CorruptionResult, text string, limit WordLimit) CorruptionResult {
	words := strings.Fields(text)
	if !res.Applied() || len(words) == 0 {
		return res
	}

	if !limit.IsUnlimited() {
		gap := int(limit) - CountWords(res.Original)
		if gap <= 0 {
			return res
		}
		if len(words) > gap {
			words = words[:gap]
		}
	}

	fought := strings.TrimSpace(res.Original + " " + strings.Join(words, " "))

	changes := append(append([]Change{}, res.Changes...), Change{
		Kind:         ChangeReplace,
		OriginalText: res.Corrupted,
		NewText:      fought,
		Position:     0,
	})

	return CorruptionResult{
		Original:  res.Original,
		Corrupted: fought,
		Strategy:  res.Strategy,
		Changes:   changes,
	}
}

func cleanRewrite(s string) string {
	return strings.Trim(strings.TrimSpace(s), "\"'`“”")
}

func normalize(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, word)
}

// alignInsertions matches the original words, in order, inside the rewrite.
// Matched positions get the player's exact token back; everything else is
// flagged as inserted.
func alignInsertions(original, rewritten []string) ([]string, []bool, bool) {
	words := make([]string, 0, len(rewritten))
	inserted := make([]bool, 0, len(rewritten))

	j := 0
	for _, o := range original {
		want := normalize(o)
		found := false

		for ; j < len(rewritten); j++ {
			got := normalize(rewritten[j])
			if got == want && (want != "" || rewritten[j] == o) {
				words = append(words, o)
				inserted = append(inserted, false)
				j++
				found = true

				break
			}
			words = append(words, rewritten[j])
			inserted = append(inserted, true)
		}

		if !found {
			return nil, nil, false
		}
	}

	for ; j < len(rewritten); j++ {
		words = append(words, rewritten[j])
		inserted = append(inserted, true)
	}

	return words, inserted, true
}

func insertionRuns(words []string, inserted []bool) []Change {
	changes := []Change{}

	for i := 0; i < len(words); i++ {
		if !inserted[i] {
			continue
		}

		start := i
		for i < len(words) && inserted[i] {
			i++
		}

		changes = append(changes, Change{
			Kind:     ChangeAdd,
			NewText:  strings.Join(words[start:i], " "),
			Position: start,
		})
	}

	return changes
}

const (
	insertRule = `DO NOT change, remove, or reorder their existing words, only INSERT new ones based on your personality.`

	lengthRule = `IMPORTANT: Return the FULL prompt with exactly %d total words. Insert words naturally.

Return ONLY the modified prompt, nothing else.`

	gapFillerTask = `I noticed they had some trouble completing their description. They only used %d words when they had %d words available! They left %d word(s) unused.

Your task: "Help" them by adding exactly %d word(s) ANYWHERE in their prompt (beginning, middle, or end) to complete it for them. The additions should fit your personality and change the meaning in unexpected ways. Act like you're being genuinely helpful by filling in what they "forgot" to include.

Examples of helpful completions:
- "cat on mat" (need 2 words) -> "elderly cat on burning mat"
- "sunset over ocean" (need 1 word) -> "sunset over frozen ocean"
- "robot walking" (need 3 words) -> "malfunctioning robot walking backwards menacingly"`
)

func instructions(prompt string, strategy Strategy, personality Personality, limit int) string {
	current := CountWords(prompt)
	gap := limit - current

	var task string
	switch strategy {
	case Elaborator:
		task = fmt.Sprintf("They left %d word(s) unused. Add exactly %d descriptive word(s) ANYWHERE in their prompt to elaborate on what they wrote. %s", gap, gap, insertRule)
	case Completion:
		task = fmt.Sprintf("They left %d word(s) unused. Add exactly %d word(s) ANYWHERE in their prompt (beginning, middle, or end) so it reads like a finished sentence. %s", gap, gap, insertRule)
	case HomophoneRhyme:
		task = fmt.Sprintf("They didn't use all their words! Add exactly %d word(s) ANYWHERE in their prompt, choosing words that rhyme with or sound like the words already there. %s", gap, insertRule)
	case GapFiller:
		task = fmt.Sprintf(gapFillerTask, current, limit, gap, gap) + "\n\n" + insertRule
	default:
		task = fmt.Sprintf("They didn't use all their available words! Add exactly %d descriptive word(s) ANYWHERE in their prompt (beginning, middle, or end). %s", gap, insertRule)
	}

	return fmt.Sprintf("%s\n\nThe user wrote: %q\n\n%s\n\n"+lengthRule, personalities[personality], prompt, task, limit)
}
