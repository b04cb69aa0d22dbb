/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type Grade string

const (
	GradeGold   Grade = "gold"
	GradeSilver Grade = "silver"
	GradeBronze Grade = "bronze"
	GradeNone   Grade = "none"
)

type ScoreMethod string

const (
	MethodEmbedding ScoreMethod = "embedding"
	MethodOverlap   ScoreMethod = "overlap"
)

type Points struct {
	Team int `json:"team"`
	AI   int `json:"ai"`
}

type TeamVsAI struct {
	TeamWon        bool   `json:"team_won"`
	SabotageImpact int    `json:"sabotage_impact"`
	PointsAwarded  Points `json:"points_awarded"`
}

type ScoreResult struct {
	Score    int         `json:"score"`
	Grade    Grade       `json:"grade"`
	Message  string      `json:"message"`
	Method   ScoreMethod `json:"method"`
	TeamVsAI *TeamVsAI   `json:"team_vs_ai,omitempty"`
}

// Embedder is the external text-embedding service. Vectors from one provider
// share a fixed dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

var ErrNoEmbedder = errors.New("no embedding service configured")

type Scorer struct {
	embedder Embedder
	log      zerolog.Logger
}

func NewScorer(embedder Embedder, log zerolog.Logger) *Scorer {
	return &Scorer{
		embedder: embedder,
		log:      log,
	}
}

// Score grades how much of the seed prompt survived to the final prompt.
// Embedding failures fall back to word overlap rather than failing the round.
func (s *Scorer) Score(ctx context.Context, seed, final string, hadSabotage bool, turns []Turn) ScoreResult {
	score, err := s.embeddingScore(ctx, seed, final)

	method := MethodEmbedding
	if err != nil {
		s.log.Warn().Err(err).Msg("embedding scoring failed, using word overlap")

		score = OverlapScore(seed, final)
		method = MethodOverlap
	}

	res := ScoreResult{
		Score:  score,
		Method: method,
	}
	res.Grade, res.Message = grade(score, hadSabotage)

	if hadSabotage {
		res.TeamVsAI = &TeamVsAI{
			TeamWon:        score >= 60,
			SabotageImpact: 100 - score,
			PointsAwarded:  PointsFor(turns),
		}
	}

	return res
}

func (s *Scorer) embeddingScore(ctx context.Context, seed, final string) (int, error) {
	if s.embedder == nil {
		return 0, ErrNoEmbedder
	}

	var (
		wg         sync.WaitGroup
		a, b       []float64
		errA, errB error
	)

	wg.Go(func() { a, errA = s.embedder.Embed(ctx, seed) })
	wg.Go(func() { b, errB = s.embedder.Embed(ctx, final) })
	wg.Wait()

	if err := errors.Join(errA, errB); err != nil {
		return 0, err
	}

	return clampScore(math.Round(CosineSimilarity(a, b) * 100)), nil
}

// CosineSimilarity returns 0 for mismatched or zero-length vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clampScore(v float64) int {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	}

	return int(v)
}

// OverlapScore is the share of the seed's longer words (more than three
// letters) that also appear in the final prompt.
func OverlapScore(seed, final string) int {
	seedWords := longWords(seed)
	finalWords := longWords(final)

	overlap := 0
	for w := range seedWords {
		if _, ok := finalWords[w]; ok {
			overlap++
		}
	}

	return clampScore(math.Round(float64(overlap) / float64(max(len(seedWords), 1)) * 100))
}

func longWords(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) > 3 {
			set[w] = struct{}{}
		}
	}

	return set
}

func grade(score int, sabotage bool) (Grade, string) {
	if sabotage {
		switch {
		case score >= 75:
			return GradeGold, "Victory! The team overcame the AI sabotage!"
		case score >= 60:
			return GradeSilver, "Good fight! You partially resisted the chaos!"
		case score >= 45:
			return GradeBronze, "The AI put up a fight, but you survived!"
		}

		return GradeNone, "Despite the AI's best efforts to help, total chaos ensued!"
	}

	switch {
	case score >= 90:
		return GradeGold, "Amazing! You kept the essence intact!"
	case score >= 75:
		return GradeSilver, "Great job! Most of the meaning survived!"
	case score >= 60:
		return GradeBronze, "Nice work! Some elements made it through!"
	}

	return GradeNone, "Total drift! But that's AI, am I right?"
}

// PointsFor gives the team a point for every untouched turn and the AI a
// point for every turn it rewrote.
func PointsFor(turns []Turn) Points {
	var p Points
	for _, t := range turns {
		if t.Corrupted() {
			p.AI++
		} else {
			p.Team++
		}
	}

	return p
}
