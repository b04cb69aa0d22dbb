/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/Seednode/promptphone/games/telephone"
	"github.com/Seednode/promptphone/providers"
)

type imageGenerator interface {
	Generate(ctx context.Context, req providers.ImageRequest) (providers.ImageResult, error)
}

// services are shared by every hub on the server.
type services struct {
	images          imageGenerator
	engine          *telephone.Engine
	scorer          *telephone.Scorer
	tickers         telephone.TickerFactory
	fightBackWindow time.Duration
	seed            uint64
}

func newServices(cfg *Config) *services {
	log := coreLogger(cfg)

	var (
		rewriter telephone.Rewriter
		embedder telephone.Embedder
	)
	if cfg.openaiKey != "" {
		o := providers.NewOpenAI(cfg.openaiKey, cfg.openaiURL, cfg.chatModel, cfg.embeddingModel, cfg.collaboratorTimeout)
		rewriter, embedder = o, o
	} else {
		logf(cfg, "START: No OpenAI key set; sabotage is disabled and scoring uses word overlap")
	}

	var images imageGenerator = providers.Mock{Delay: cfg.mockDelay}
	if cfg.useMockImages() {
		logf(cfg, "START: Using placeholder images")
	} else {
		images = providers.NewFal(cfg.falKey, cfg.falURL, cfg.falModel, cfg.collaboratorTimeout)
	}

	svc := &services{
		images:          images,
		scorer:          telephone.NewScorer(embedder, log),
		tickers:         telephone.SystemTickers{},
		fightBackWindow: cfg.fightBackWindow,
		seed:            cfg.seed,
	}
	svc.engine = telephone.NewEngine(rewriter, telephone.NewRand(svc.nextSeed()), log)

	return svc
}

// nextSeed is the configured seed, or a fresh random one when unset.
func (s *services) nextSeed() uint64 {
	if s.seed != 0 {
		return s.seed
	}

	return rand.Uint64()
}

func (s *services) newDeck() *telephone.Deck {
	return telephone.NewDeck(telephone.Cards, telephone.NewRand(s.nextSeed()))
}

type pendingTurn struct {
	turn      int
	playerID  string
	fightBack chan string
}

type pipelineJob struct {
	turn      int
	playerID  string
	prompt    string
	madLib    bool
	limit     telephone.WordLimit
	settings  telephone.Settings
	fightBack <-chan string
}

type turnResult struct {
	turn     int
	playerID string
	entry    telephone.Turn
	err      error
}

type roundScore struct {
	turn   int
	round  int
	result telephone.ScoreResult
}

// handlePlay processes messages from the player whose turn it is: reveal,
// draft, submit and fight_back.
func (h *Hub) handlePlay(r request) {
	c := r.client
	msg := r.msg

	h.mu.Lock()
	defer h.mu.Unlock()

	h.lastActive = time.Now()

	current, ok := h.state.CurrentPlayer()
	if !ok || current.ID != c.playerID {
		if msg.Type == "submit" {
			h.sendLocked(c, newError("It is not your turn."))
		}
		return
	}

	switch msg.Type {
	case "reveal":
		h.armTimerLocked(c.playerID)

	case "draft":
		h.drafts[c.playerID] = h.promptFromLocked(msg)

	case "fight_back":
		p := h.pending
		if p == nil || p.playerID != c.playerID || p.fightBack == nil {
			return
		}

		select {
		case p.fightBack <- msg.Text:
		default:
		}

	case "submit":
		h.submitLocked(c, msg)
	}
}

// promptFromLocked turns a draft or submission into prompt text. On the mad
// lib turn the player may send just the words for the blanks, and gets
// nothing back until every blank has one.
func (h *Hub) promptFromLocked(msg ClientMessage) string {
	card := h.state.Card

	if len(h.state.Turns) == 0 && card != nil && len(msg.Words) > 0 {
		if len(msg.Words) < card.Blanks || slices.ContainsFunc(msg.Words, func(w string) bool {
			return strings.TrimSpace(w) == ""
		}) {
			return ""
		}

		return card.Fill(msg.Words)
	}

	if msg.Prompt != "" {
		return strings.TrimSpace(msg.Prompt)
	}

	return strings.TrimSpace(msg.Text)
}

func (h *Hub) submitLocked(c *Client, msg ClientMessage) {
	if h.pending != nil {
		h.sendLocked(c, newError("Your last submission is still being processed."))
		return
	}

	text := h.promptFromLocked(msg)
	if text == "" {
		h.sendLocked(c, newError("Please fill in every blank before submitting."))
		return
	}

	limit := h.state.WordLimit()
	if n := telephone.CountWords(text); !limit.Allows(n) {
		h.sendLocked(c, ValidationMessage{
			Type: "validation",
			Result: telephone.ValidationResult{
				Violations: []telephone.Violation{},
				Message:    fmt.Sprintf("%d words is over the limit of %s", n, limit),
			},
		})
		return
	}

	if len(h.state.Turns) > 0 {
		res := telephone.Validate(text, h.state.Settings.Constraint, h.state.ForbiddenWords)
		if !res.IsValid {
			h.sendLocked(c, ValidationMessage{Type: "validation", Result: res})
			return
		}
	}

	// The timer got there first and already submitted the draft.
	if h.timer != nil && !h.timer.Claim() {
		return
	}

	h.beginTurnLocked(c.playerID, text)
}

// handleForced takes a submission from the turn timer. Constraints are not
// checked here; the timer only fires for drafts within the word limit.
func (h *Hub) handleForced(f forcedSubmit) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if f.turn != h.turn || h.pending != nil {
		return
	}

	current, ok := h.state.CurrentPlayer()
	if !ok || current.ID != f.playerID {
		return
	}

	logf(h.cfg, "GAMES: Time ran out for %q in %s; submitting their draft", current.Name, h.id)

	h.beginTurnLocked(f.playerID, f.text)
}

func (h *Hub) armTimerLocked(playerID string) {
	if h.timer == nil || h.pending != nil {
		return
	}

	turn := h.turn
	total := h.state.Settings.TimerSeconds()

	armed := h.timer.Arm(
		func() string {
			h.mu.RLock()
			defer h.mu.RUnlock()

			if h.turn != turn {
				return ""
			}
			return h.drafts[playerID]
		},
		func(text string) {
			enqueue(h, h.forced, forcedSubmit{turn: turn, playerID: playerID, text: text})
		},
		func(remaining int) {
			enqueue(h, h.ticks, timerTick{turn: turn, remaining: remaining})
		},
	)

	if armed {
		h.broadcastLocked(TurnTimerMessage{
			Type:      "turn_timer",
			PlayerID:  playerID,
			Remaining: total,
			Total:     total,
		})
	}
}

func (h *Hub) handleTick(t timerTick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Ticks are suppressed while a submission is in flight.
	if t.turn != h.turn || h.pending != nil {
		return
	}

	current, ok := h.state.CurrentPlayer()
	if !ok {
		return
	}

	h.broadcastLocked(TurnTimerMessage{
		Type:      "turn_timer",
		PlayerID:  current.ID,
		Remaining: t.remaining,
		Total:     h.state.Settings.TimerSeconds(),
	})
}

// resetTimerLocked replaces the timer with a fresh, unarmed one for the turn
// in progress, if the game has timers on.
func (h *Hub) resetTimerLocked() {
	if h.timer != nil {
		h.timer.Stop()
	}
	h.timer = nil

	if h.state.Status != telephone.StatusPlaying {
		return
	}

	if seconds := h.state.Settings.TimerSeconds(); seconds > 0 {
		h.timer = telephone.NewTurnTimer(seconds, h.state.WordLimit(), h.svc.tickers)
	}
}

// nextTurnLocked forgets everything tied to the previous turn. Late results
// from its pipeline or timer carry the old turn number and are dropped.
func (h *Hub) nextTurnLocked() {
	h.turn++
	h.pending = nil
	h.scoring = false
	clear(h.drafts)

	h.resetTimerLocked()
}

func (h *Hub) beginTurnLocked(playerID, text string) {
	s := h.state

	p := &pendingTurn{
		turn:     h.turn,
		playerID: playerID,
	}

	job := pipelineJob{
		turn:     h.turn,
		playerID: playerID,
		prompt:   text,
		madLib:   len(s.Turns) == 0,
		limit:    s.WordLimit(),
		settings: s.Settings,
	}

	if s.Settings.SabotageEnabled && s.Settings.AllowFightBack && s.Settings.TransparentSabotage && h.svc.fightBackWindow > 0 {
		p.fightBack = make(chan string, 1)
		job.fightBack = p.fightBack
	}

	h.pending = p
	delete(h.drafts, playerID)

	h.broadcastStateLocked()

	go h.runPipeline(job)
}

// runPipeline carries one submission through sabotage, the fight-back
// window and image generation, then hands the finished turn to the hub.
func (h *Hub) runPipeline(job pipelineJob) {
	entry := telephone.Turn{
		PlayerID: job.playerID,
		Prompt:   job.prompt,
	}

	if job.settings.SabotageEnabled && !job.madLib {
		res := h.svc.engine.Corrupt(h.ctx, job.prompt, "", job.settings.SabotageMode, job.limit)
		if res.Applied() {
			var fought bool
			res, fought = h.offerFightBack(job, res)

			entry.Prompt = res.Corrupted
			entry.OriginalPrompt = res.Original
			entry.CorruptedPrompt = res.Corrupted
			entry.Strategy = res.Strategy
			entry.FoughtBack = fought

			logf(h.cfg, "GAMES: Sabotaged a prompt in %s using %s", h.id, res.Strategy)
		}
	}

	img, err := h.svc.images.Generate(h.ctx, providers.ImageRequest{
		Prompt: entry.Prompt,
		Size:   providers.SizeSquare,
		Steps:  telephone.GetMode(job.settings.GameMode).ImageQuality.InferenceSteps(),
	})
	if err == nil {
		entry.ImageURL = img.ImageURL
	}

	enqueue(h, h.results, turnResult{
		turn:     job.turn,
		playerID: job.playerID,
		entry:    entry,
		err:      err,
	})
}

// offerFightBack shows the submitter what the saboteur did and, when
// allowed, waits briefly for their own words to replace the AI's. Covert
// sabotage stays hidden until the replay.
func (h *Hub) offerFightBack(job pipelineJob, res telephone.CorruptionResult) (telephone.CorruptionResult, bool) {
	if !job.settings.TransparentSabotage {
		return res, false
	}

	msg := CorruptionMessage{
		Type:     "corruption",
		PlayerID: job.playerID,
		Result:   res,
	}
	if job.fightBack != nil {
		msg.FightBackSeconds = int(math.Ceil(h.svc.fightBackWindow.Seconds()))
	}

	h.mu.Lock()
	stale := job.turn != h.turn
	if !stale {
		h.sendToPlayerLocked(job.playerID, msg)
	}
	h.mu.Unlock()

	if stale || job.fightBack == nil {
		return res, false
	}

	select {
	case text := <-job.fightBack:
		fought := telephone.FightBack(res, text, job.limit)
		return fought, fought.Corrupted != res.Corrupted
	case <-time.After(h.svc.fightBackWindow):
	case <-h.ctx.Done():
	}

	return res, false
}

func (h *Hub) handleResult(res turnResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.pending == nil || res.turn != h.turn {
		return
	}
	h.pending = nil

	if res.err != nil {
		logf(h.cfg, "GAMES: Image generation failed in %s: %v", h.id, res.err)

		h.sendToPlayerLocked(res.playerID, newError("The image could not be generated. Please try submitting again."))
		h.resetTimerLocked()
		h.broadcastStateLocked()
		return
	}

	if !h.applyLocked(telephone.SubmitTurnEvent{Turn: res.entry}) {
		h.broadcastStateLocked()
	}
}

// startScoringLocked scores the finished round off the hub goroutine. The
// result comes back through handleScore.
func (h *Hub) startScoringLocked() {
	s := h.state
	final, _ := s.PreviousTurn()

	job := struct {
		turn     int
		round    int
		seed     string
		final    string
		sabotage bool
		turns    []telephone.Turn
	}{
		turn:     h.turn,
		round:    s.CurrentRound,
		seed:     s.SeedPrompt(),
		final:    final.Prompt,
		sabotage: s.Settings.SabotageEnabled,
		turns:    slices.Clone(s.Turns),
	}

	h.scoring = true

	go func() {
		res := h.svc.scorer.Score(h.ctx, job.seed, job.final, job.sabotage, job.turns)

		enqueue(h, h.scores, roundScore{turn: job.turn, round: job.round, result: res})
	}()
}

func (h *Hub) handleScore(sc roundScore) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sc.turn != h.turn {
		return
	}
	h.scoring = false

	if !h.applyLocked(telephone.AwardScoreEvent{Result: sc.result}) {
		return
	}

	logf(h.cfg, "GAMES: Round %d of %s scored %d (%s)", sc.round, h.id, sc.result.Score, sc.result.Method)

	h.broadcastLocked(ScoreMessage{
		Type:   "score",
		Round:  sc.round,
		Result: sc.result,
	})
}
