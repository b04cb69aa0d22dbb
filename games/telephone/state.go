/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package telephone holds the rules of prompt telephone: word budgets,
// linguistic constraints, AI sabotage, turn timers, scoring, and the game
// state machine that ties them together. Nothing here does network I/O;
// external services come in through the Rewriter and Embedder interfaces.
package telephone

import (
	"slices"
	"strings"
	"time"
)

type Status string

const (
	StatusSetup   Status = "setup"
	StatusPlaying Status = "playing"
	StatusReplay  Status = "replay"
)

type Player struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"is_active"`
}

func NewPlayer(id, name string) Player {
	return Player{
		ID:       id,
		Name:     strings.TrimSpace(name),
		IsActive: true,
	}
}

// Turn.Prompt is always the text sent to image generation. OriginalPrompt and
// CorruptedPrompt are set only when sabotage changed the player's words.
type Turn struct {
	PlayerID        string    `json:"player_id"`
	PlayerName      string    `json:"player_name"`
	Prompt          string    `json:"prompt"`
	OriginalPrompt  string    `json:"original_prompt,omitempty"`
	CorruptedPrompt string    `json:"corrupted_prompt,omitempty"`
	Strategy        Strategy  `json:"strategy,omitempty"`
	FoughtBack      bool      `json:"fought_back,omitempty"`
	ImageURL        string    `json:"image_url"`
	Timestamp       time.Time `json:"timestamp"`
	IsMadLib        bool      `json:"is_mad_lib"`
}

func (t Turn) Corrupted() bool {
	return t.OriginalPrompt != "" && t.CorruptedPrompt != ""
}

type Round struct {
	Number int          `json:"round_number"`
	Turns  []Turn       `json:"turns"`
	Card   Card         `json:"mad_lib_card"`
	Score  *ScoreResult `json:"score,omitempty"`
}

type Settings struct {
	TurnTimerEnabled    bool           `json:"turn_timer_enabled"`
	TurnTimerSeconds    int            `json:"turn_timer_seconds"`
	MaxPlayers          int            `json:"max_players"`
	NumberOfRounds      int            `json:"number_of_rounds"`
	GameMode            string         `json:"game_mode"`
	SabotageEnabled     bool           `json:"sabotage_enabled"`
	SabotageMode        Personality    `json:"sabotage_mode"`
	AllowFightBack      bool           `json:"allow_fight_back"`
	TransparentSabotage bool           `json:"transparent_sabotage"`
	Constraint          ConstraintKind `json:"constraint"`
}

const (
	minPlayers     = 2
	maxMaxPlayers  = 20
	maxRounds      = 10
	defaultSeconds = 60
)

func DefaultSettings() Settings {
	return Settings{
		TurnTimerSeconds:    defaultSeconds,
		MaxPlayers:          10,
		NumberOfRounds:      3,
		GameMode:            DefaultModeID,
		SabotageMode:        Absurd,
		TransparentSabotage: true,
		Constraint:          ConstraintNone,
	}
}

// WithMode switches game mode and adopts that mode's timer defaults.
func (s Settings) WithMode(id string) Settings {
	m := GetMode(id)

	s.GameMode = m.ID
	s.TurnTimerEnabled = m.TurnTimerEnabled
	if m.TurnTimerSeconds > 0 {
		s.TurnTimerSeconds = m.TurnTimerSeconds
	}

	return s
}

// MergeSettings resolves a settings change against the current settings. A
// new game mode brings its timer defaults, unless the same change also set
// the timer explicitly.
func MergeSettings(current, next Settings) Settings {
	if next.GameMode == current.GameMode {
		return next
	}

	if next.TurnTimerEnabled != current.TurnTimerEnabled || next.TurnTimerSeconds != current.TurnTimerSeconds {
		next.GameMode = GetMode(next.GameMode).ID
		return next
	}

	return next.WithMode(next.GameMode)
}

// TimerSeconds is the countdown per turn, or zero when the timer is off.
func (s Settings) TimerSeconds() int {
	if !s.TurnTimerEnabled {
		return 0
	}

	return s.TurnTimerSeconds
}

func (s Settings) normalized() Settings {
	def := DefaultSettings()

	if s.MaxPlayers < minPlayers {
		s.MaxPlayers = def.MaxPlayers
	}
	s.MaxPlayers = min(s.MaxPlayers, maxMaxPlayers)

	if s.NumberOfRounds < 1 {
		s.NumberOfRounds = def.NumberOfRounds
	}
	s.NumberOfRounds = min(s.NumberOfRounds, maxRounds)

	if s.TurnTimerSeconds <= 0 {
		s.TurnTimerSeconds = def.TurnTimerSeconds
	}

	s.GameMode = GetMode(s.GameMode).ID

	if !s.SabotageMode.Valid() {
		s.SabotageMode = def.SabotageMode
	}
	if !s.Constraint.Valid() {
		s.Constraint = ConstraintNone
	}

	return s
}

// GameState is the aggregate root. Transitions never modify their input;
// they return a new value with freshly copied slices.
type GameState struct {
	ID               string       `json:"id"`
	Status           Status       `json:"status"`
	Players          []Player     `json:"players"`
	CurrentTurnIndex int          `json:"current_turn_index"`
	Turns            []Turn       `json:"turns"`
	Card             *Card        `json:"mad_lib_card"`
	Settings         Settings     `json:"settings"`
	CurrentRound     int          `json:"current_round"`
	TotalRounds      int          `json:"total_rounds"`
	CompletedRounds  []Round      `json:"completed_rounds"`
	TeamPoints       int          `json:"team_points"`
	AIPoints         int          `json:"ai_points"`
	ForbiddenWords   []string     `json:"forbidden_words"`
	RoundScore       *ScoreResult `json:"round_score,omitempty"`
}

func NewGame(id string, settings Settings) GameState {
	return GameState{
		ID:              id,
		Status:          StatusSetup,
		Players:         []Player{},
		Turns:           []Turn{},
		Settings:        settings.normalized(),
		CompletedRounds: []Round{},
		ForbiddenWords:  []string{},
	}
}

func (s GameState) clone() GameState {
	c := s
	c.Players = slices.Clone(s.Players)
	c.Turns = slices.Clone(s.Turns)
	c.CompletedRounds = slices.Clone(s.CompletedRounds)
	c.ForbiddenWords = slices.Clone(s.ForbiddenWords)

	return c
}

func (s GameState) playerIndex(id string) int {
	return slices.IndexFunc(s.Players, func(p Player) bool { return p.ID == id })
}

// nextActive finds the first active roster slot at or after from.
func (s GameState) nextActive(from int) int {
	for i := from; i < len(s.Players); i++ {
		if s.Players[i].IsActive {
			return i
		}
	}

	return len(s.Players)
}

func (s GameState) CurrentPlayer() (Player, bool) {
	if s.Status != StatusPlaying || s.CurrentTurnIndex >= len(s.Players) {
		return Player{}, false
	}

	return s.Players[s.CurrentTurnIndex], true
}

// SeedPrompt is the first turn's prompt this round, or "" before it exists.
func (s GameState) SeedPrompt() string {
	if len(s.Turns) == 0 {
		return ""
	}

	return s.Turns[0].Prompt
}

func (s GameState) PreviousTurn() (Turn, bool) {
	if len(s.Turns) == 0 {
		return Turn{}, false
	}

	return s.Turns[len(s.Turns)-1], true
}

// WordLimit is the budget for the turn in progress. The mad lib turn is not
// budgeted.
func (s GameState) WordLimit() WordLimit {
	if len(s.Turns) == 0 {
		return Unlimited
	}

	return Limit(s.SeedPrompt(), s.Settings.GameMode)
}

func (s GameState) Scored() bool {
	return s.RoundScore != nil
}

func (s GameState) MatchOver() bool {
	return s.Status == StatusReplay && s.CurrentRound >= s.TotalRounds
}

func (s GameState) ActivePlayers() int {
	n := 0
	for _, p := range s.Players {
		if p.IsActive {
			n++
		}
	}

	return n
}

// AddPlayer joins a player during setup. Full rosters, blank names and
// duplicate names are ignored.
func AddPlayer(s GameState, p Player) GameState {
	p.Name = strings.TrimSpace(p.Name)

	if s.Status != StatusSetup || p.ID == "" || p.Name == "" {
		return s
	}
	if len(s.Players) >= s.Settings.MaxPlayers || s.playerIndex(p.ID) >= 0 {
		return s
	}
	for _, existing := range s.Players {
		if strings.EqualFold(existing.Name, p.Name) {
			return s
		}
	}

	p.IsActive = true

	next := s.clone()
	next.Players = append(next.Players, p)

	return next
}

// RemovePlayer drops a player. Before the game starts they simply leave the
// roster. Mid-game, anyone who already took a turn this round is kept as an
// inactive tombstone so recorded turns still resolve; everyone else leaves.
func RemovePlayer(s GameState, playerID string) GameState {
	idx := s.playerIndex(playerID)
	if idx < 0 {
		return s
	}

	next := s.clone()

	if s.Status != StatusSetup && idx < s.CurrentTurnIndex {
		next.Players[idx].IsActive = false
		return next
	}

	next.Players = slices.Delete(next.Players, idx, idx+1)

	if next.Status == StatusPlaying {
		next.CurrentTurnIndex = next.nextActive(next.CurrentTurnIndex)
		if next.CurrentTurnIndex >= len(next.Players) {
			next.Status = StatusReplay
		}
	}

	return next
}

func UpdateSettings(s GameState, settings Settings) GameState {
	if s.Status != StatusSetup {
		return s
	}

	next := s.clone()
	next.Settings = settings.normalized()

	return next
}

func StartGame(s GameState, card Card) GameState {
	if s.Status != StatusSetup || s.ActivePlayers() < minPlayers {
		return s
	}

	next := s.clone()
	next.Status = StatusPlaying
	next.Card = &card
	next.Turns = []Turn{}
	next.CurrentTurnIndex = next.nextActive(0)
	next.CurrentRound = 1
	next.TotalRounds = next.Settings.NumberOfRounds
	next.CompletedRounds = []Round{}
	next.TeamPoints = 0
	next.AIPoints = 0
	next.ForbiddenWords = []string{}
	next.RoundScore = nil

	return next
}

// SubmitTurn records the current player's turn and passes play to the next
// active player, or to replay once the roster is exhausted. A turn naming a
// different player is ignored.
func SubmitTurn(s GameState, t Turn) GameState {
	current, ok := s.CurrentPlayer()
	if !ok || strings.TrimSpace(t.Prompt) == "" {
		return s
	}
	if t.PlayerID != "" && t.PlayerID != current.ID {
		return s
	}

	t.PlayerID = current.ID
	t.PlayerName = current.Name
	t.IsMadLib = len(s.Turns) == 0
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	next := s.clone()
	next.Turns = append(next.Turns, t)

	if t.IsMadLib {
		next.ForbiddenWords = ExtractWords(t.Prompt)
	}

	next.CurrentTurnIndex = next.nextActive(s.CurrentTurnIndex + 1)
	if next.CurrentTurnIndex >= len(next.Players) {
		next.Status = StatusReplay
	}

	return next
}

// StartNextRound seals the finished round into history and deals a new card.
func StartNextRound(s GameState, card Card) GameState {
	if s.Status != StatusReplay || s.CurrentRound >= s.TotalRounds || s.Card == nil {
		return s
	}

	next := s.clone()
	next.CompletedRounds = append(next.CompletedRounds, Round{
		Number: s.CurrentRound,
		Turns:  slices.Clone(s.Turns),
		Card:   *s.Card,
		Score:  s.RoundScore,
	})
	next.Status = StatusPlaying
	next.Card = &card
	next.Turns = []Turn{}
	next.CurrentTurnIndex = next.nextActive(0)
	next.CurrentRound++
	next.ForbiddenWords = []string{}
	next.RoundScore = nil

	if next.CurrentTurnIndex >= len(next.Players) {
		next.Status = StatusReplay
	}

	return next
}

// AwardScore attaches the round's score and folds its points into the match
// totals. A round can only be scored once.
func AwardScore(s GameState, res ScoreResult) GameState {
	if s.Status != StatusReplay || s.Scored() {
		return s
	}

	next := s.clone()
	next.RoundScore = &res

	if res.TeamVsAI != nil {
		next.TeamPoints += res.TeamVsAI.PointsAwarded.Team
		next.AIPoints += res.TeamVsAI.PointsAwarded.AI
	}

	return next
}

// ResetGame discards everything, from any state.
func ResetGame(_ GameState, id string) GameState {
	return NewGame(id, DefaultSettings())
}
