/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"

	"github.com/Seednode/promptphone/games/telephone"
)

// Messages coming from clients
type ClientMessage struct {
	Type     string              `json:"type"`               // see readPump for the full list
	Name     string              `json:"name,omitempty"`     // join
	Settings *telephone.Settings `json:"settings,omitempty"` // settings
	Prompt   string              `json:"prompt,omitempty"`   // submit
	Words    []string            `json:"words,omitempty"`    // submit, mad lib turn only
	Text     string              `json:"text,omitempty"`     // draft / fight_back
}

// SessionInfoMessage is sent immediately on connect so the client knows
// which role this cookie has.
type SessionInfoMessage struct {
	Type       string           `json:"type"` // "session_info"
	GameID     string           `json:"game_id"`
	PlayerID   string           `json:"player_id"`
	IsExisting bool             `json:"is_existing"`
	IsHost     bool             `json:"is_host"`
	Name       string           `json:"name,omitempty"`
	Modes      []telephone.Mode `json:"modes"`
}

// GameStateMessage is a per-viewer snapshot; see snapshotFor.
type GameStateMessage struct {
	Type          string              `json:"type"` // "game_state"
	State         telephone.GameState `json:"state"`
	IsHost        bool                `json:"is_host"`
	YourTurn      bool                `json:"your_turn"`
	Pending       bool                `json:"pending"`
	WordLimit     int                 `json:"word_limit"` // -1 when unlimited
	TimerRunning  bool                `json:"timer_running"`
	TimeRemaining int                 `json:"time_remaining,omitempty"`
}

type TurnTimerMessage struct {
	Type      string `json:"type"` // "turn_timer"
	PlayerID  string `json:"player_id"`
	Remaining int    `json:"remaining"`
	Total     int    `json:"total"`
}

// CorruptionMessage announces a sabotaged prompt. FightBackSeconds is only
// set on the copy sent to the player who can still fight back.
type CorruptionMessage struct {
	Type             string                     `json:"type"` // "corruption"
	PlayerID         string                     `json:"player_id"`
	Result           telephone.CorruptionResult `json:"result"`
	FightBackSeconds int                        `json:"fight_back_seconds,omitempty"`
}

type ValidationMessage struct {
	Type   string                     `json:"type"` // "validation"
	Result telephone.ValidationResult `json:"result"`
}

type ScoreMessage struct {
	Type   string                `json:"type"` // "score"
	Round  int                   `json:"round"`
	Result telephone.ScoreResult `json:"result"`
}

type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

func newError(msg string) ErrorMessage {
	return ErrorMessage{Type: "error", Message: msg}
}

// snapshotFor hides what a telephone player must not see mid-round: other
// players' words, every image but the one they are describing, and the card
// unless they are filling it in. Setup and replay are shown in full.
func snapshotFor(s telephone.GameState, viewerID string) telephone.GameState {
	if s.Status != telephone.StatusPlaying {
		return s
	}

	current, _ := s.CurrentPlayer()
	describing := current.ID == viewerID

	out := s
	out.ForbiddenWords = []string{}
	out.Turns = slices.Clone(s.Turns)

	if !describing || len(s.Turns) > 0 {
		out.Card = nil
	}

	last := len(out.Turns) - 1
	for i := range out.Turns {
		t := &out.Turns[i]

		if t.PlayerID == viewerID {
			if !s.Settings.TransparentSabotage && t.Corrupted() {
				t.Prompt = t.OriginalPrompt
				t.OriginalPrompt = ""
				t.CorruptedPrompt = ""
				t.Strategy = ""
				t.FoughtBack = false
			}
			continue
		}

		t.Prompt = ""
		t.OriginalPrompt = ""
		t.CorruptedPrompt = ""
		t.Strategy = ""
		t.FoughtBack = false

		if !describing || i != last {
			t.ImageURL = ""
		}
	}

	return out
}
