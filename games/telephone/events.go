/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

// Event is one of the transitions below. Events whose precondition does not
// hold leave the state untouched.
type Event interface {
	apply(GameState) GameState
}

type (
	AddPlayerEvent      struct{ Player Player }
	RemovePlayerEvent   struct{ PlayerID string }
	UpdateSettingsEvent struct{ Settings Settings }
	StartGameEvent      struct{ Card Card }
	SubmitTurnEvent     struct{ Turn Turn }
	StartNextRoundEvent struct{ Card Card }
	AwardScoreEvent     struct{ Result ScoreResult }
	ResetGameEvent      struct{ ID string }
)

func (e AddPlayerEvent) apply(s GameState) GameState      { return AddPlayer(s, e.Player) }
func (e RemovePlayerEvent) apply(s GameState) GameState   { return RemovePlayer(s, e.PlayerID) }
func (e UpdateSettingsEvent) apply(s GameState) GameState { return UpdateSettings(s, e.Settings) }
func (e StartGameEvent) apply(s GameState) GameState      { return StartGame(s, e.Card) }
func (e SubmitTurnEvent) apply(s GameState) GameState     { return SubmitTurn(s, e.Turn) }
func (e StartNextRoundEvent) apply(s GameState) GameState { return StartNextRound(s, e.Card) }
func (e AwardScoreEvent) apply(s GameState) GameState     { return AwardScore(s, e.Result) }
func (e ResetGameEvent) apply(s GameState) GameState      { return ResetGame(s, e.ID) }

func Apply(s GameState, e Event) GameState {
	if e == nil {
		return s
	}

	return e.apply(s)
}
