/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCard = Card{ID: "card-1", Template: "A ___ riding a ___", Blanks: 2}

func lobby(t *testing.T, names ...string) GameState {
	t.Helper()

	s := NewGame("game1234", DefaultSettings())
	for i, name := range names {
		s = AddPlayer(s, NewPlayer(string(rune('a'+i)), name))
	}
	require.Len(t, s.Players, len(names))

	return s
}

func TestAddPlayer(t *testing.T) {
	t.Parallel()

	s := lobby(t, "Alice")

	assert.Len(t, AddPlayer(s, NewPlayer("b", "Bob")).Players, 2)
	assert.Len(t, AddPlayer(s, NewPlayer("b", "  ")).Players, 1, "blank names are ignored")
	assert.Len(t, AddPlayer(s, NewPlayer("b", "alice")).Players, 1, "names are unique ignoring case")
	assert.Len(t, AddPlayer(s, NewPlayer("a", "Another")).Players, 1, "ids are unique")
	assert.Len(t, AddPlayer(s, NewPlayer("", "Nobody")).Players, 1)

	settings := DefaultSettings()
	settings.MaxPlayers = 2
	full := UpdateSettings(lobby(t, "Alice", "Bob"), settings)
	assert.Len(t, AddPlayer(full, NewPlayer("c", "Carol")).Players, 2, "full roster")

	started := StartGame(lobby(t, "Alice", "Bob"), testCard)
	assert.Len(t, AddPlayer(started, NewPlayer("c", "Carol")).Players, 2, "no joining mid-game")
}

func TestSettingsNormalized(t *testing.T) {
	t.Parallel()

	got := Settings{
		MaxPlayers:     50,
		NumberOfRounds: 0,
		GameMode:       "nonsense",
		SabotageMode:   "polite",
		Constraint:     "haiku",
	}.normalized()

	assert.Equal(t, 20, got.MaxPlayers)
	assert.Equal(t, 3, got.NumberOfRounds)
	assert.Equal(t, DefaultModeID, got.GameMode)
	assert.Equal(t, Absurd, got.SabotageMode)
	assert.Equal(t, ConstraintNone, got.Constraint)
	assert.Equal(t, 60, got.TurnTimerSeconds)

	assert.Equal(t, 10, Settings{NumberOfRounds: 99, MaxPlayers: 1}.normalized().NumberOfRounds)
	assert.Equal(t, 10, Settings{MaxPlayers: 1}.normalized().MaxPlayers)
}

func TestSettingsWithMode(t *testing.T) {
	t.Parallel()

	blitz := DefaultSettings().WithMode("blitz")
	assert.True(t, blitz.TurnTimerEnabled)
	assert.Equal(t, 30, blitz.TimerSeconds())

	relaxed := blitz.WithMode("relaxed")
	assert.False(t, relaxed.TurnTimerEnabled)
	assert.Equal(t, 0, relaxed.TimerSeconds())
}

func TestMergeSettings(t *testing.T) {
	t.Parallel()

	current := DefaultSettings()

	t.Run("Mode Change Brings Timer Defaults", func(t *testing.T) {
		t.Parallel()

		next := current
		next.GameMode = "blitz"

		got := MergeSettings(current, next)
		assert.Equal(t, "blitz", got.GameMode)
		assert.True(t, got.TurnTimerEnabled)
		assert.Equal(t, 30, got.TurnTimerSeconds)
	})

	t.Run("Explicit Timer Wins Over Mode Defaults", func(t *testing.T) {
		t.Parallel()

		next := current
		next.GameMode = "blitz"
		next.TurnTimerEnabled = true
		next.TurnTimerSeconds = 2

		got := MergeSettings(current, next)
		assert.Equal(t, "blitz", got.GameMode)
		assert.True(t, got.TurnTimerEnabled)
		assert.Equal(t, 2, got.TurnTimerSeconds)
	})

	t.Run("Timer Can Be Switched Off With The Mode Change", func(t *testing.T) {
		t.Parallel()

		blitz := current.WithMode("blitz")
		next := blitz
		next.GameMode = "classic"
		next.TurnTimerEnabled = false

		got := MergeSettings(blitz, next)
		assert.Equal(t, "classic", got.GameMode)
		assert.False(t, got.TurnTimerEnabled)
	})

	t.Run("Same Mode Passes Through", func(t *testing.T) {
		t.Parallel()

		next := current
		next.NumberOfRounds = 5
		next.TurnTimerEnabled = true

		assert.Equal(t, next, MergeSettings(current, next))
	})

	t.Run("Unknown Mode Resolves To Classic", func(t *testing.T) {
		t.Parallel()

		next := current
		next.GameMode = "speedrun"
		next.TurnTimerSeconds = 45

		assert.Equal(t, DefaultModeID, MergeSettings(current, next).GameMode)
	})
}

func TestSingleRound(t *testing.T) {
	t.Parallel()

	s := lobby(t, "Alice", "Bob")
	assert.Equal(t, StatusSetup, s.Status)

	s = StartGame(s, testCard)
	require.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 1, s.CurrentRound)
	assert.Equal(t, 3, s.TotalRounds)
	assert.Equal(t, Unlimited, s.WordLimit())

	current, ok := s.CurrentPlayer()
	require.True(t, ok)
	assert.Equal(t, "Alice", current.Name)

	s = SubmitTurn(s, Turn{Prompt: testCard.Fill([]string{"penguin", "unicycle"}), ImageURL: "https://img/1"})
	require.Len(t, s.Turns, 1)
	assert.True(t, s.Turns[0].IsMadLib)
	assert.Equal(t, "A penguin riding a unicycle", s.SeedPrompt())
	assert.Equal(t, []string{"a", "penguin", "riding", "a", "unicycle"}, s.ForbiddenWords)
	assert.Equal(t, WordLimit(3), s.WordLimit())

	current, _ = s.CurrentPlayer()
	assert.Equal(t, "Bob", current.Name)

	s = SubmitTurn(s, Turn{Prompt: "bird on bike", ImageURL: "https://img/2"})
	assert.Equal(t, StatusReplay, s.Status)
	assert.Len(t, s.Turns, 2)
	assert.Empty(t, s.CompletedRounds)
	assert.False(t, s.MatchOver())

	_, ok = s.CurrentPlayer()
	assert.False(t, ok)
}

func TestMultipleRounds(t *testing.T) {
	t.Parallel()

	settings := DefaultSettings()
	settings.NumberOfRounds = 2

	s := UpdateSettings(lobby(t, "Alice", "Bob"), settings)
	s = StartGame(s, testCard)
	require.Equal(t, 2, s.TotalRounds)

	s = SubmitTurn(s, Turn{Prompt: "A cat riding a dog"})
	s = SubmitTurn(s, Turn{Prompt: "cat dog"})
	require.Equal(t, StatusReplay, s.Status)

	s = AwardScore(s, ScoreResult{Score: 80, Grade: GradeSilver, Method: MethodOverlap})
	require.True(t, s.Scored())

	next := Card{ID: "card-2", Template: "The ___ ate my ___", Blanks: 2}
	s = StartNextRound(s, next)

	assert.Equal(t, StatusPlaying, s.Status)
	assert.Equal(t, 2, s.CurrentRound)
	assert.Empty(t, s.Turns)
	assert.Empty(t, s.ForbiddenWords)
	assert.Nil(t, s.RoundScore)
	assert.Equal(t, 0, s.CurrentTurnIndex)
	require.NotNil(t, s.Card)
	assert.Equal(t, "card-2", s.Card.ID)

	require.Len(t, s.CompletedRounds, 1)
	assert.Equal(t, 1, s.CompletedRounds[0].Number)
	assert.Equal(t, "card-1", s.CompletedRounds[0].Card.ID)
	assert.Len(t, s.CompletedRounds[0].Turns, 2)
	require.NotNil(t, s.CompletedRounds[0].Score)
	assert.Equal(t, 80, s.CompletedRounds[0].Score.Score)

	s = SubmitTurn(s, Turn{Prompt: "The goat ate my homework"})
	s = SubmitTurn(s, Turn{Prompt: "goat homework"})
	require.True(t, s.MatchOver())

	assert.Equal(t, s, StartNextRound(s, next), "no rounds left")
}

func TestSubmitTurn(t *testing.T) {
	t.Parallel()

	s := StartGame(lobby(t, "Alice", "Bob", "Carol"), testCard)

	t.Run("Wrong Player Is Ignored", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, s, SubmitTurn(s, Turn{PlayerID: "b", Prompt: "hi"}))
	})

	t.Run("Empty Prompt Is Ignored", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, s, SubmitTurn(s, Turn{Prompt: "   "}))
	})

	t.Run("Outside Play Is Ignored", func(t *testing.T) {
		t.Parallel()

		setup := lobby(t, "Alice", "Bob")
		assert.Equal(t, setup, SubmitTurn(setup, Turn{Prompt: "hi"}))
	})

	t.Run("Round Robin Order", func(t *testing.T) {
		t.Parallel()

		got := SubmitTurn(s, Turn{Prompt: "A cat riding a bus"})
		got = SubmitTurn(got, Turn{Prompt: "cat bus"})
		got = SubmitTurn(got, Turn{Prompt: "feline transit"})

		var order []string
		for _, turn := range got.Turns {
			order = append(order, turn.PlayerName)
		}
		assert.Equal(t, []string{"Alice", "Bob", "Carol"}, order)
		assert.Equal(t, StatusReplay, got.Status)
	})
}

func TestTransitionsCopyOnWrite(t *testing.T) {
	t.Parallel()

	before := StartGame(lobby(t, "Alice", "Bob"), testCard)
	snapshot := before.clone()

	after := SubmitTurn(before, Turn{Prompt: "A cat riding a bus"})
	after = RemovePlayer(after, "b")
	_ = AwardScore(after, ScoreResult{Score: 10})

	if diff := cmp.Diff(snapshot, before); diff != "" {
		t.Errorf("input state was modified (-want +got):\n%s", diff)
	}
}

func TestRemovePlayer(t *testing.T) {
	t.Parallel()

	t.Run("During Setup", func(t *testing.T) {
		t.Parallel()

		s := RemovePlayer(lobby(t, "Alice", "Bob"), "a")
		require.Len(t, s.Players, 1)
		assert.Equal(t, "Bob", s.Players[0].Name)
	})

	t.Run("Unknown Player", func(t *testing.T) {
		t.Parallel()

		s := lobby(t, "Alice")
		assert.Equal(t, s, RemovePlayer(s, "zzz"))
	})

	t.Run("After Their Turn Leaves A Tombstone", func(t *testing.T) {
		t.Parallel()

		s := StartGame(lobby(t, "Alice", "Bob", "Carol"), testCard)
		s = SubmitTurn(s, Turn{Prompt: "A cat riding a bus"})
		s = RemovePlayer(s, "a")

		require.Len(t, s.Players, 3)
		assert.False(t, s.Players[0].IsActive)
		assert.Equal(t, 2, s.ActivePlayers())
		assert.Equal(t, "Alice", s.Turns[0].PlayerName)

		current, _ := s.CurrentPlayer()
		assert.Equal(t, "Bob", current.Name)
	})

	t.Run("Current Player Passes The Turn", func(t *testing.T) {
		t.Parallel()

		s := StartGame(lobby(t, "Alice", "Bob", "Carol"), testCard)
		s = SubmitTurn(s, Turn{Prompt: "A cat riding a bus"})
		s = RemovePlayer(s, "b")

		require.Len(t, s.Players, 2)
		current, ok := s.CurrentPlayer()
		require.True(t, ok)
		assert.Equal(t, "Carol", current.Name)
	})

	t.Run("Last Pending Player Ends The Round", func(t *testing.T) {
		t.Parallel()

		s := StartGame(lobby(t, "Alice", "Bob"), testCard)
		s = SubmitTurn(s, Turn{Prompt: "A cat riding a bus"})
		s = RemovePlayer(s, "b")

		assert.Equal(t, StatusReplay, s.Status)
	})

	t.Run("Tombstones Sit Out Later Rounds", func(t *testing.T) {
		t.Parallel()

		s := StartGame(lobby(t, "Alice", "Bob", "Carol"), testCard)
		s = SubmitTurn(s, Turn{Prompt: "A cat riding a bus"})
		s = RemovePlayer(s, "a")
		s = SubmitTurn(s, Turn{Prompt: "cat bus"})
		s = SubmitTurn(s, Turn{Prompt: "feline transit"})
		s = StartNextRound(s, testCard)

		current, ok := s.CurrentPlayer()
		require.True(t, ok)
		assert.Equal(t, "Bob", current.Name)
	})
}

func TestEveryoneLeavesBeforeTheFirstTurn(t *testing.T) {
	t.Parallel()

	s := StartGame(lobby(t, "Alice", "Bob"), testCard)
	s = RemovePlayer(s, "a")
	s = RemovePlayer(s, "b")

	require.Equal(t, StatusReplay, s.Status)
	assert.Empty(t, s.Turns)

	s = StartNextRound(s, testCard)
	assert.Equal(t, 2, s.CurrentRound)
	assert.Len(t, s.CompletedRounds, 1)
	assert.Nil(t, s.CompletedRounds[0].Score)
}

func TestStartGame(t *testing.T) {
	t.Parallel()

	alone := lobby(t, "Alice")
	assert.Equal(t, alone, StartGame(alone, testCard), "needs two players")

	s := StartGame(lobby(t, "Alice", "Bob"), testCard)
	assert.Equal(t, s, StartGame(s, testCard), "already playing")
	assert.Equal(t, s, UpdateSettings(s, DefaultSettings()), "settings are locked once playing")
}

func TestAwardScore(t *testing.T) {
	t.Parallel()

	s := StartGame(lobby(t, "Alice", "Bob"), testCard)
	res := ScoreResult{
		Score: 40,
		TeamVsAI: &TeamVsAI{
			PointsAwarded: Points{Team: 1, AI: 1},
		},
	}

	assert.Equal(t, s, AwardScore(s, res), "only replay can be scored")

	s = SubmitTurn(s, Turn{Prompt: "A cat riding a bus"})
	s = SubmitTurn(s, Turn{Prompt: "cat bus"})

	once := AwardScore(s, res)
	assert.Equal(t, 1, once.TeamPoints)
	assert.Equal(t, 1, once.AIPoints)

	twice := AwardScore(once, res)
	assert.Equal(t, once, twice)
}

func TestResetGame(t *testing.T) {
	t.Parallel()

	s := StartGame(lobby(t, "Alice", "Bob"), testCard)
	s = ResetGame(s, "fresh123")

	want := NewGame("fresh123", DefaultSettings())
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("ResetGame() mismatch (-want +got):\n%s", diff)
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	s := NewGame("game1234", DefaultSettings())
	assert.Equal(t, s, Apply(s, nil))

	events := []Event{
		AddPlayerEvent{Player: NewPlayer("a", "Alice")},
		AddPlayerEvent{Player: NewPlayer("b", "Bob")},
		UpdateSettingsEvent{Settings: DefaultSettings().WithMode("relaxed")},
		StartGameEvent{Card: testCard},
		SubmitTurnEvent{Turn: Turn{Prompt: "A cat riding a bus"}},
		SubmitTurnEvent{Turn: Turn{Prompt: "a cat on a bus"}},
		AwardScoreEvent{Result: ScoreResult{Score: 70}},
	}
	for _, e := range events {
		s = Apply(s, e)
	}

	assert.Equal(t, StatusReplay, s.Status)
	assert.Equal(t, "relaxed", s.Settings.GameMode)
	require.NotNil(t, s.RoundScore)
	assert.Equal(t, 70, s.RoundScore.Score)

	s = Apply(s, RemovePlayerEvent{PlayerID: "b"})
	s = Apply(s, ResetGameEvent{ID: "game1234"})
	assert.Equal(t, StatusSetup, s.Status)
	assert.Empty(t, s.Players)
}
