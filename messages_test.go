/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/promptphone/games/telephone"
)

// midRound has Alice's mad lib, Bob's sabotaged guess, and Carol to play.
func midRound(transparent bool) telephone.GameState {
	settings := telephone.DefaultSettings()
	settings.SabotageEnabled = true
	settings.TransparentSabotage = transparent

	s := telephone.NewGame("game1234", settings)
	s = telephone.AddPlayer(s, telephone.NewPlayer("alice", "Alice"))
	s = telephone.AddPlayer(s, telephone.NewPlayer("bob", "Bob"))
	s = telephone.AddPlayer(s, telephone.NewPlayer("carol", "Carol"))
	s = telephone.StartGame(s, telephone.Card{ID: "card-1", Template: "A ___ on a ___", Blanks: 2})
	s = telephone.SubmitTurn(s, telephone.Turn{Prompt: "A cat on a mat", ImageURL: "https://img/1"})
	s = telephone.SubmitTurn(s, telephone.Turn{
		Prompt:          "elderly cat mat",
		OriginalPrompt:  "cat mat",
		CorruptedPrompt: "elderly cat mat",
		Strategy:        telephone.GapFiller,
		ImageURL:        "https://img/2",
	})

	return s
}

func TestSnapshotFor(t *testing.T) {
	t.Parallel()

	t.Run("Describing Player Sees Only The Last Image", func(t *testing.T) {
		t.Parallel()

		got := snapshotFor(midRound(true), "carol")

		require.Len(t, got.Turns, 2)
		assert.Empty(t, got.Turns[0].Prompt)
		assert.Empty(t, got.Turns[0].ImageURL)
		assert.Empty(t, got.Turns[1].Prompt)
		assert.Empty(t, got.Turns[1].OriginalPrompt)
		assert.Empty(t, got.Turns[1].CorruptedPrompt)
		assert.Empty(t, got.Turns[1].Strategy)
		assert.Equal(t, "https://img/2", got.Turns[1].ImageURL)
		assert.Nil(t, got.Card)
		assert.Empty(t, got.ForbiddenWords)
	})

	t.Run("Waiting Player Sees No Images", func(t *testing.T) {
		t.Parallel()

		got := snapshotFor(midRound(true), "alice")

		assert.Equal(t, "A cat on a mat", got.Turns[0].Prompt, "own turn stays visible")
		assert.Equal(t, "https://img/1", got.Turns[0].ImageURL)
		assert.Empty(t, got.Turns[1].ImageURL)
		assert.Empty(t, got.Turns[1].Prompt)
	})

	t.Run("Transparent Sabotage Shows The Rewrite", func(t *testing.T) {
		t.Parallel()

		got := snapshotFor(midRound(true), "bob")

		assert.Equal(t, "elderly cat mat", got.Turns[1].Prompt)
		assert.Equal(t, "cat mat", got.Turns[1].OriginalPrompt)
		assert.Equal(t, telephone.GapFiller, got.Turns[1].Strategy)
	})

	t.Run("Covert Sabotage Hides The Rewrite", func(t *testing.T) {
		t.Parallel()

		got := snapshotFor(midRound(false), "bob")

		assert.Equal(t, "cat mat", got.Turns[1].Prompt)
		assert.Empty(t, got.Turns[1].OriginalPrompt)
		assert.Empty(t, got.Turns[1].CorruptedPrompt)
		assert.Empty(t, got.Turns[1].Strategy)
	})

	t.Run("Card Goes To The First Player Only", func(t *testing.T) {
		t.Parallel()

		s := telephone.NewGame("game1234", telephone.DefaultSettings())
		s = telephone.AddPlayer(s, telephone.NewPlayer("alice", "Alice"))
		s = telephone.AddPlayer(s, telephone.NewPlayer("bob", "Bob"))
		s = telephone.StartGame(s, telephone.Card{ID: "card-1", Template: "A ___", Blanks: 1})

		require.NotNil(t, snapshotFor(s, "alice").Card)
		assert.Nil(t, snapshotFor(s, "bob").Card)
	})

	t.Run("Replay Is Shown In Full", func(t *testing.T) {
		t.Parallel()

		s := telephone.SubmitTurn(midRound(true), telephone.Turn{Prompt: "old cat", ImageURL: "https://img/3"})
		require.Equal(t, telephone.StatusReplay, s.Status)

		if diff := cmp.Diff(s, snapshotFor(s, "alice")); diff != "" {
			t.Errorf("replay snapshot was redacted (-want +got):\n%s", diff)
		}
	})

	t.Run("Source State Is Untouched", func(t *testing.T) {
		t.Parallel()

		s := midRound(true)
		_ = snapshotFor(s, "carol")

		assert.Equal(t, "elderly cat mat", s.Turns[1].Prompt)
		assert.Equal(t, []string{"a", "cat", "on", "a", "mat"}, s.ForbiddenWords)
	})
}

func TestSameState(t *testing.T) {
	t.Parallel()

	s := telephone.NewGame("game1234", telephone.DefaultSettings())
	s = telephone.AddPlayer(s, telephone.NewPlayer("alice", "Alice"))

	assert.True(t, sameState(s, telephone.AddPlayer(s, telephone.NewPlayer("alice2", "alice"))))
	assert.True(t, sameState(s, telephone.StartGame(s, telephone.Card{})))
	assert.False(t, sameState(s, telephone.AddPlayer(s, telephone.NewPlayer("bob", "Bob"))))
	assert.False(t, sameState(s, telephone.UpdateSettings(s, telephone.DefaultSettings().WithMode("blitz"))))
	assert.False(t, sameState(s, telephone.RemovePlayer(s, "alice")))
}
