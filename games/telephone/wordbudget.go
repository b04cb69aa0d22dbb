/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"math"
	"strconv"
	"strings"
)

// WordLimit is the number of words a guess may use. Unlimited means no clamp.
type WordLimit int

const Unlimited WordLimit = -1

func (l WordLimit) IsUnlimited() bool {
	return l < 0
}

// Allows reports whether a prompt of n words fits the budget.
func (l WordLimit) Allows(n int) bool {
	return l.IsUnlimited() || n <= int(l)
}

func (l WordLimit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}

	return strconv.Itoa(int(l))
}

func CountWords(text string) int {
	return len(strings.Fields(text))
}

// Limit derives the per-guess word budget from the seed prompt and game mode.
func Limit(seedPrompt, modeID string) WordLimit {
	mult := GetMode(modeID).WordLimitMultiplier
	if math.IsInf(mult, 1) {
		return Unlimited
	}

	return WordLimit(math.Ceil(float64(CountWords(seedPrompt)) * mult))
}
