/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package telephone

import (
	"strconv"
	"strings"
)

// Blank marks a slot in a card template for the first player to fill.
const Blank = "___"

type Card struct {
	ID       string `json:"id"`
	Template string `json:"template"`
	Blanks   int    `json:"blanks"`
}

// Fill substitutes words into the template's blanks in order. Blanks without
// a matching word are left in place.
func (c Card) Fill(words []string) string {
	out := c.Template
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" || !strings.Contains(out, Blank) {
			continue
		}
		out = strings.Replace(out, Blank, w, 1)
	}

	return out
}

var templates = []string{
	"A ___ creature wearing a ___ made of ___, standing triumphantly on a ___ while holding a glowing ___.",
	"A hyper-dramatic portrait of a ___ riding a gigantic ___ through a storm of floating ___.",
	"A bewildered ___ trying to negotiate with a towering ___ constructed entirely from ___.",
	"An elegant ___ dancing with a ___ in a ballroom filled with ___.",
	"A tiny ___ piloting a massive ___ through a sea of ___.",
	"A ___ wizard summoning a ___ made entirely of ___ while standing in a ___.",
	"An anxious ___ presenting a trophy to a confused ___ in front of an audience of ___.",
	"A majestic ___ wearing a cape made of ___ while surfing on a wave of ___.",
	"A ___ chef cooking a ___ using a kitchen utensil shaped like a ___.",
	"A determined ___ climbing a mountain of ___ to reach a shrine dedicated to ___.",
	"A cosmic ___ playing a musical instrument made from ___ surrounded by orbiting ___.",
	"A sophisticated ___ giving a lecture about ___ to a classroom full of ___.",
	"A mystical ___ emerging from a portal made of ___ carrying an ancient ___.",
	"A fashionable ___ modeling an outfit made entirely of ___ on a runway surrounded by ___.",
	"A heroic ___ defending a castle of ___ from an invasion of ___.",
	"A ___ scientist conducting an experiment with a ___ that accidentally creates a ___.",
	"A legendary ___ sitting on a throne made of ___ while being served by ___.",
	"A ___ astronaut discovering a planet covered in ___ inhabited by friendly ___.",
	"A rebellious ___ spray-painting graffiti of a ___ on a wall made of ___.",
	"A sleepy ___ napping in a hammock woven from ___ under a tree of ___.",
	"A competitive ___ racing against a ___ through an obstacle course of ___.",
	"A wise ___ meditating on top of a ___ surrounded by floating ___.",
	"A paranoid ___ hiding from a ___ inside a fortress built from ___.",
	"A glamorous ___ posing for a photograph while holding a bouquet of ___.",
	"A mischievous ___ stealing a ___ from a museum guarded by ___.",
	"A ___ archaeologist unearthing a fossil of a ___ in a dig site filled with ___.",
	"A talented ___ performing a magic trick involving a ___ and a ___.",
	"A confused ___ reading a map made of ___ while lost in a forest of ___.",
	"A royal ___ hosting a banquet featuring dishes made entirely from ___.",
	"A cybernetic ___ hacking into a computer shaped like a ___ in a room full of ___.",
	"A terrified ___ running away from an army of ___.",
	"A philosophical ___ debating the meaning of ___ with a talking ___.",
	"A playful ___ juggling three ___ while riding a unicycle made of ___.",
	"A Victorian-era ___ sipping tea with a ___ in a garden of ___.",
	"A futuristic ___ teleporting through a wormhole of ___ into a dimension of ___.",
	"A grumpy ___ complaining to a customer service representative who is a ___.",
	"A mysterious ___ guarding a treasure chest filled with ___ in a cave of ___.",
	"A cheerful ___ planting a garden of ___ in soil made from ___.",
	"A robotic ___ serving breakfast to a ___ on a plate shaped like a ___.",
	"A dramatic ___ delivering a speech about ___ to an audience of ___.",
	"A nocturnal ___ howling at a moon made of ___ in a sky filled with ___.",
	"A wealthy ___ purchasing a ___ from a merchant selling ___.",
	"A stealthy ___ sneaking through a security system protected by ___.",
	"A romantic ___ proposing to a ___ with a ring made of ___.",
	"A muscular ___ lifting weights made of ___ in a gym full of ___.",
	"A time-traveling ___ visiting the year ___ to witness the rise of ___.",
	"An underwater ___ exploring a shipwreck filled with ___ and guarded by ___.",
	"A caffeinated ___ running a marathon through a city made of ___.",
	"A haunted ___ floating through a mansion decorated with ___.",
	"A miniature ___ battling a giant ___ using a weapon made from ___.",
	"A scholarly ___ translating an ancient text written in ___ about the history of ___.",
	"A festive ___ celebrating a holiday by decorating a ___ with ___.",
	"A cursed ___ transforming into a ___ under the light of a ___ moon.",
	"A business-minded ___ negotiating a deal about ___ with a CEO who is a ___.",
	"A musical ___ conducting an orchestra of ___ playing instruments made from ___.",
	"A dimension-hopping ___ escaping from a prison made of ___.",
	"A psychic ___ predicting the future using a crystal ball filled with ___.",
	"A battle-scarred ___ training a young ___ in the ancient art of ___.",
	"A photogenic ___ posing in front of a landmark made entirely of ___.",
	"A shape-shifting ___ disguising itself as a ___ to infiltrate a party of ___.",
	"A caffeinated ___ typing frantically on a keyboard made of ___ in an office of ___.",
	"A majestic ___ spreading its wings made of ___ while perched on a ___.",
	"A villainous ___ cackling maniacally while sitting in a lair decorated with ___.",
	"A zen ___ arranging a rock garden made from ___ in the pattern of a ___.",
	"A pixel-art ___ battling a boss ___ in a video game level made of ___.",
	"A sentient ___ writing poetry about ___ on paper made from ___.",
	"A rebellious ___ leading a revolution against an empire of ___.",
	"A mythical ___ blessing a village with gifts of ___ during a festival of ___.",
	"A ninja ___ performing a stealth mission involving a ___ in a temple of ___.",
	"A prehistoric ___ hunting a ___ using tools made from ___.",
}

// Cards is the read-only deck. Blank counts are derived from the templates.
var Cards = func() []Card {
	cards := make([]Card, 0, len(templates))
	for i, t := range templates {
		cards = append(cards, Card{
			ID:       "card-" + strconv.Itoa(i+1),
			Template: t,
			Blanks:   strings.Count(t, Blank),
		})
	}

	return cards
}()
