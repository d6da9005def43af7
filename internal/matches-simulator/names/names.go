// Package names gera os nomes de times usados para popular o pool de partidas.
package names

import (
	"math/rand"
)

var adjectives = []string{
	"Mighty", "Swift", "Brave", "Bold", "Wild", "Dark", "Bright", "Strong", "Fast", "Sharp",
	"Fierce", "Noble", "Royal", "Elite", "Prime", "Ultra", "Mega", "Super", "Alpha", "Beta",
	"Cosmic", "Stellar", "Solar", "Lunar", "Storm", "Thunder", "Lightning", "Fire", "Ice", "Steel",
	"Iron", "Golden", "Silver", "Crystal", "Diamond", "Crimson", "Scarlet", "Azure", "Emerald", "Jade",
	"Shadow", "Ghost", "Phantom", "Spirit", "Mystic", "Magic", "Ancient", "Eternal", "Infinite", "Supreme",
	"Legendary", "Epic", "Heroic", "Valiant", "Fearless", "Unstoppable", "Invincible", "Unbeatable", "Triumphant", "Victorious",
}

var nouns = []string{
	"Eagles", "Hawks", "Lions", "Tigers", "Bears", "Wolves", "Sharks", "Panthers", "Falcons", "Ravens",
	"Dragons", "Phoenix", "Griffins", "Titans", "Giants", "Demons", "Angels", "Knights", "Warriors", "Gladiators",
	"Spartans", "Vikings", "Samurai", "Ninjas", "Crusaders", "Guardians", "Defenders", "Protectors", "Hunters", "Rangers",
	"Scouts", "Pilots", "Raiders", "Bandits", "Pirates", "Corsairs", "Reapers", "Slayers", "Destroyers", "Conquerors",
	"Cobras", "Vipers", "Serpents", "Scorpions", "Spiders", "Hornets", "Wasps", "Bees", "Ants", "Beetles",
	"Rhinos", "Elephants", "Buffalos", "Stallions", "Mustangs", "Broncos", "Bulls", "Rams", "Stags", "Bucks",
}

// postfixes agrupados por tema; a ordem define a ordem de geração
var postfixes = [][]string{
	{"Force", "Squad", "Team", "Crew", "Unit", "Guild", "Club", "Society"},
	{"Legion", "Division", "Brigade", "Battalion", "Regiment", "Corps", "Guard", "Army"},
	{"Elite", "Prime", "Pro", "Max", "Plus", "Ultra", "Super", "Mega"},
	{"Alliance", "Union", "Coalition", "Federation", "League", "Order", "Brotherhood", "Syndicate"},
	{"York", "Angeles", "Chicago", "Houston", "Phoenix", "Dallas", "Miami", "Atlanta"},
	{"London", "Paris", "Berlin", "Rome", "Madrid", "Vienna", "Prague", "Warsaw"},
	{"Tokyo", "Seoul", "Bangkok", "Singapore", "Mumbai", "Shanghai", "Beijing", "Osaka"},
	{"North", "South", "East", "West", "Central", "United", "Global", "International"},
}

// Generate devolve até count nomes distintos, embaralhados.
// Primeiro "Noun Postfix", depois "Adjective Noun". Se count passar do espaço
// combinatório, devolve todos os nomes únicos possíveis.
func Generate(count int, rng *rand.Rand) []string {
	if count <= 0 {
		return []string{}
	}

	hint := count
	if space := spaceSize(); hint > space {
		hint = space
	}
	seen := make(map[string]struct{}, hint)
	out := make([]string, 0, hint)
	add := func(name string) bool {
		if _, ok := seen[name]; !ok {
			seen[name] = struct{}{}
			out = append(out, name)
		}
		return len(out) >= count
	}

	done := false
	for _, noun := range nouns {
		for _, group := range postfixes {
			for _, p := range group {
				if done = add(noun + " " + p); done {
					break
				}
			}
			if done {
				break
			}
		}
		if done {
			break
		}
	}

	if !done {
	outer:
		for _, adj := range adjectives {
			for _, noun := range nouns {
				if add(adj + " " + noun) {
					break outer
				}
			}
		}
	}

	// Fisher-Yates
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// spaceSize é o limite superior de combinações (antes da deduplicação)
func spaceSize() int {
	n := len(adjectives) * len(nouns)
	for _, g := range postfixes {
		n += len(nouns) * len(g)
	}
	return n
}
