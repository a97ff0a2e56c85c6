// Package sentence generates random challenge sentences from templates.
package sentence

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// Complexity selects the template pool.
type Complexity string

const (
	Simple  Complexity = "simple"
	Medium  Complexity = "medium"
	Complex Complexity = "complex"
)

var simpleTemplates = []string{
	"The {color} {object} is {location}",
	"My favorite {category} is {item}",
	"Today is a {adjective} {time_period}",
	"I like to {activity} on {day}",
	"The number {number} is {adjective}",
	"My {object} is {color}",
	"I can see a {color} {object}",
	"The weather is {adjective} today",
	"I enjoy {activity} very much",
	"This is my {adjective} {object}",
}

var mediumTemplates = []string{
	"I would like to {activity} at the {location} tomorrow",
	"The {adjective} {object} belongs to my {relation}",
	"Every {day} I {activity} with my {relation}",
	"My {relation} has a {color} {object}",
	"The {number} {color} {object}s are in the {location}",
	"I prefer {activity} over {activity} on weekends",
}

var complexTemplates = []string{
	"On {day} I went to the {location} and saw a {color} {object}",
	"My {relation} told me that {activity} is better than {activity}",
	"I believe the {adjective} {object} should be placed in the {location}",
	"The {number} {color} {object}s that I saw were absolutely {adjective}",
}

var wordBanks = map[string][]string{
	"color":       {"red", "blue", "green", "yellow", "black", "white", "purple", "orange", "pink", "brown"},
	"object":      {"car", "book", "phone", "table", "chair", "lamp", "computer", "bag", "pen", "cup"},
	"location":    {"outside", "inside", "upstairs", "downstairs", "nearby", "here", "there", "home", "office", "garden"},
	"category":    {"color", "number", "food", "animal", "season", "day", "month"},
	"item":        {"seven", "blue", "pizza", "cat", "summer", "Friday", "January"},
	"adjective":   {"beautiful", "wonderful", "amazing", "terrible", "great", "small", "large", "bright", "dark", "quiet"},
	"time_period": {"day", "morning", "evening", "afternoon", "night", "week", "month", "year"},
	"activity":    {"read", "write", "walk", "run", "swim", "cook", "sleep", "work", "play", "study"},
	"day":         {"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	"number":      {"one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"},
	"relation":    {"friend", "family", "colleague", "neighbor", "brother", "sister", "parent"},
}

// recentWindow bounds the set of sentences checked for repeats. Uniqueness of
// recently issued sentences is preferred to reduce predictability, not
// required for correctness.
const recentWindow = 32

// Generator produces random sentences, avoiding recent repeats best-effort.
// Safe for concurrent use.
type Generator struct {
	mu        sync.Mutex
	rng       *rand.Rand
	templates []string
	recent    []string
}

// ParseComplexity maps a config string to a Complexity, defaulting to Medium.
func ParseComplexity(s string) Complexity {
	switch Complexity(strings.ToLower(s)) {
	case Simple:
		return Simple
	case Complex:
		return Complex
	default:
		return Medium
	}
}

// New constructs a Generator for the given complexity. An unknown complexity
// falls back to Simple.
func New(c Complexity) *Generator {
	return NewWithRand(c, rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

// NewWithRand constructs a Generator with an explicit randomness source,
// primarily for deterministic tests.
func NewWithRand(c Complexity, rng *rand.Rand) *Generator {
	var tpl []string
	switch c {
	case Medium:
		tpl = mediumTemplates
	case Complex:
		tpl = complexTemplates
	default:
		tpl = simpleTemplates
	}
	return &Generator{rng: rng, templates: tpl}
}

// Generate returns a random sentence with every placeholder filled.
func (g *Generator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	// A few redraws to avoid repeating a recently issued sentence.
	var s string
	for range 5 {
		s = g.fill(g.templates[g.rng.IntN(len(g.templates))])
		if !g.seen(s) {
			break
		}
	}

	g.recent = append(g.recent, s)
	if len(g.recent) > recentWindow {
		g.recent = g.recent[1:]
	}
	return s
}

func (g *Generator) fill(template string) string {
	s := template
	for name, words := range wordBanks {
		ph := "{" + name + "}"
		for strings.Contains(s, ph) {
			s = strings.Replace(s, ph, words[g.rng.IntN(len(words))], 1)
		}
	}
	return s
}

func (g *Generator) seen(s string) bool {
	for _, r := range g.recent {
		if r == s {
			return true
		}
	}
	return false
}
