// Package players generates the opaque player identifiers handed out on
// first join and reused across reconnects. Identity is deliberately not
// tied to a connection or a display name, so that a Player record can
// outlive any particular socket.
package players

import (
	"crypto/rand"
	"fmt"
	"time"
)

// IDGenerator produces opaque player identifiers.
type IDGenerator interface {
	GenerateID() string
}

// DeterministicIDGenerator hands out predictable, ordered IDs. Useful in
// tests where a fixed join order must map to fixed identifiers.
type DeterministicIDGenerator struct {
	counter int
}

func NewDeterministicIDGenerator() *DeterministicIDGenerator {
	return &DeterministicIDGenerator{}
}

func (g *DeterministicIDGenerator) GenerateID() string {
	g.counter++
	return fmt.Sprintf("player-%d", g.counter)
}

// WhimsicalIDGenerator produces memorable, hard-to-collide identifiers of
// the form {adjective}-{color}-{animal}-{4char}. The words carry no
// meaning; they exist purely so that log lines and admin views have
// something easier to scan than a raw UUID.
type WhimsicalIDGenerator struct{}

var (
	adjectives = []string{
		"bouncy", "giggly", "sparkly", "fuzzy", "wiggly",
		"snuggly", "dreamy", "bubbly", "twinkly", "jolly",
		"quirky", "peppy", "zesty", "frisky", "silly",
	}

	colors = []string{
		"lavender", "periwinkle", "coral", "mint", "peach",
		"turquoise", "magenta", "cerulean", "lilac", "salmon",
		"chartreuse", "crimson", "cobalt", "amber", "jade",
	}

	animals = []string{
		"falcon", "otter", "heron", "lynx", "badger",
		"mantis", "sparrow", "jackal", "tern", "marten",
		"osprey", "civet", "stoat", "kestrel", "vole",
	}
)

func (g *WhimsicalIDGenerator) GenerateID() string {
	buf := make([]byte, 7)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("player-%d", time.Now().UnixNano()%1_000_000)
	}

	adjective := adjectives[int(buf[0])%len(adjectives)]
	color := colors[int(buf[1])%len(colors)]
	animal := animals[int(buf[2])%len(animals)]

	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	slug := make([]byte, 4)
	for i := range slug {
		slug[i] = charset[buf[3+i]%byte(len(charset))]
	}

	return fmt.Sprintf("%s-%s-%s-%s", adjective, color, animal, string(slug))
}
