package utils

import (
	"math/rand"
	"strconv"
	"strings"

	"github.com/Pallinder/go-randomdata"
)

// NameGenerator hands out names for generated scenes. The sequence only
// depends on the seed, and names never repeat when compared case-insensitively,
// the way output file names are compared.
type NameGenerator struct {
	Prefix string

	r     *rand.Rand
	taken map[string]struct{}
}

func NewNameGenerator(prefix string, seed int64) *NameGenerator {
	return &NameGenerator{
		Prefix: prefix,
		r:      rand.New(rand.NewSource(seed)),
		taken:  make(map[string]struct{}),
	}
}

// Next returns a fresh name. After a few repeated draws a numeric suffix is
// appended, so Next always terminates.
func (g *NameGenerator) Next() string {
	randomdata.CustomRand(g.r)
	name := g.Prefix + randomdata.SillyName()
	for i := 1; ; i++ {
		key := strings.ToLower(name)
		if _, ok := g.taken[key]; !ok {
			g.taken[key] = struct{}{}
			return name
		}
		if i < 8 {
			name = g.Prefix + randomdata.SillyName()
		} else {
			name = g.Prefix + randomdata.SillyName() + "_" + strconv.Itoa(i)
		}
	}
}
