// Package testhelpers holds golden-file helpers shared by formatter tests.
package testhelpers

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// DotGoldie compares output against testdata/<name>.gv.
func DotGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".gv"),
		goldie.WithDiffEngine(goldie.ColoredDiff))
}

// MermaidGoldie compares output against testdata/<name>.mmd.
func MermaidGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".mmd"),
		goldie.WithDiffEngine(goldie.ColoredDiff))
}

// JSONGoldie compares output against testdata/<name>.json.
func JSONGoldie(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".json"),
		goldie.WithDiffEngine(goldie.ColoredDiff))
}
