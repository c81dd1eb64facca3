package depsolver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/piescript-lang/piescript/internal/depsolver"
)

type doc struct {
	filename string
	includes []string
}

func (d doc) DependencyFilename() string   { return d.filename }
func (d doc) DependencyIncludes() []string { return d.includes }

func TestSingleDocumentWithNoIncludesIsImmediatelyReady(t *testing.T) {
	s := depsolver.New()
	s.Solve(doc{filename: "main.luck"}, map[string]bool{})

	name, ok := s.NextNoDependencyFilename()
	require.True(t, ok)
	require.Equal(t, "main.luck", name)
}

func TestDocumentWithIncludeWaitsUntilIncludeLoads(t *testing.T) {
	s := depsolver.New()
	s.Solve(doc{filename: "main.luck", includes: []string{"util.luck"}}, map[string]bool{})

	_, ok := s.NextNoDependencyFilename()
	require.False(t, ok, "main.luck should not be ready before util.luck loads")

	unsolved, ok := s.UnsolvedFilename()
	require.True(t, ok)
	require.Equal(t, "util.luck", unsolved)

	s.Solve(doc{filename: "util.luck"}, map[string]bool{})
	name, ok := s.NextNoDependencyFilename()
	require.True(t, ok)
	require.Equal(t, "util.luck", name)

	s.SetLoaded("util.luck")
	name, ok = s.NextNoDependencyFilename()
	require.True(t, ok)
	require.Equal(t, "main.luck", name)

	s.SetLoaded("main.luck")
	require.True(t, s.IsEmpty())
}

func TestAlreadyLoadedIncludeIsSkipped(t *testing.T) {
	s := depsolver.New()
	s.Solve(doc{filename: "main.luck", includes: []string{"util.luck"}}, map[string]bool{"util.luck": true})

	name, ok := s.NextNoDependencyFilename()
	require.True(t, ok)
	require.Equal(t, "main.luck", name)
}

func TestCycleLeavesResidue(t *testing.T) {
	s := depsolver.New()
	s.Solve(doc{filename: "a.luck", includes: []string{"b.luck"}}, map[string]bool{})
	s.Solve(doc{filename: "b.luck", includes: []string{"a.luck"}}, map[string]bool{})

	_, ok := s.NextNoDependencyFilename()
	require.False(t, ok)

	cycle := s.PotentialCycleFilenames()
	require.ElementsMatch(t, []string{"a.luck", "b.luck"}, cycle)
}
