// Package depsolver tracks include dependencies across a set of source
// files being compiled together and reports the order in which they
// become safe to compile (all of their includes already loaded).
//
// The field names below (dependencies, references, unsolved) mirror the
// original Rust dependency solver directly, kept for traceability against
// that algorithm rather than renamed to a more "Go" vocabulary.
package depsolver

// Solver accumulates Documents and reports which remaining filename has
// no unloaded dependencies left, one at a time, until every file has been
// marked loaded (or a cycle leaves some residue that never reaches zero).
type Solver struct {
	// dependencies maps a pending filename to the number of its includes
	// that are not yet loaded.
	dependencies map[string]int
	// references maps a not-yet-loaded filename to the list of filenames
	// that depend on it, so SetLoaded can decrement all of them at once.
	references map[string][]string
	// unsolved holds filenames that were named by an include but have not
	// themselves been added via Solve yet.
	unsolved map[string]struct{}
}

// New returns an empty Solver.
func New() *Solver {
	return &Solver{
		dependencies: make(map[string]int),
		references:   make(map[string][]string),
		unsolved:     make(map[string]struct{}),
	}
}

// IsEmpty reports whether every added document has been marked loaded.
func (s *Solver) IsEmpty() bool {
	return len(s.dependencies) == 0
}

// PotentialCycleFilenames returns every filename still pending once no
// zero-dependency filename remains — the residue reported as a single
// "dependency cycle" compile error naming every file caught in it.
func (s *Solver) PotentialCycleFilenames() []string {
	list := make([]string, 0, len(s.dependencies))
	for filename := range s.dependencies {
		list = append(list, filename)
	}
	return list
}

// UnsolvedFilename returns a filename that was named by an include but
// has not been added via Solve, or "", false if none remain.
func (s *Solver) UnsolvedFilename() (string, bool) {
	for filename := range s.unsolved {
		return filename, true
	}
	return "", false
}

// NextNoDependencyFilename returns a pending filename with zero
// remaining unloaded dependencies, or "", false if none are ready yet.
func (s *Solver) NextNoDependencyFilename() (string, bool) {
	for filename, count := range s.dependencies {
		if count == 0 {
			return filename, true
		}
	}
	return "", false
}

// SetLoaded marks filename as compiled, decrementing the dependency
// count of every document that named it as an include.
func (s *Solver) SetLoaded(filename string) {
	delete(s.dependencies, filename)

	sources, ok := s.references[filename]
	if !ok {
		return
	}
	delete(s.references, filename)
	for _, source := range sources {
		s.decreaseDependency(source)
	}
}

// Document is the minimal view of a parsed file the solver needs: its
// own filename and the filenames it includes.
type Document interface {
	DependencyFilename() string
	DependencyIncludes() []string
}

// Solve registers document's includes. Already-loaded documents (named
// in loaded) and documents already tracked are skipped; everything else
// becomes a pending entry whose dependency count is the number of its
// not-yet-loaded includes.
func (s *Solver) Solve(document Document, loaded map[string]bool) {
	filename := document.DependencyFilename()
	if loaded[filename] {
		return
	}
	if _, tracked := s.dependencies[filename]; tracked {
		return
	}

	s.addDependencies(document, loaded)

	delete(s.unsolved, filename)
}

func (s *Solver) addReference(source, target string) {
	s.references[target] = append(s.references[target], source)
}

func (s *Solver) increaseDependency(source string) {
	s.dependencies[source]++
}

func (s *Solver) decreaseDependency(source string) {
	if count, ok := s.dependencies[source]; ok {
		s.dependencies[source] = count - 1
	}
}

func (s *Solver) addDependencies(document Document, loaded map[string]bool) {
	filename := document.DependencyFilename()
	s.dependencies[filename] = 0

	for _, dependencyFilename := range document.DependencyIncludes() {
		if loaded[dependencyFilename] {
			continue
		}

		s.increaseDependency(filename)
		s.addReference(filename, dependencyFilename)

		if _, tracked := s.dependencies[dependencyFilename]; !tracked {
			s.unsolved[dependencyFilename] = struct{}{}
		}
	}
}
