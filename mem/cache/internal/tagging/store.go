package tagging

// State is the MSI coherence state of a line.
type State int

// A list of all coherence states.
const (
	Invalid State = iota
	Shared
	Modified
)

func (s State) String() string {
	switch s {
	case Shared:
		return "S"
	case Modified:
		return "M"
	default:
		return "I"
	}
}

// A Line of a cache is the information that is associated with a cache line.
type Line struct {
	Tag     uint64
	SetID   int
	WayID   int
	State   State
	Data    []byte
	IsValid bool
	IsDirty bool
}

// A Set is a list of lines where a certain piece memory can be stored at.
type Set struct {
	Lines []Line

	// LRUQueue lists way IDs from the least to the most recently used.
	LRUQueue []int
}

// Store is the set-associative storage of a cache.
type Store struct {
	geometry     Geometry
	victimFinder VictimFinder
	sets         []Set
	numModified  int
}

// NewStore creates an empty store.
func NewStore(geometry Geometry, victimFinder VictimFinder) *Store {
	s := &Store{
		geometry:     geometry,
		victimFinder: victimFinder,
	}

	s.Reset()

	return s
}

// Geometry returns how the store maps addresses.
func (s *Store) Geometry() Geometry {
	return s.geometry
}

// Lookup returns the way that holds a valid copy of the tag.
func (s *Store) Lookup(setIndex int, tag uint64) (int, bool) {
	for i, line := range s.sets[setIndex].Lines {
		if line.IsValid && line.Tag == tag {
			return i, true
		}
	}

	return 0, false
}

// LookupAddress decomposes the address and looks it up.
func (s *Store) LookupAddress(addr uint64) (*Line, bool) {
	tag, setIndex, _ := s.geometry.Decompose(addr)

	way, found := s.Lookup(setIndex, tag)
	if !found {
		return nil, false
	}

	return s.Line(setIndex, way), true
}

// ChooseVictim returns the way to replace in a set.
func (s *Store) ChooseVictim(setIndex int) int {
	return s.victimFinder.FindVictim(&s.sets[setIndex])
}

// Line returns the line at the given position.
func (s *Store) Line(setIndex, way int) *Line {
	return &s.sets[setIndex].Lines[way]
}

// LineAddress returns the line-aligned address currently held by a line.
func (s *Store) LineAddress(line *Line) uint64 {
	return s.geometry.Compose(line.Tag, line.SetID)
}

// Install overwrites a line with a new tag and marks it most recently used.
func (s *Store) Install(
	setIndex, way int,
	tag uint64,
	state State,
	data []byte,
) *Line {
	line := s.Line(setIndex, way)
	line.Tag = tag
	s.SetState(line, state)
	line.Data = make([]byte, s.geometry.LineSize)
	copy(line.Data, data)

	s.Visit(setIndex, way)

	return line
}

// SetState changes the coherence state of a line, keeping the valid and dirty
// flags consistent with it.
func (s *Store) SetState(line *Line, state State) {
	if line.State == Modified {
		s.numModified--
	}

	if state == Modified {
		s.numModified++
	}

	line.State = state
	line.IsValid = state != Invalid
	line.IsDirty = state == Modified
}

// NumModified returns the number of lines in the Modified state.
func (s *Store) NumModified() int {
	return s.numModified
}

// Visit moves the line to the end of the LRU queue.
func (s *Store) Visit(setIndex, way int) {
	set := &s.sets[setIndex]
	queue := set.LRUQueue[:0]

	for _, w := range set.LRUQueue {
		if w != way {
			queue = append(queue, w)
		}
	}

	set.LRUQueue = append(queue, way)
}

// Reset marks all the lines invalid.
func (s *Store) Reset() {
	s.sets = make([]Set, s.geometry.NumSets)
	s.numModified = 0

	for i := range s.sets {
		set := &s.sets[i]
		for j := 0; j < s.geometry.Associativity; j++ {
			set.Lines = append(set.Lines, Line{SetID: i, WayID: j})
			set.LRUQueue = append(set.LRUQueue, j)
		}
	}
}
