package richtext

// Selection is a range of rune offsets into a region's text. Start may be
// greater than End for backward selections; Normalize orders them.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Caret returns a collapsed selection at offset
func Caret(offset int) Selection {
	return Selection{Start: offset, End: offset}
}

// Collapsed reports whether the selection is empty
func (s Selection) Collapsed() bool {
	return s.Start == s.End
}

// Normalize returns the selection with Start <= End
func (s Selection) Normalize() Selection {
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	return s
}

// Len returns the number of selected runes
func (s Selection) Len() int {
	n := s.Normalize()
	return n.End - n.Start
}

// Contains reports whether the normalised selection covers [start, end)
func (s Selection) Contains(start, end int) bool {
	n := s.Normalize()
	return start >= n.Start && end <= n.End
}

// Clamp limits both ends of the selection to [0, length]
func (s Selection) Clamp(length int) Selection {
	s.Start = min(max(s.Start, 0), length)
	s.End = min(max(s.End, 0), length)
	return s
}
