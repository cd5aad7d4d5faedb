package domain

// BibleReading is one day's reading in the curriculum sequence.
type BibleReading struct {
	Position int
	Passage  string
}

// BibleProgress is a student's position in the reading sequence.
type BibleProgress struct {
	StudentID string
	Position  int
}
