package soundcard

import (
	"fmt"
	"regexp"
)

// 88-key piano range, A0 to C8
const (
	lowestPianoMIDI  = 21
	highestPianoMIDI = 108
)

var pitchPattern = regexp.MustCompile(`^([A-G])(#|b)?([0-8])$`)

var noteOffsets = map[string]int{
	"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11,
}

// PitchToMIDI converts a pitch name such as "C4", "F#3" or "Bb2" to its MIDI
// number and rejects anything a standard piano cannot play
func PitchToMIDI(note string) (int, error) {
	m := pitchPattern.FindStringSubmatch(note)
	if m == nil {
		return 0, fmt.Errorf("%q is not a pitch name", note)
	}

	semitone := noteOffsets[m[1]]
	switch m[2] {
	case "#":
		semitone++
	case "b":
		semitone--
	}
	octave := int(m[3][0] - '0')

	// C-1 = 0, C4 = 60
	midi := (octave+1)*12 + semitone
	if midi < lowestPianoMIDI || midi > highestPianoMIDI {
		return 0, fmt.Errorf("%q is outside the piano range A0-C8", note)
	}
	return midi, nil
}
