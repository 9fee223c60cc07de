package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Dictionary identifies one of the predefined ArUco marker dictionaries.
// The numeric values match the OpenCV predefined dictionary codes, so a
// Dictionary can be passed straight to a detection backend.
type Dictionary int

// Predefined dictionaries.
const (
	Dict4x4_50 Dictionary = iota
	Dict4x4_100
	Dict4x4_250
	Dict4x4_1000
	Dict5x5_50
	Dict5x5_100
	Dict5x5_250
	Dict5x5_1000
	Dict6x6_50
	Dict6x6_100
	Dict6x6_250
	Dict6x6_1000
	Dict7x7_50
	Dict7x7_100
	Dict7x7_250
	Dict7x7_1000
	DictArucoOriginal
)

var dictNames = map[Dictionary]string{
	Dict4x4_50:        "DICT_4X4_50",
	Dict4x4_100:       "DICT_4X4_100",
	Dict4x4_250:       "DICT_4X4_250",
	Dict4x4_1000:      "DICT_4X4_1000",
	Dict5x5_50:        "DICT_5X5_50",
	Dict5x5_100:       "DICT_5X5_100",
	Dict5x5_250:       "DICT_5X5_250",
	Dict5x5_1000:      "DICT_5X5_1000",
	Dict6x6_50:        "DICT_6X6_50",
	Dict6x6_100:       "DICT_6X6_100",
	Dict6x6_250:       "DICT_6X6_250",
	Dict6x6_1000:      "DICT_6X6_1000",
	Dict7x7_50:        "DICT_7X7_50",
	Dict7x7_100:       "DICT_7X7_100",
	Dict7x7_250:       "DICT_7X7_250",
	Dict7x7_1000:      "DICT_7X7_1000",
	DictArucoOriginal: "DICT_ARUCO_ORIGINAL",
}

// Valid reports whether d is a known predefined dictionary.
func (d Dictionary) Valid() bool {
	_, ok := dictNames[d]
	return ok
}

// String returns the canonical OpenCV-style name.
func (d Dictionary) String() string {
	if name, ok := dictNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DICT_UNKNOWN(%d)", int(d))
}

// ParseDictionary accepts either a canonical name ("DICT_6X6_250") or
// the numeric code ("10") and returns the dictionary.
func ParseDictionary(s string) (Dictionary, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		d := Dictionary(n)
		if !d.Valid() {
			return 0, fmt.Errorf("board: dictionary code %d out of range: %w", n, ErrBadDictionary)
		}
		return d, nil
	}
	upper := strings.ToUpper(s)
	for d, name := range dictNames {
		if name == upper {
			return d, nil
		}
	}
	return 0, fmt.Errorf("board: dictionary %q: %w", s, ErrBadDictionary)
}
