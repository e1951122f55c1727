package hokm

import (
	"encoding/json"
	"fmt"
)

// Score is the in-memory normalized shape for a per-team counter pair:
// index 0 is team 0's count, index 1 is team 1's count. Decoding tolerates
// the representational drift the store boundary must paper over — the
// same counter may arrive as a JSON array, an int-keyed mapping, or a
// string-keyed mapping — so that every other line of this package only
// ever sees a plain [2]int. Encoding always emits the array form.
type Score [2]int

func (s Score) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int(s))
}

func (s *Score) UnmarshalJSON(data []byte) error {
	var arr [2]int
	if err := json.Unmarshal(data, &arr); err == nil {
		*s = Score(arr)
		return nil
	}

	var m map[string]int
	if err := json.Unmarshal(data, &m); err == nil {
		*s = Score{m["0"], m["1"]}
		return nil
	}

	return fmt.Errorf("hokm: unrecognized team-counter shape: %s", data)
}
