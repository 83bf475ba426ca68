package notedata

import (
	"fmt"
	"strings"
)

// SM text note format: measures of 4 beats separated by commas, each measure
// holding an equal number of note rows.

const (
	smBeatsPerMeasure = 4 // regardless of time signature data elsewhere
	smMeasureSep      = ","
)

// FromSM decodes SM/SSC textual note data. Rows with no notes are dropped.
func FromSM(data string) (NoteData, error) {
	var rows []Row
	for mi, measure := range strings.Split(data, smMeasureSep) {
		lines := strings.Fields(measure)
		for ri, line := range lines {
			if strings.Trim(line, "0") == "" {
				continue
			}
			beat, err := NewPosition(int64(ri), int64(len(lines)))
			if err != nil {
				return NoteData{}, err
			}
			pos := beat.Add(PositionFromInt(int64(mi))).MulInt(smBeatsPerMeasure)
			rows = append(rows, Row{Position: pos, Notes: line})
		}
	}
	nd, err := New(rows...)
	if err != nil {
		return NoteData{}, fmt.Errorf("sm note data: %w", err)
	}
	return nd, nil
}

func lcm64(a, b int64) int64 {
	return a / gcd(a, b) * b
}

// ToSM encodes note data as SM/SSC text. All positions must be non-negative.
func (nd NoteData) ToSM() (string, error) {
	if nd.Len() == 0 {
		return "", nil
	}
	emptyRow := strings.Repeat("0", nd.Width())

	// bucket rows by measure
	type measure struct {
		index int64
		rows  []Row
	}
	var measures []measure
	for _, r := range nd.rows {
		if r.Position.Sign() < 0 {
			return "", fmt.Errorf("cannot encode negative position %v", r.Position)
		}
		index := r.Position.Num() / (r.Position.Den() * smBeatsPerMeasure)
		if len(measures) == 0 || measures[len(measures)-1].index != index {
			measures = append(measures, measure{index: index})
		}
		m := &measures[len(measures)-1]
		m.rows = append(m.rows, r)
	}

	var texts []string
	for _, m := range measures {
		// pad skipped measures with empty data
		for int64(len(texts)) < m.index {
			texts = append(texts, strings.Join([]string{emptyRow, emptyRow, emptyRow, emptyRow}, "\n"))
		}

		// row resolution is the LCM of the in-measure beat denominators
		resolution := int64(1)
		for _, r := range m.rows {
			resolution = lcm64(resolution, r.Position.Den())
		}
		count := resolution * smBeatsPerMeasure
		lines := make([]string, count)
		for i := range lines {
			lines[i] = emptyRow
		}
		for _, r := range m.rows {
			offset := r.Position.Sub(PositionFromInt(m.index * smBeatsPerMeasure))
			// offset/4 * count is integral because count is a denominator multiple
			slot := offset.Num() * (count / (offset.Den() * smBeatsPerMeasure))
			lines[slot] = r.Notes
		}
		texts = append(texts, strings.Join(lines, "\n"))
	}

	return strings.Join(texts, "\n"+smMeasureSep+"\n"), nil
}
