package simfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MSD is the `#TAG:VALUE;` record syntax shared by StepMania file formats.
// This lexer is stricter than StepMania's: records must start at the
// beginning of a line, and backslash escapes are not supported (StepMania
// products disagree with each other about what they mean anyway).

const (
	msdBegin    = "#"
	msdEndTag   = ":"
	msdEndValue = ";"
	msdComment  = "//"
)

// Item is one immutable MSD record.
type Item struct {
	Tag   string
	Value string
}

func (it Item) String() string {
	return msdBegin + it.Tag + msdEndTag + it.Value + msdEndValue + "\n"
}

// validate rejects tags or values that would not survive a round trip.
func (it Item) validate() error {
	for _, part := range []string{it.Tag, it.Value} {
		if strings.Contains(part, msdEndValue) {
			return fmt.Errorf("msd: %q contains the end-value delimiter %q", part, msdEndValue)
		}
	}
	if strings.Contains(it.Tag, msdEndTag) {
		return fmt.Errorf("msd: tag %q contains the end-tag delimiter %q", it.Tag, msdEndTag)
	}
	return nil
}

// ParseMSD reads MSD records in order.
func ParseMSD(r io.Reader) ([]Item, error) {
	var items []Item
	var tag string
	var value strings.Builder
	inItem := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.Index(line, msdComment); i != -1 {
			line = line[:i]
		}

		if !inItem {
			if strings.TrimSpace(line) == "" {
				continue
			}
			if !strings.HasPrefix(line, msdBegin) {
				return nil, fmt.Errorf("msd: line %d: expected %q to start a record, got %q", lineNo, msdBegin, line)
			}
			line = line[len(msdBegin):]
			var ok bool
			tag, line, ok = strings.Cut(line, msdEndTag)
			if !ok {
				return nil, fmt.Errorf("msd: line %d: record %q has no %q after its tag", lineNo, tag, msdEndTag)
			}
			inItem = true
			value.Reset()
		}

		if body, rest, done := strings.Cut(line, msdEndValue); done {
			if strings.TrimSpace(rest) != "" {
				return nil, fmt.Errorf("msd: line %d: unexpected content %q after record end", lineNo, rest)
			}
			value.WriteString(body)
			items = append(items, Item{Tag: tag, Value: value.String()})
			inItem = false
		} else {
			value.WriteString(line)
			value.WriteString("\n")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("msd: %w", err)
	}
	if inItem {
		return nil, fmt.Errorf("msd: unexpected EOF inside record %q", tag)
	}
	return items, nil
}

// WriteMSD renders records in order.
func WriteMSD(w io.Writer, items []Item) error {
	for _, it := range items {
		if err := it.validate(); err != nil {
			return err
		}
		if _, err := io.WriteString(w, it.String()); err != nil {
			return err
		}
	}
	return nil
}
