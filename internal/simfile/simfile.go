// Package simfile models the subset of the StepMania SSC format that the
// packaging pipeline reads and rewrites: header metadata plus per-chart note
// data. Tags it does not interpret are preserved verbatim and in order.
package simfile

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vk/sscpack/internal/notedata"
)

// Chart is one playable difficulty's worth of notes and metadata.
type Chart struct {
	GameType    string // STEPSTYPE, e.g. "dance-single"
	Description string
	Difficulty  string
	Meter       int
	Credit      string
	ChartName   string

	Notes notedata.NoteData

	// Extra holds chart tags this package does not interpret, in order.
	Extra []Item
}

// Simfile is the in-memory form of one .ssc file.
type Simfile struct {
	Version       string
	Title         string
	Subtitle      string
	Artist        string
	TitleTranslit string
	Music         string
	Offset        string // decimal seconds, kept textual to round-trip exactly

	Charts []*Chart

	// Extra holds header tags this package does not interpret, in order.
	Extra []Item
}

// DefaultVersion is written for simfiles that never declared one.
const DefaultVersion = "0.83"

// DisplayTitle prefers the transliterated title, which avoids surprising
// characters in log output.
func (sf *Simfile) DisplayTitle() string {
	if sf.TitleTranslit != "" {
		return sf.TitleTranslit
	}
	return sf.Title
}

// noteDataTag separates charts in the SSC format. Its value must be empty.
const noteDataTag = "NOTEDATA"

// Parse decodes an SSC stream.
func Parse(r io.Reader) (*Simfile, error) {
	items, err := ParseMSD(r)
	if err != nil {
		return nil, err
	}

	sf := &Simfile{}
	var chart *Chart

	flushChart := func() {
		if chart != nil {
			sf.Charts = append(sf.Charts, chart)
		}
	}

	for _, it := range items {
		if it.Tag == noteDataTag {
			if strings.TrimSpace(it.Value) != "" {
				return nil, fmt.Errorf("unexpected content in %s tag", noteDataTag)
			}
			flushChart()
			chart = &Chart{}
			continue
		}
		if chart == nil {
			if err := sf.applyHeaderItem(it); err != nil {
				return nil, err
			}
		} else {
			if err := chart.applyItem(it); err != nil {
				return nil, err
			}
		}
	}
	flushChart()
	return sf, nil
}

func (sf *Simfile) applyHeaderItem(it Item) error {
	switch it.Tag {
	case "VERSION":
		sf.Version = strings.TrimSpace(it.Value)
	case "TITLE":
		sf.Title = it.Value
	case "SUBTITLE":
		sf.Subtitle = it.Value
	case "ARTIST":
		sf.Artist = it.Value
	case "TITLETRANSLIT":
		sf.TitleTranslit = it.Value
	case "MUSIC":
		sf.Music = it.Value
	case "OFFSET":
		sf.Offset = strings.TrimSpace(it.Value)
	default:
		sf.Extra = append(sf.Extra, it)
	}
	return nil
}

func (c *Chart) applyItem(it Item) error {
	switch it.Tag {
	case "STEPSTYPE":
		c.GameType = strings.TrimSpace(it.Value)
	case "DESCRIPTION":
		c.Description = strings.TrimSpace(it.Value)
	case "DIFFICULTY":
		c.Difficulty = strings.TrimSpace(it.Value)
	case "METER":
		meter, err := strconv.Atoi(strings.TrimSpace(it.Value))
		if err != nil {
			return fmt.Errorf("chart METER %q is not an integer", strings.TrimSpace(it.Value))
		}
		c.Meter = meter
	case "CREDIT":
		c.Credit = strings.TrimSpace(it.Value)
	case "CHARTNAME":
		c.ChartName = strings.TrimSpace(it.Value)
	case "NOTES":
		nd, err := notedata.FromSM(it.Value)
		if err != nil {
			return err
		}
		c.Notes = nd
	default:
		c.Extra = append(c.Extra, it)
	}
	return nil
}

func headerItem(tag, value string) Item { return Item{Tag: tag, Value: value} }

// Write encodes the simfile as SSC text.
func (sf *Simfile) Write(w io.Writer) error {
	version := sf.Version
	if version == "" {
		version = DefaultVersion
	}
	items := []Item{headerItem("VERSION", version)}
	appendNonEmpty := func(tag, value string) {
		if value != "" {
			items = append(items, headerItem(tag, value))
		}
	}
	appendNonEmpty("TITLE", sf.Title)
	appendNonEmpty("SUBTITLE", sf.Subtitle)
	appendNonEmpty("ARTIST", sf.Artist)
	appendNonEmpty("TITLETRANSLIT", sf.TitleTranslit)
	appendNonEmpty("MUSIC", sf.Music)
	appendNonEmpty("OFFSET", sf.Offset)
	items = append(items, sf.Extra...)

	if err := WriteMSD(w, items); err != nil {
		return err
	}

	for _, c := range sf.Charts {
		if _, err := io.WriteString(w, "\n// "+strings.Repeat("-", 30)+"\n"); err != nil {
			return err
		}
		chartItems, err := c.items()
		if err != nil {
			return err
		}
		if err := WriteMSD(w, chartItems); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chart) items() ([]Item, error) {
	items := []Item{{Tag: noteDataTag}}
	appendNonEmpty := func(tag, value string) {
		if value != "" {
			items = append(items, Item{Tag: tag, Value: value})
		}
	}
	appendNonEmpty("STEPSTYPE", c.GameType)
	appendNonEmpty("DESCRIPTION", c.Description)
	appendNonEmpty("CHARTNAME", c.ChartName)
	appendNonEmpty("DIFFICULTY", c.Difficulty)
	if c.Meter != 0 {
		items = append(items, Item{Tag: "METER", Value: strconv.Itoa(c.Meter)})
	}
	appendNonEmpty("CREDIT", c.Credit)
	items = append(items, c.Extra...)

	notes, err := c.Notes.ToSM()
	if err != nil {
		return nil, err
	}
	items = append(items, Item{Tag: "NOTES", Value: "\n" + notes + "\n"})
	return items, nil
}
