package entity

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// Knowledge is the club reference document split into sections. A section
// is a run of paragraphs kept together so related facts stay adjacent.
type Knowledge struct {
	Sections []string
	LoadedAt time.Time
}

// NewKnowledge splits raw text on blank lines and groups the paragraphs
// into sections of at most perSection paragraphs.
func NewKnowledge(raw string, perSection int, at time.Time) Knowledge {
	if perSection < 1 {
		perSection = 1
	}

	paragraphs := lo.FilterMap(strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n\n"), func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})

	sections := lo.Map(lo.Chunk(paragraphs, perSection), func(group []string, _ int) string {
		return strings.Join(group, "\n\n")
	})

	return Knowledge{Sections: sections, LoadedAt: at}
}

func (k Knowledge) Len() int {
	return lo.SumBy(k.Sections, func(s string) int { return len(s) })
}

func (k Knowledge) String() string {
	return strings.Join(k.Sections, "\n\n")
}
