package usecase

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
	"github.com/shandysiswandi/sportsclub/internal/assistant/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
)

const (
	ReplyUnavailable = "AI assistant is currently unavailable. Please contact the club directly."
	ReplyFailure     = "I'm experiencing technical difficulties. Please try again later."
	ReplyNoAnswer    = "Sorry, I couldn't find an answer based on the provided sports club information."

	knowledgeUnavailable = "Sports Club information not available."
	defaultContextChars  = 12000
)

type (
	AskInput struct {
		Message string `validate:"required,max=2000"`
	}

	AskOutput struct {
		Reply string
	}
)

func (s *Usecase) Ask(ctx context.Context, in AskInput) (*AskOutput, error) {
	ctx, span := s.startSpan(ctx, "Ask")
	defer span.End()

	in.Message = strings.TrimSpace(in.Message)
	if err := s.validator.Validate(in); err != nil {
		slog.WarnContext(ctx, "invalid chat message", "error", err)
		return nil, goerror.NewInvalidInput(err)
	}

	if !s.model.Enabled() {
		slog.WarnContext(ctx, "chat model is not configured")
		return &AskOutput{Reply: ReplyUnavailable}, nil
	}

	doc := knowledgeUnavailable
	k, err := s.knowledge.Load(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load knowledge document", "error", err)
	} else if len(k.Sections) > 0 {
		doc = s.selectContext(k, in.Message)
	}

	reply, err := s.model.Generate(ctx, buildPrompt(doc, in.Message))
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate chat reply", "error", err)
		return &AskOutput{Reply: ReplyFailure}, nil
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return &AskOutput{Reply: ReplyNoAnswer}, nil
	}

	return &AskOutput{Reply: reply}, nil
}

func buildPrompt(doc, question string) string {
	var b strings.Builder
	b.WriteString("You are a Sports Club AI Assistant.\n")
	b.WriteString("Use ONLY the following club data to answer the user's question:\n\n")
	b.WriteString(doc)
	b.WriteString("\n\nUser Question: ")
	b.WriteString(question)
	b.WriteString("\n\nPlease provide a helpful, friendly, and professional response based only on the information above.")
	return b.String()
}

// selectContext returns the whole document when it fits the budget.
// Otherwise it keeps the sections sharing the most words with the question,
// in document order, until the budget is spent.
func (s *Usecase) selectContext(k entity.Knowledge, question string) string {
	budget := s.cfg.GetInt("modules.assistant.max_context_chars")
	if budget <= 0 {
		budget = defaultContextChars
	}
	if k.Len() <= budget {
		return k.String()
	}

	asked := words(question)
	type scored struct {
		idx   int
		score int
	}
	ranked := lo.Map(k.Sections, func(sec string, i int) scored {
		return scored{idx: i, score: len(lo.Intersect(asked, words(sec)))}
	})
	slices.SortStableFunc(ranked, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	var (
		picked []int
		used   int
	)
	for _, r := range ranked {
		size := len(k.Sections[r.idx])
		if used+size > budget {
			continue
		}
		picked = append(picked, r.idx)
		used += size
	}
	if len(picked) == 0 {
		return truncate(k.Sections[ranked[0].idx], budget)
	}
	slices.Sort(picked)

	return strings.Join(lo.Map(picked, func(i int, _ int) string { return k.Sections[i] }), "\n\n")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func words(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return lo.Uniq(lo.Filter(fields, func(w string, _ int) bool { return len(w) > 2 }))
}
