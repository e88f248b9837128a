package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/ports"
)

// session walks an operator through clause runs on one case.
type session struct {
	cases  ports.CaseService
	caseID string
	other  string
	in     *bufio.Scanner
	out    io.Writer
}

// newSession starts a session; picking the option named other asks for free text.
func newSession(cases ports.CaseService, caseID, other string, in io.Reader, out io.Writer) *session {
	return &session{cases: cases, caseID: caseID, other: other, in: bufio.NewScanner(in), out: out}
}

func (s *session) runAll(ctx context.Context, ordinals []int) error {
	for _, ordinal := range ordinals {
		if err := s.runClause(ctx, ordinal); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) runClause(ctx context.Context, ordinal int) error {
	state, err := s.cases.StartClause(ctx, s.caseID, ordinal)
	if err != nil {
		return fmt.Errorf("start clause %d: %w", ordinal, err)
	}
	fmt.Fprintf(s.out, "\n=== %d. %s ===\n", state.Task.Ordinal, state.Task.Label)
	shown := 0

	for {
		shown = s.printNotices(state, shown)
		switch {
		case state.Stage == domain.StageComplete:
			s.printResult(state)
			return nil

		case state.AwaitingDecision():
			s.printAdvice(state.Applicability)
			decision, err := s.askDecision()
			if err != nil {
				return s.abandon(ctx, err)
			}
			state, err = s.cases.DecideClause(ctx, s.caseID, decision)
			if err != nil {
				return fmt.Errorf("decide clause %d: %w", ordinal, err)
			}

		case state.AwaitingAnswer():
			answer, err := s.askQuestion(*state.Pending)
			if err != nil {
				return s.abandon(ctx, err)
			}
			state, err = s.cases.AnswerQuestion(ctx, s.caseID, answer)
			if err != nil {
				return fmt.Errorf("answer question: %w", err)
			}

		default:
			return fmt.Errorf("clause %d stopped at stage %s", ordinal, state.Stage)
		}
	}
}

func (s *session) abandon(ctx context.Context, cause error) error {
	if err := s.cases.AbandonClause(ctx, s.caseID); err != nil {
		return fmt.Errorf("%w (abandon: %v)", cause, err)
	}
	return cause
}

func (s *session) printAdvice(advice *domain.ApplicabilityResult) {
	if advice == nil {
		return
	}
	switch advice.Verdict {
	case domain.VerdictOmit:
		fmt.Fprintln(s.out, "Advies: clausule mag worden weggelaten.")
	case domain.VerdictKeep:
		fmt.Fprintln(s.out, "Advies: clausule behouden.")
	default:
		fmt.Fprintln(s.out, "Advies: onduidelijk, beslis zelf.")
	}
	if r := strings.TrimSpace(advice.Rationale); r != "" {
		fmt.Fprintln(s.out, r)
	}
}

func (s *session) printNotices(state *domain.PipelineState, shown int) int {
	for _, n := range state.Notices[min(shown, len(state.Notices)):] {
		fmt.Fprintf(s.out, "! %s\n", n)
	}
	return len(state.Notices)
}

func (s *session) printResult(state *domain.PipelineState) {
	if state.Decision == domain.DecisionSkip || state.Result == nil {
		fmt.Fprintln(s.out, "Clausule overgeslagen.")
		return
	}
	fmt.Fprintf(s.out, "\n%s\n", state.Result.Text)
}

func (s *session) askDecision() (domain.Decision, error) {
	for {
		line, err := s.prompt("Clausule toepassen? [j/n]: ")
		if err != nil {
			return domain.DecisionPending, err
		}
		switch strings.ToLower(line) {
		case "j", "ja", "y", "yes", "apply":
			return domain.DecisionApply, nil
		case "n", "nee", "no", "skip":
			return domain.DecisionSkip, nil
		}
		fmt.Fprintln(s.out, "Antwoord met j of n.")
	}
}

// askQuestion accepts an option number or free text. Picking the other
// option asks for the free-text value.
func (s *session) askQuestion(q domain.QuestionSpec) (string, error) {
	fmt.Fprintf(s.out, "\n%s\n", q.Question)
	for i, opt := range q.Options {
		fmt.Fprintf(s.out, "  %d) %s\n", i+1, opt)
	}
	for {
		line, err := s.prompt("> ")
		if err != nil {
			return "", err
		}
		if line == "" {
			continue
		}
		n, convErr := strconv.Atoi(line)
		if convErr != nil || n < 1 || n > len(q.Options) {
			return line, nil
		}
		choice := q.Options[n-1]
		if !strings.EqualFold(choice, s.other) {
			return choice, nil
		}
		other, err := s.prompt("Geef uw antwoord: ")
		if err != nil {
			return "", err
		}
		if other != "" {
			return other, nil
		}
	}
}

func (s *session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}
