package agent

import (
	"regexp"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

var decisionMarker = regexp.MustCompile(`(?i)FINALE\s+BESLISSING[\s:*_]*(JA|NEE)\b([^\n]*)`)

var alternativeNo = regexp.MustCompile(`(?i)\bNEE\b`)

// Classify reads the final decision marker from an applicability answer.
// The last unambiguous marker wins; a line offering both answers, as in an
// echoed format template, does not count. No marker yields VerdictAmbiguous.
func Classify(text string) domain.Verdict {
	verdict := domain.VerdictAmbiguous
	for _, m := range decisionMarker.FindAllStringSubmatch(text, -1) {
		answer := strings.ToUpper(m[1])
		rest := m[2]
		if answer == "JA" && alternativeNo.MatchString(rest) && strings.Contains(rest, "/") {
			continue
		}
		if answer == "JA" {
			verdict = domain.VerdictOmit
		} else {
			verdict = domain.VerdictKeep
		}
	}
	return verdict
}
