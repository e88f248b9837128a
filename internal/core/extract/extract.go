// Package extract pulls a structured result out of free model text.
package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
)

var trailingSeparator = regexp.MustCompile(`,\s*([}\]])`)

// Block returns the span from the first opening brace to the last closing
// brace. ok is false when no such span exists.
func Block(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}

// Decode parses the block found in raw into out. It tries a strict parse,
// then one repair pass that drops separators before closing brackets.
// Any failure is reported as domain.ErrExtraction.
func Decode(raw string, out any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = domain.WrapError(domain.ErrExtraction, "decode model output", errors.New("decoder panic"))
		}
	}()

	block, ok := Block(raw)
	if !ok {
		return domain.WrapError(domain.ErrExtraction, "decode model output", errors.New("no braces found"))
	}
	if err := json.Unmarshal([]byte(block), out); err == nil {
		return nil
	}
	repaired := trailingSeparator.ReplaceAllString(block, "$1")
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return domain.WrapError(domain.ErrExtraction, "decode model output", err)
	}
	return nil
}

// Into decodes raw into a fresh T, returning fallback when extraction fails.
func Into[T any](raw string, fallback T) (T, error) {
	var out T
	if err := Decode(raw, &out); err != nil {
		return fallback, err
	}
	return out, nil
}
