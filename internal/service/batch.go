package service

import (
	"context"
	"strings"
)

// ExecuteBatch runs statements in order through the same path as Execute.
// Blank entries are skipped and produce no result. Execution stops after
// the first failed statement; the returned slice ends with that failure.
// The batch is not wrapped in a transaction.
func (s *Service) ExecuteBatch(ctx context.Context, statements []string) []QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]QueryResult, 0, len(statements))
	for i, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		r := s.executeLocked(ctx, stmt)
		results = append(results, r)
		if !r.Success {
			s.sessionLog.WarnWith("batch stopped", r.Err, map[string]interface{}{
				"index":   i,
				"skipped": len(statements) - i - 1,
			})
			break
		}
	}
	return results
}

// SplitStatements splits a SQL script on semicolons that are outside
// quotes, backticks and comments. Pieces that contain nothing but
// whitespace and comments are dropped. DELIMITER directives are not
// understood.
func SplitStatements(script string) []string {
	var (
		out     []string
		current strings.Builder
		quote   rune // ', " or ` while inside a quoted section
		line    bool // inside -- or # comment
		block   bool // inside /* */ comment
	)

	flush := func() {
		stmt := strings.TrimSpace(current.String())
		current.Reset()
		if stripLeadingComments(stmt) != "" {
			out = append(out, stmt)
		}
	}

	runes := []rune(script)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch {
		case line:
			if r == '\n' {
				line = false
			}
		case block:
			if r == '*' && next == '/' {
				current.WriteRune(r)
				i++
				r = next
				block = false
			}
		case quote != 0:
			if r == '\\' && quote != '`' && next != 0 {
				current.WriteRune(r)
				i++
				r = next
			} else if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '#' || (r == '-' && next == '-'):
			line = true
		case r == '/' && next == '*':
			current.WriteRune(r)
			i++
			r = next
			block = true
		case r == ';':
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return out
}
