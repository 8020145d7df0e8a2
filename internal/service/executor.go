package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/koustreak/dbdesk/internal/errs"
)

// StatementKind is the lexical classification of a SQL statement.
type StatementKind int

const (
	// StatementWrite runs through Exec and reports affected rows.
	StatementWrite StatementKind = iota
	// StatementRead runs through Query and returns rows.
	StatementRead
)

func (k StatementKind) String() string {
	if k == StatementRead {
		return "read"
	}
	return "write"
}

// readPrefixes are the keywords that route a statement to the row-returning
// path. Everything else, WITH and parenthesised selects included, is a write.
var readPrefixes = []string{"select", "show", "describe", "explain"}

// Classify is a lexical heuristic, not a parser: it skips leading
// whitespace and comments, lower-cases the rest and checks the prefix.
func Classify(sql string) StatementKind {
	body := strings.ToLower(stripLeadingComments(sql))
	for _, p := range readPrefixes {
		if strings.HasPrefix(body, p) {
			return StatementRead
		}
	}
	return StatementWrite
}

// stripLeadingComments removes whitespace and any run of leading
// "-- ...", "# ..." and "/* ... */" comments.
func stripLeadingComments(sql string) string {
	s := sql
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			nl := strings.IndexByte(s, '\n')
			if nl < 0 {
				return ""
			}
			s = s[nl+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s[2:], "*/")
			if end < 0 {
				return ""
			}
			s = s[2+end+2:]
		default:
			return s
		}
	}
}

// Execute runs one SQL statement. It never returns an error: failures,
// including a missing connection, come back with Success == false.
func (s *Service) Execute(ctx context.Context, sql string) QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeLocked(ctx, sql)
}

func (s *Service) executeLocked(ctx context.Context, sql string) QueryResult {
	session, err := s.requireConnected()
	if err != nil {
		return failedResult("execution failed", err)
	}
	if stripLeadingComments(sql) == "" {
		return failedResult("execution failed", errs.New(errs.ErrKindInvalidInput, "empty statement"))
	}

	kind := Classify(sql)
	log := s.sessionLog.With().Str("kind", kind.String()).Logger()
	log.DebugWith("executing statement", map[string]interface{}{"sql": sql})

	start := time.Now()
	var result QueryResult
	switch kind {
	case StatementRead:
		rs, err := session.Query(ctx, sql)
		if err != nil {
			log.WarnWith("statement failed", err, nil)
			s.dropIfLost(ctx, err)
			return failedResult("execution failed", err)
		}
		result = readResult(rs, time.Since(start).Milliseconds())
	default:
		res, err := session.Exec(ctx, sql)
		if err != nil {
			log.WarnWith("statement failed", err, nil)
			s.dropIfLost(ctx, err)
			return failedResult("execution failed", err)
		}
		result = writeResult(res, time.Since(start).Milliseconds())
	}

	log.DebugWith("statement executed", map[string]interface{}{
		"duration_ms":   result.ExecutionTimeMs,
		"rows":          len(result.Rows),
		"affected_rows": result.AffectedRows,
	})
	return result
}
