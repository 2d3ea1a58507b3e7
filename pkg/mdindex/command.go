package mdindex

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// CreateIndexCommand is the parsed form of a createIndex command string.
type CreateIndexCommand struct {
	Kind       Kind
	Name       string
	Table      string
	FieldNames []string
}

// UseIndexCommand is the parsed form of a useIndex command string.
type UseIndexCommand struct {
	Kind       Kind
	QueryKind  QueryKind
	Name       string
	Table      string
	Literals   [][]string // one parenthesised group's comma-separated values per element
	K          int        // only meaningful when QueryKind == QueryKNN
}

var createIndexPattern = regexp.MustCompile(`(?i)^createIndex\s+(\w+)\s+(\w+)\s+(\w+)\s*\(([^)]*)\)\s*$`)

// ParseCreateIndex parses a command of the form
// "createIndex <kind> <name> <table> (<field>, ...)" without performing
// any I/O, so a REPL or test can call it directly.
func ParseCreateIndex(cmd string) (*CreateIndexCommand, error) {
	m := createIndexPattern.FindStringSubmatch(strings.TrimSpace(cmd))
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrBadCommand, cmd)
	}

	kind := Kind(strings.ToUpper(m[1]))
	if kind != KindKD && kind != KindR {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	return &CreateIndexCommand{
		Kind:       kind,
		Name:       m[2],
		Table:      m[3],
		FieldNames: splitTrim(m[4]),
	}, nil
}

var useIndexPattern = regexp.MustCompile(`(?i)^useIndex\s+(\w+)\s+(\w+)\s+(\w+)\s+(\w+)\s+(.*)$`)
var parenGroupPattern = regexp.MustCompile(`\(([^)]*)\)`)

// ParseUseIndex parses a command of the form
// "useIndex <kind> <qkind> <name> <table> <args>". For RANGE, args are
// two parenthesised tuples separated by ';'. For KNN, args are a
// parenthesised point and an integer k. For EQ, args are one
// parenthesised tuple.
func ParseUseIndex(cmd string) (*UseIndexCommand, error) {
	m := useIndexPattern.FindStringSubmatch(strings.TrimSpace(cmd))
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrBadCommand, cmd)
	}

	kind := Kind(strings.ToUpper(m[1]))
	if kind != KindKD && kind != KindR {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	qkind := QueryKind(strings.ToUpper(m[2]))

	out := &UseIndexCommand{Kind: kind, QueryKind: qkind, Name: m[3], Table: m[4]}
	args := strings.TrimSpace(m[5])

	switch qkind {
	case QueryEQ:
		groups := parenGroupPattern.FindAllStringSubmatch(args, -1)
		if len(groups) != 1 {
			return nil, fmt.Errorf("%w: EQ expects one parenthesised tuple: %s", ErrBadCommand, cmd)
		}
		out.Literals = [][]string{splitTrim(groups[0][1])}

	case QueryRANGE:
		parts := strings.SplitN(args, ";", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: RANGE expects two tuples separated by ';': %s", ErrBadCommand, cmd)
		}
		for _, part := range parts {
			g := parenGroupPattern.FindStringSubmatch(part)
			if g == nil {
				return nil, fmt.Errorf("%w: RANGE tuple must be parenthesised: %s", ErrBadCommand, cmd)
			}
			out.Literals = append(out.Literals, splitTrim(g[1]))
		}

	case QueryKNN:
		g := parenGroupPattern.FindStringSubmatch(args)
		if g == nil {
			return nil, fmt.Errorf("%w: KNN expects a parenthesised point: %s", ErrBadCommand, cmd)
		}
		out.Literals = [][]string{splitTrim(g[1])}

		rest := strings.TrimSpace(parenGroupPattern.ReplaceAllString(args, ""))
		k, err := strconv.Atoi(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: KNN expects a trailing integer k: %s", ErrBadCommand, cmd)
		}
		out.K = k

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryKind, qkind)
	}

	return out, nil
}

func splitTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
