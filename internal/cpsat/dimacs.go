// Package cpsat is a boolean-clause front end over pkg/cpsolver: it
// parses DIMACS CNF (the format the teacher's cmd/dimacs read, adapted
// here into structured literals instead of strings), presolves the
// clause set through github.com/go-air/gini, and lowers the whole CNF
// into one 0/1 IntVar per variable plus a DecisionBuilder that assigns
// them — exercising the SAT sub-solver exactly as an external
// collaborator invoking the core (spec.md §1), never as a replacement
// for pkg/cpsolver's own search.
package cpsat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// CNF is a parsed DIMACS CNF instance: NumVars variables numbered 1..n,
// and Clauses of signed literals (positive k means variable k, negative
// -k means its negation), zero-terminators already stripped.
type CNF struct {
	NumVars int
	Clauses [][]int
}

var (
	commentLine = regexp.MustCompile(`^c\s*.*`)
	headerLine  = regexp.MustCompile(`^p cnf\s+\d+\s+\d+\s*`)
	clauseLine  = regexp.MustCompile(`^(-?\d+\s+)+0`)
	collapseWS  = regexp.MustCompile(`\s\s+`)
)

// ParseDIMACS reads a DIMACS CNF stream, following the teacher's
// cmd/dimacs line-classification approach (comment / header / clause
// regexes) but producing structured literals instead of raw strings,
// since the consumer here is gini and pkg/cpsolver IntVars rather than a
// string-keyed constraint builder.
func ParseDIMACS(r io.Reader) (*CNF, error) {
	reader := bufio.NewReader(r)

	numVars, numClauses := 0, 0
	var clauses [][]int
	seenVars := map[int]struct{}{}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("cpsat: reading dimacs stream: %w", err)
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case commentLine.MatchString(line):
			continue
		case headerLine.MatchString(line):
			fields := strings.Fields(collapseWS.ReplaceAllString(line, " "))
			if len(fields) != 4 {
				return nil, fmt.Errorf("cpsat: invalid header %q, want 'p cnf <vars> <clauses>'", line)
			}
			numVars, err = strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("cpsat: invalid variable count %q: %w", fields[2], err)
			}
			numClauses, err = strconv.Atoi(fields[3])
			if err != nil {
				return nil, fmt.Errorf("cpsat: invalid clause count %q: %w", fields[3], err)
			}
			clauses = make([][]int, 0, numClauses)
		case clauseLine.MatchString(line):
			if clauses == nil {
				return nil, fmt.Errorf("cpsat: clause before header: missing 'p cnf <vars> <clauses>'")
			}
			fields := strings.Fields(collapseWS.ReplaceAllString(line, " "))
			if fields[len(fields)-1] != "0" {
				return nil, fmt.Errorf("cpsat: clause %q does not end with 0", line)
			}
			fields = fields[:len(fields)-1]
			clause := make([]int, 0, len(fields))
			for _, f := range fields {
				lit, err := strconv.Atoi(f)
				if err != nil {
					return nil, fmt.Errorf("cpsat: literal %q is not an integer", f)
				}
				if lit == 0 || lit > numVars || -lit > numVars {
					return nil, fmt.Errorf("cpsat: literal %q out of range [1, %d]", f, numVars)
				}
				seenVars[abs(lit)] = struct{}{}
				clause = append(clause, lit)
			}
			clauses = append(clauses, clause)
		default:
			return nil, fmt.Errorf("cpsat: unrecognized dimacs line %q", line)
		}
	}

	if numVars == 0 || clauses == nil {
		return nil, fmt.Errorf("cpsat: no header and clauses found")
	}
	if len(clauses) != numClauses {
		return nil, fmt.Errorf("cpsat: header declared %d clauses, found %d", numClauses, len(clauses))
	}
	if len(seenVars) != numVars {
		return nil, fmt.Errorf("cpsat: header declared %d variables, found %d used", numVars, len(seenVars))
	}

	return &CNF{NumVars: numVars, Clauses: clauses}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
