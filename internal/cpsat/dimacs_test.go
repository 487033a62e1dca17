package cpsat_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophercp/cpcore/internal/cpsat"
)

func TestParseDIMACS(t *testing.T) {
	type tc struct {
		Name     string
		Input    string
		Expected *cpsat.CNF
	}

	for _, tt := range []tc{
		{
			Name: "single clause",
			Input: "c a trivial unit clause\n" +
				"p cnf 1 1\n" +
				"1 0\n",
			Expected: &cpsat.CNF{NumVars: 1, Clauses: [][]int{{1}}},
		},
		{
			Name: "mixed-polarity clauses with comments and blank lines",
			Input: "c example\n" +
				"p cnf 3 2\n" +
				"\n" +
				"1 -2 3 0\n" +
				"c another comment\n" +
				"-1 2 0\n",
			Expected: &cpsat.CNF{NumVars: 3, Clauses: [][]int{{1, -2, 3}, {-1, 2}}},
		},
		{
			Name: "header fields separated by extra whitespace",
			Input: "p cnf   2   1\n" +
				"1  2  0\n",
			Expected: &cpsat.CNF{NumVars: 2, Clauses: [][]int{{1, 2}}},
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			cnf, err := cpsat.ParseDIMACS(strings.NewReader(tt.Input))
			require.NoError(t, err)
			assert.Equal(t, tt.Expected, cnf)
		})
	}
}

func TestParseDIMACSErrors(t *testing.T) {
	type tc struct {
		Name  string
		Input string
	}

	for _, tt := range []tc{
		{Name: "clause before header", Input: "1 0\n"},
		{Name: "clause missing trailing 0", Input: "p cnf 1 1\n1\n"},
		{Name: "literal out of range", Input: "p cnf 1 1\n2 0\n"},
		{Name: "clause count mismatch", Input: "p cnf 1 2\n1 0\n"},
		{Name: "variable count mismatch", Input: "p cnf 2 1\n1 0\n"},
		{Name: "malformed header", Input: "p cnf 1\n1 0\n"},
		{Name: "unrecognized line", Input: "p cnf 1 1\nnot a clause\n"},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := cpsat.ParseDIMACS(strings.NewReader(tt.Input))
			assert.Error(t, err)
		})
	}
}
