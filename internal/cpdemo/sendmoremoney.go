package cpdemo

import "github.com/gophercp/cpcore/pkg/cpsolver"

// Letters names the eight digits of SEND + MORE = MONEY, in the order
// SendMoreMoney returns them.
var Letters = []string{"S", "E", "N", "D", "M", "O", "R", "Y"}

// SendMoreMoney builds the classic SEND + MORE = MONEY cryptarithmetic
// puzzle: eight distinct digits 0-9, S and M nonzero, satisfying
// 1000*S + 100*E + 10*N + D + 1000*M + 100*O + 10*R + E =
// 10000*M + 1000*O + 100*N + 10*E + Y.
func SendMoreMoney(s *cpsolver.Solver) []*cpsolver.IntVar {
	digits := make(map[string]*cpsolver.IntVar, len(Letters))
	vars := make([]*cpsolver.IntVar, len(Letters))
	for i, name := range Letters {
		v := cpsolver.NewIntVar(s, 0, 9, name)
		digits[name] = v
		vars[i] = v
	}
	AllDifferent(s, vars)
	s.AddConstraint(&nonZero{v: digits["S"]})
	s.AddConstraint(&nonZero{v: digits["M"]})

	send := []*cpsolver.IntVar{digits["S"], digits["E"], digits["N"], digits["D"]}
	sendCoeffs := []int{1000, 100, 10, 1}
	more := []*cpsolver.IntVar{digits["M"], digits["O"], digits["R"], digits["E"]}
	moreCoeffs := []int{1000, 100, 10, 1}
	money := []*cpsolver.IntVar{digits["M"], digits["O"], digits["N"], digits["E"], digits["Y"]}
	moneyCoeffs := []int{10000, 1000, 100, 10, 1}

	terms := append(append(append([]*cpsolver.IntVar{}, send...), more...), money...)
	coeffs := make([]int, 0, len(terms))
	coeffs = append(coeffs, sendCoeffs...)
	coeffs = append(coeffs, moreCoeffs...)
	for _, c := range moneyCoeffs {
		coeffs = append(coeffs, -c)
	}
	s.AddConstraint(&linearEquation{vars: terms, coeffs: coeffs, target: 0})

	return vars
}
