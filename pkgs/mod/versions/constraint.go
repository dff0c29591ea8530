// Package versions implements the version grammar accepted in requirements:
// exact pins (semantic versions or opaque version tokens) and ranges made of
// semantic-version comparators.
package versions

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goplus/llman/pkgs/gnu"
	"golang.org/x/mod/semver"
)

// Op is a range comparator operator.
type Op string

const (
	OpEQ    Op = "="
	OpGT    Op = ">"
	OpGE    Op = ">="
	OpLT    Op = "<"
	OpLE    Op = "<="
	OpTilde Op = "~" // same minor (or same major when only a major is given)
	OpCaret Op = "^" // same major (same minor for 0.x)
)

// longest operators first so that ">=" is not read as ">".
var ops = []Op{OpGE, OpLE, OpGT, OpLT, OpEQ, OpTilde, OpCaret}

// Comparator is a single "op version" term of a range.
type Comparator struct {
	Op      Op
	Version string // canonical semantic version with a leading "v"

	parts int // numeric parts written by the user: "1" -> 1, "1.2" -> 2
}

// Constraint is a parsed requirement version. The zero value is invalid.
type Constraint struct {
	raw   string
	exact string // set for exact pins
	cmps  []Comparator
}

// ErrInvalid is wrapped by every error Parse returns.
var ErrInvalid = errors.New("invalid version")

var tokenRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._+-]*$`)

// Parse parses a requirement version. Accepted forms:
//
//	1.88.0, 3.12, 1.2.3-rc.1        exact semantic version
//	cci.20230101                    exact opaque token
//	>=1.88                          single comparator
//	[>=1.2 <2.0], >=1.2,<2.0        comparator list, all must hold
//
// Range operands must be semantic versions.
func Parse(s string) (Constraint, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Constraint{}, fmt.Errorf("%w: empty version", ErrInvalid)
	}
	body := raw
	bracketed := strings.HasPrefix(body, "[")
	if bracketed {
		if !strings.HasSuffix(body, "]") {
			return Constraint{}, fmt.Errorf("%w: %q: unterminated range", ErrInvalid, s)
		}
		body = strings.TrimSpace(body[1 : len(body)-1])
	}
	var err error
	fields := strings.FieldsFunc(body, func(r rune) bool { return r == ' ' || r == ',' || r == '\t' })
	if len(fields) == 0 {
		return Constraint{}, fmt.Errorf("%w: %q: empty range", ErrInvalid, s)
	}
	if fields, err = joinOperators(fields); err != nil {
		return Constraint{}, fmt.Errorf("%w: %q: %v", ErrInvalid, s, err)
	}

	if !bracketed && len(fields) == 1 && opOf(fields[0]) == "" {
		if !tokenRegexp.MatchString(fields[0]) {
			return Constraint{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
		return Constraint{raw: raw, exact: fields[0]}, nil
	}

	c := Constraint{raw: raw}
	for _, f := range fields {
		op := opOf(f)
		if op == "" {
			if !bracketed || len(fields) != 1 {
				return Constraint{}, fmt.Errorf("%w: %q: %q has no operator", ErrInvalid, s, f)
			}
			op = OpEQ
		}
		operand := strings.TrimPrefix(f, string(op))
		v := "v" + operand
		if !semver.IsValid(v) {
			return Constraint{}, fmt.Errorf("%w: %q: %q is not a semantic version", ErrInvalid, s, operand)
		}
		core, _, _ := strings.Cut(operand, "-")
		core, _, _ = strings.Cut(core, "+")
		c.cmps = append(c.cmps, Comparator{
			Op:      op,
			Version: semver.Canonical(v),
			parts:   strings.Count(core, ".") + 1,
		})
	}
	return c, nil
}

// joinOperators attaches a lone operator field to the operand after it,
// so ">= 1.88" reads as ">=1.88".
func joinOperators(fields []string) ([]string, error) {
	out := fields[:0:0]
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if op := opOf(f); op != "" && f == string(op) {
			if i+1 == len(fields) || opOf(fields[i+1]) != "" {
				return nil, fmt.Errorf("operator %s has no operand", op)
			}
			i++
			f += fields[i]
		}
		out = append(out, f)
	}
	return out, nil
}

func opOf(f string) Op {
	for _, op := range ops {
		if strings.HasPrefix(f, string(op)) {
			return op
		}
	}
	return ""
}

// String returns the constraint as it was written (trimmed).
func (c Constraint) String() string { return c.raw }

// IsExact reports whether c pins a single version.
func (c Constraint) IsExact() bool { return c.exact != "" }

// Exact returns the pinned version for exact constraints, or "".
func (c Constraint) Exact() string { return c.exact }

// Comparators returns the range terms of c; nil for exact pins.
func (c Constraint) Comparators() []Comparator { return slices.Clone(c.cmps) }

// Allows reports whether version v satisfies c.
func (c Constraint) Allows(v string) bool {
	if c.exact != "" {
		if isSemver(c.exact) && isSemver(v) {
			return semver.Compare("v"+c.exact, "v"+v) == 0
		}
		return c.exact == v
	}
	if len(c.cmps) == 0 || !isSemver(v) {
		return false
	}
	sv := "v" + v
	for _, cmp := range c.cmps {
		if !cmp.allows(sv) {
			return false
		}
	}
	return true
}

func (cmp Comparator) allows(v string) bool {
	n := semver.Compare(v, cmp.Version)
	switch cmp.Op {
	case OpEQ:
		return n == 0
	case OpGT:
		return n > 0
	case OpGE:
		return n >= 0
	case OpLT:
		return n < 0
	case OpLE:
		return n <= 0
	case OpTilde, OpCaret:
		return n >= 0 && semver.Compare(v, cmp.upper()) < 0
	}
	return false
}

// upper returns the exclusive upper bound of a "~" or "^" comparator.
func (cmp Comparator) upper() string {
	mm := strings.TrimPrefix(semver.MajorMinor(cmp.Version), "v")
	maj, min, _ := strings.Cut(mm, ".")
	major, _ := strconv.Atoi(maj)
	minor, _ := strconv.Atoi(min)

	bumpMinor := false
	switch cmp.Op {
	case OpTilde:
		bumpMinor = cmp.parts >= 2
	case OpCaret:
		bumpMinor = major == 0 && cmp.parts >= 2
	}
	if bumpMinor {
		return fmt.Sprintf("v%d.%d.0-0", major, minor+1)
	}
	return fmt.Sprintf("v%d.0.0-0", major+1)
}

func isSemver(v string) bool {
	return semver.IsValid("v" + v)
}

// Compare orders two concrete versions: semantic-version order when both
// are semantic versions, GNU version order otherwise.
func Compare(a, b string) int {
	if isSemver(a) && isSemver(b) {
		return semver.Compare("v"+a, "v"+b)
	}
	return gnu.Compare(a, b)
}

// Best returns the highest candidate allowed by c.
func Best(c Constraint, candidates []string) (string, bool) {
	best, found := "", false
	for _, v := range candidates {
		if !c.Allows(v) {
			continue
		}
		if !found || Compare(v, best) > 0 {
			best, found = v, true
		}
	}
	return best, found
}
