package store

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"
)

// ComputeExerciseHash computes a deterministic hash from what a student
// sees and what CodeRunner checks: name, kind, template, imports and test
// cases. Imports are sorted; support blocks are already part of the
// template. Run and row IDs do NOT affect the hash.
func ComputeExerciseHash(name, kind, template string, imports []string, cases []*TestCase) string {
	h := sha256.New()

	fmt.Fprintf(h, "name:%s\n", name)
	fmt.Fprintf(h, "kind:%s\n", kind)
	fmt.Fprintf(h, "template:%q\n", template)

	sorted := make([]string, len(imports))
	copy(sorted, imports)
	sort.Strings(sorted)
	fmt.Fprintf(h, "imports:%s\n", strings.Join(sorted, ","))

	// Test cases keep their ordinal order; the first one is the example.
	ordered := make([]*TestCase, len(cases))
	copy(ordered, cases)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ordinal < ordered[j].Ordinal
	})
	for _, tc := range ordered {
		fmt.Fprintf(h, "case:%s:%q:%q:%v\n", tc.Method, tc.Code, tc.Expected, tc.Example)
	}

	return fmt.Sprintf("%x", h.Sum(nil))
}

// HashSource returns the hex SHA-256 of a source file's bytes.
func HashSource(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}
