package core

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"
)

func genVersion(t *rapid.T, label string) [3]int {
	return [3]int{
		rapid.IntRange(0, 20).Draw(t, label+"_major"),
		rapid.IntRange(0, 20).Draw(t, label+"_minor"),
		rapid.IntRange(0, 20).Draw(t, label+"_patch"),
	}
}

func versionString(v [3]int) string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

func lexCompare(a, b [3]int) int {
	for i := 0; i < 3; i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Property: CompareVersions agrees with component-wise numeric order, is
// antisymmetric and reflexive.
func TestProperty_CompareVersionsOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := genVersion(t, "a")
		b := genVersion(t, "b")
		sa, sb := versionString(a), versionString(b)

		got := CompareVersions(sa, sb)
		if want := lexCompare(a, b); got != want {
			t.Fatalf("CompareVersions(%s, %s) = %d, want %d", sa, sb, got, want)
		}
		if CompareVersions(sb, sa) != -got {
			t.Fatalf("CompareVersions is not antisymmetric for %s, %s", sa, sb)
		}
		if CompareVersions(sa, sa) != 0 {
			t.Fatalf("CompareVersions(%s, %s) != 0", sa, sa)
		}
	})
}

// Property: the order is transitive.
func TestProperty_CompareVersionsTransitive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := versionString(genVersion(t, "a"))
		b := versionString(genVersion(t, "b"))
		c := versionString(genVersion(t, "c"))
		if CompareVersions(a, b) <= 0 && CompareVersions(b, c) <= 0 && CompareVersions(a, c) > 0 {
			t.Fatalf("transitivity violated: %s <= %s <= %s but %s > %s", a, b, c, a, c)
		}
	})
}

// Property: without force, a sync is needed iff the installed version is
// missing or older; with force it is always needed.
func TestProperty_NeedsSync(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pkg := versionString(genVersion(t, "pkg"))
		installed := ""
		if rapid.Bool().Draw(t, "installed") {
			installed = versionString(genVersion(t, "inst"))
		}

		if !needsSync(installed, pkg, true) {
			t.Fatalf("needsSync(%q, %q, true) = false", installed, pkg)
		}
		want := installed == "" || CompareVersions(installed, pkg) < 0
		if got := needsSync(installed, pkg, false); got != want {
			t.Fatalf("needsSync(%q, %q, false) = %v, want %v", installed, pkg, got, want)
		}
		if needsSync(pkg, pkg, false) {
			t.Fatalf("needsSync(%q, %q, false) = true for equal versions", pkg, pkg)
		}
	})
}
