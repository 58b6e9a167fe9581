package expr

import (
	"testing"

	"github.com/beevik/rasm/internal/fstring"
)

func evalStr(t *testing.T, src string, resolve Resolver) int {
	t.Helper()
	var p Parser
	e, remain, err := p.Parse(fstring.FString{Str: src})
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	if !remain.IsEmpty() {
		t.Fatalf("Parse(%q): unexpected remainder %q", src, remain.Str)
	}
	ok, err := e.Eval(resolve)
	if err != nil {
		t.Fatalf("Eval(%q): %v", src, err)
	}
	if !ok {
		t.Fatalf("Eval(%q): not resolvable", src)
	}
	return e.Value
}

func noResolve(string) (int, bool, error) { return 0, false, nil }

func TestUnaryNot(t *testing.T) {
	cases := []struct {
		src  string
		want int
	}{
		{"!0", 1},
		{"!1", 0},
		{"!5", 0},
		{"!!5", 1},
	}
	for _, c := range cases {
		if got := evalStr(t, c.src, noResolve); got != c.want {
			t.Errorf("%s = %d, want %d", c.src, got, c.want)
		}
	}
}

func TestUnaryNotPrecedence(t *testing.T) {
	// '!' binds as tightly as '-' and '~', so "!0 + 1" is "(!0) + 1".
	if got := evalStr(t, "!0 + 1", noResolve); got != 2 {
		t.Errorf("!0 + 1 = %d, want 2", got)
	}
}
