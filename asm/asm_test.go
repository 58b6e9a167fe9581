package asm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/rasm/internal/asmerr"
)

func assemble(src string) ([]byte, error) {
	r := bytes.NewReader([]byte(src))
	result, err := Assemble(r, "test", false, nil)
	if err != nil {
		return nil, err
	}
	return result.Text, nil
}

const hexDigits = "0123456789ABCDEF"

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = string([]byte{hexDigits[v>>4], hexDigits[v&0x0f]})
	}
	return strings.Join(parts, " ")
}

func checkASM(t *testing.T, src, expected string) {
	t.Helper()
	code, err := assemble(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hexBytes(code); got != expected {
		t.Errorf("code doesn't match expected\ngot: %s\nexp: %s", got, expected)
	}
}

func checkASMError(t *testing.T, src string, kind asmerr.Kind) {
	t.Helper()
	_, err := assemble(src)
	if err == nil {
		t.Fatalf("expected error assembling %q, got none", src)
	}
	e, ok := err.(*asmerr.Error)
	if !ok {
		t.Fatalf("expected *asmerr.Error, got %T (%v)", err, err)
	}
	if e.Kind != kind {
		t.Errorf("expected error kind %v, got %v (%v)", kind, e.Kind, err)
	}
}

// A couple of worked examples elsewhere give "CF FF" and "A5 EA" for these
// same opcode words (0xCFFF, 0xEA05); the mathematically correct
// little-endian encoding is "FF CF" and "05 EA", matching every other byte
// pair in those examples (including the known-correct real-world
// SER r16 = 0xEF0F encoding). See DESIGN.md's avr section.

func TestEmptySource(t *testing.T) {
	checkASM(t, "", "")
}

func TestRJMPSelf(t *testing.T) {
	checkASM(t, `
start: rjmp start
`, "FF CF")
}

func TestLDIForwardReference(t *testing.T) {
	checkASM(t, `
	ldi r17, defined_later
.equ defined_later = 2
`, "12 E0")
}

func TestMOVWRegisterPairs(t *testing.T) {
	checkASM(t, `
.equ dstpair = r1:r0
.equ srcpair = r3:r2
	movw dstpair, srcpair
`, "01 01")
}

func TestDefaultShadowedByEqu(t *testing.T) {
	checkASM(t, `
.default x = 3
.equ x = 5
	ldi r17, x
`, "15 E0")
}

func TestBackwardLocalLabel(t *testing.T) {
	checkASM(t, `
1: ldi r16, 165
2: dec r16
   brne 2b
`, "05 EA 0A 95 F1 F7")
}

func TestLDIRegisterOutOfRange(t *testing.T) {
	checkASMError(t, `ldi r15, 1`, asmerr.Range)
}

func TestBRNEOverflow(t *testing.T) {
	var b strings.Builder
	b.WriteString("target:\n")
	for i := 0; i < 64; i++ {
		b.WriteString("nop\n")
	}
	b.WriteString("brne target\n")
	checkASMError(t, b.String(), asmerr.Range)
}

func TestCBIBitOutOfRange(t *testing.T) {
	checkASMError(t, `cbi 0x10, 8`, asmerr.Range)
}

func TestReptZero(t *testing.T) {
	checkASM(t, `
.rept 0
	nop
.endr
`, "")
}

func TestEquSelfCycle(t *testing.T) {
	checkASMError(t, `
.equ a = a
	ldi r17, a
`, asmerr.Symbol)
}

func TestEquClashesWithRegisterName(t *testing.T) {
	checkASMError(t, `.equ r0 = 1`, asmerr.Symbol)
}

func TestEquDuplicateStrong(t *testing.T) {
	checkASMError(t, `
.equ a = 1
.equ a = 2
	ldi r17, a
`, asmerr.Symbol)
}

func TestDefaultAloneUsesDefault(t *testing.T) {
	checkASM(t, `
.default x = 9
	ldi r17, x
`, "19 E0")
}
