package avr

import (
	"testing"

	"github.com/beevik/rasm/internal/ast"
	"github.com/beevik/rasm/internal/expr"
)

// decodeK12 inverts RJMP/RCALL's displacement packing: the low 12 bits of
// the opcode word, sign-extended.
func decodeK12(word uint16) int {
	return int(int16(word<<4)) >> 4
}

// decodeK7 inverts BRxx's displacement packing: bits 9-3, sign-extended.
func decodeK7(word uint16) int {
	return int(int16(word<<6)) >> 9
}

// decodeMOVW inverts pairOp: the low 4 bits are the source pair index, bits
// 7-4 the destination pair index.
func decodeMOVW(word uint16) (dPair, rPair int) {
	return int(word>>4) & 0xF, int(word) & 0xF
}

// TestRJMPIdempotence checks the RJMP/RCALL displacement invariant: decoding
// the displacement out of an encoded word reproduces the exact half-word
// count used to encode it, for both forward and backward targets.
func TestRJMPIdempotence(t *testing.T) {
	cases := []struct{ source, target int }{
		{0, 0},       // self-loop, k = -1
		{100, 50},    // backward
		{0, 200},     // forward
		{0, 4096},    // k = 2047, the positive k12 boundary
		{4094, 0},    // k = -2048, the negative k12 boundary
	}
	for _, c := range cases {
		word, err := RJMPWord(c.source, c.target)
		if err != nil {
			t.Fatalf("RJMPWord(%d,%d): %v", c.source, c.target, err)
		}
		wantK := (c.target - (c.source + 2)) / 2
		if gotK := decodeK12(word); gotK != wantK {
			t.Errorf("RJMPWord(%d,%d) = 0x%04X, decoded k=%d, want %d", c.source, c.target, word, gotK, wantK)
		}
		gotTarget := c.source + 2 + decodeK12(word)*2
		if gotTarget != c.target {
			t.Errorf("round trip: source=%d target=%d decoded back to %d", c.source, c.target, gotTarget)
		}
	}
}

// TestBRNEIdempotence checks the same round-trip property for a
// conditional branch's 7-bit displacement field.
func TestBRNEIdempotence(t *testing.T) {
	source, target := 6, 2 // a backward BRNE 2b reference
	word := uint16(0xF000 | 1<<10 | (uint16(pcRelOrFatal(t, source, target, 7))&0x7F)<<3 | 1)
	wantK := (target - (source + 2)) / 2
	if gotK := decodeK7(word); gotK != wantK {
		t.Errorf("decoded k=%d, want %d", gotK, wantK)
	}
}

func pcRelOrFatal(t *testing.T, source, target, bits int) int {
	t.Helper()
	k, err := pcRel(source, target, bits)
	if err != nil {
		t.Fatalf("pcRel(%d,%d,%d): %v", source, target, bits, err)
	}
	return k
}

// TestMOVWIdempotence checks that a MOVW encoded via the instruction table
// decodes back to the same pair indices (dstpair = r1:r0, srcpair = r3:r2,
// both named by their low register).
func TestMOVWIdempotence(t *testing.T) {
	ops := []ast.Operand{
		{Kind: ast.OpRegister, Reg: 0},
		{Kind: ast.OpRegister, Reg: 2},
	}
	noResolve := func(*expr.Expr) (int, error) { return 0, nil }
	bytes, err := Encode("movw", 0, ops, noResolve)
	if err != nil {
		t.Fatalf("Encode(movw): %v", err)
	}
	if len(bytes) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(bytes))
	}
	word := uint16(bytes[0]) | uint16(bytes[1])<<8
	if word != 0x0101 {
		t.Errorf("MOVW r1:r0, r3:r2 = 0x%04X, want 0x0101", word)
	}
	dPair, rPair := decodeMOVW(word)
	if dPair != 0 || rPair != 1 {
		t.Errorf("decoded dPair=%d rPair=%d, want 0,1", dPair, rPair)
	}
}
