package image

import "testing"

func TestBuildNoVectors(t *testing.T) {
	text := []byte{0x01, 0x02, 0x03}
	out, err := Build(text, nil, func(string) (int, bool) { return 0, false })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != string(text) {
		t.Errorf("expected bare text, got %v", out)
	}
}

func TestBuildVectorsAllSelfLoop(t *testing.T) {
	text := []byte{0xAA}
	out, err := Build(text, &ATmega328, func(string) (int, bool) { return 0, false })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLen := len(ATmega328.Handlers)*2 + len(text)
	if len(out) != wantLen {
		t.Fatalf("expected %d bytes, got %d", wantLen, len(out))
	}
	for slot := range ATmega328.Handlers {
		lo, hi := out[slot*2], out[slot*2+1]
		word := uint16(lo) | uint16(hi)<<8
		if word != 0xCFFF {
			t.Errorf("slot %d: expected self-loop 0xCFFF, got 0x%04X", slot, word)
		}
	}
	if out[len(out)-1] != 0xAA {
		t.Errorf("expected .text body to follow the vector table")
	}
}

func TestBuildVectorsResetHandler(t *testing.T) {
	out, err := Build(nil, &ATmega328, func(name string) (int, bool) {
		if name == "RESET" {
			return len(ATmega328.Handlers) * 2, true
		}
		return 0, false
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	word := uint16(out[0]) | uint16(out[1])<<8
	// RJMP from slot 0 (source=0) to the first byte past the vector table.
	wantK := (len(ATmega328.Handlers)*2 - 2) / 2
	gotK := int(int16(word<<4)) >> 4
	if gotK != wantK {
		t.Errorf("RESET vector k=%d, want %d", gotK, wantK)
	}
}
