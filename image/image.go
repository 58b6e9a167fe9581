package image

import (
	"encoding/binary"

	"github.com/beevik/rasm/avr"
)

// LabelAddr resolves a handler label name to its byte address in the final
// image, that is, counted from the start of the vector table.
type LabelAddr func(name string) (int, bool)

// Build composes the final image. When device is nil, the image is simply
// text (the --no-vectors path). Otherwise the image begins with
// len(device.Handlers)*2 bytes: an RJMP to the handler for each slot that
// has one, or an RJMP-to-self (the well-known 0xCFFF "spin forever" idiom)
// for a slot whose handler label was never defined.
func Build(text []byte, device *Device, labelAddr LabelAddr) ([]byte, error) {
	if device == nil {
		return text, nil
	}

	out := make([]byte, 0, len(device.Handlers)*2+len(text))
	for slot, handler := range device.Handlers {
		source := slot * 2
		var word uint16
		if addr, ok := labelAddr(handler); ok {
			w, err := avr.RJMPWord(source, addr)
			if err != nil {
				return nil, err
			}
			word = w
		} else {
			w, err := avr.RJMPWord(source, source)
			if err != nil {
				return nil, err
			}
			word = w
		}
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], word)
		out = append(out, buf[:]...)
	}
	return append(out, text...), nil
}
