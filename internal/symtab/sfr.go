package symtab

// sfrAliases seeds the symbol environment with the special-function
// register and bit-position names built into the assembler
// (ATmega328-class addresses, matching avr-libc's iom328p.h).
var sfrAliases = map[string]int{
	// port I/O registers (data-memory addresses, used with LDS/STS; the
	// I/O-space forms used by IN/OUT/SBI/CBI are these minus 0x20)
	"PINB": 0x23, "DDRB": 0x24, "PORTB": 0x25,
	"PINC": 0x26, "DDRC": 0x27, "PORTC": 0x28,
	"PIND": 0x29, "DDRD": 0x2A, "PORTD": 0x2B,

	"TIFR0": 0x35, "TIFR1": 0x36, "TIFR2": 0x37,
	"PCIFR": 0x3B, "EIFR": 0x3C, "EIMSK": 0x3D,

	"TCCR1A": 0x80, "TCCR1B": 0x81, "TCCR1C": 0x82,
	"TCNT1L": 0x84, "TCNT1H": 0x85,
	"OCR1AL": 0x88, "OCR1AH": 0x89, "OCR1BL": 0x8A, "OCR1BH": 0x8B,
	"TIMSK1": 0x6F,

	"UCSR0A": 0xC0, "UCSR0B": 0xC1, "UCSR0C": 0xC2,
	"UBRR0L": 0xC4, "UBRR0H": 0xC5, "UDR0": 0xC6,

	"SPCR": 0x4C, "SPSR": 0x4D, "SPDR": 0x4E,
	"SREG": 0x5F, "SPL": 0x5D, "SPH": 0x5E,

	// bit-position names (0..7 within their register)
	"OCF1B": 2, "OCIE1B": 2,
	"OCF1A": 1, "OCIE1A": 1,
	"TOV1": 0, "TOIE1": 0,
	"UMSEL00": 6, "UMSEL01": 7,
	"TXEN0": 3, "RXEN0": 4, "UDRE0": 5,
	"SPE": 6, "MSTR": 4, "SPIE": 7,
}
