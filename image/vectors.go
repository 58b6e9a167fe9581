// Package image composes the final flat byte image: the assembled .text
// body, optionally prefixed with a device's interrupt vector table.
package image

// Device names a vector table layout: the handler label rasm looks for in
// slot order. Slot 0 is always the reset vector.
type Device struct {
	Name     string
	Handlers []string
}

// ATmega328 is the default device: 26 vector slots, matching avr-libc's
// iom328p.h vector numbering.
var ATmega328 = Device{
	Name: "atmega328p",
	Handlers: []string{
		"RESET",
		"INT0_vect", "INT1_vect",
		"PCINT0_vect", "PCINT1_vect", "PCINT2_vect",
		"WDT_vect",
		"TIMER2_COMPA_vect", "TIMER2_COMPB_vect", "TIMER2_OVF_vect",
		"TIMER1_CAPT_vect", "TIMER1_COMPA_vect", "TIMER1_COMPB_vect", "TIMER1_OVF_vect",
		"TIMER0_COMPA_vect", "TIMER0_COMPB_vect", "TIMER0_OVF_vect",
		"SPI_STC_vect",
		"USART_RX_vect", "USART_UDRE_vect", "USART_TX_vect",
		"ADC_vect",
		"EE_READY_vect",
		"ANALOG_COMP_vect",
		"TWI_vect",
		"SPM_READY_vect",
	},
}
