package fec

// CRCRemainder copies x into buf and divides it in place by the polynomial poly
// (implicit leading one, len(poly) parity bits). The returned slice aliases the
// trailing len(poly) bits of buf. buf must be at least len(x) long and x must not
// be shorter than poly.
func CRCRemainder(buf, x, poly []uint8) []uint8 {
	buf = buf[:len(x)]
	copy(buf, x)
	for i := 0; i < len(x)-len(poly); i++ {
		if buf[i] == 0 {
			continue
		}
		for j, p := range poly {
			buf[i+j+1] ^= p
		}
	}
	return buf[len(x)-len(poly):]
}

// IsValidCRC recomputes the CRC of bits[:infoLen] and compares it with the
// len(poly) bits that follow.
func IsValidCRC(bits []uint8, infoLen int, poly, buf []uint8) bool {
	crc := CRCRemainder(buf, bits[:infoLen], poly)
	for j := range crc {
		if crc[j] != bits[infoLen+j] {
			return false
		}
	}
	return true
}

// ParseBits converts a string of '0'/'1' characters. Any character other than
// '0' is a one, like the mask parser of the parameter files.
func ParseBits(s string) []uint8 {
	out := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			out[i] = 1
		}
	}
	return out
}
