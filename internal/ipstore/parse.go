package ipstore

// ParseIPv4 parses a dotted-quad into A<<24|B<<16|C<<8|D.
//
// Octets are one to three decimal digits in [0, 255]. A single trailing '\r'
// is accepted.
func ParseIPv4(b []byte) (uint32, bool) {
	if n := len(b); n > 0 && b[n-1] == '\r' {
		b = b[:n-1]
	}
	var ip uint32
	i := 0
	for octet := 0; octet < 4; octet++ {
		if octet > 0 {
			if i >= len(b) || b[i] != '.' {
				return 0, false
			}
			i++
		}
		v, n := dec3(b, i)
		if n == i || v > 255 {
			return 0, false
		}
		ip = ip<<8 | v
		i = n
	}
	if i != len(b) {
		return 0, false
	}
	return ip, true
}

// dec3 parses up to 3 ASCII digits starting at i, returns (value, newIndex).
func dec3(b []byte, i int) (uint32, int) {
	var v uint32
	end := i + 3
	for i < len(b) && i < end && b[i] >= '0' && b[i] <= '9' {
		v = v*10 + uint32(b[i]-'0')
		i++
	}
	return v, i
}
