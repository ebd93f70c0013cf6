package checksum

import "testing"

func TestSumKnownVector(t *testing.T) {
	// RFC 1071 worked example: 0x0001 + 0xF203 + 0xF4F5 + 0xF6F7 == 0xDDF2,
	// one's-complement checksum is 0x220D.
	data := []byte{0x00, 0x01, 0xF2, 0x03, 0xF4, 0xF5, 0xF6, 0xF7}
	if got := Sum(data); got != 0x220D {
		t.Fatalf("got %#04x, want 0x220d", got)
	}
}

func TestSumOddLengthPadsWithZero(t *testing.T) {
	a := Sum([]byte{0x01, 0x02, 0x03})
	b := Sum([]byte{0x01, 0x02, 0x03, 0x00})
	if a != b {
		t.Fatalf("odd-length sum must match zero-padded even-length sum: %#04x vs %#04x", a, b)
	}
}

func TestUDPChecksumZeroNormalizesToAllOnes(t *testing.T) {
	// A zero UDP checksum is forbidden on the wire (it means "no
	// checksum"); a genuine all-zero result must be sent as 0xFFFF.
	src := [4]byte{0, 0, 0, 0}
	dst := [4]byte{0, 0, 0, 0}
	// The pseudo-header contributes 0x0011 (protocol) + 0x0008 (length);
	// a first header word of 0xFFE6 brings the sum to 0xFFFF, whose
	// complement is zero.
	udp := make([]byte, 8)
	udp[0], udp[1] = 0xFF, 0xE6
	if got := UDPChecksum(src, dst, udp); got != 0xFFFF {
		t.Fatalf("got %#04x, want 0xffff", got)
	}
}

func TestIPv4HeaderChecksumSelfVerifies(t *testing.T) {
	header := []byte{
		0x45, 0x10, 0x00, 0x14,
		0x00, 0x00, 0x00, 0x00,
		0x80, 0x11, 0x00, 0x00,
		192, 168, 1, 2,
		255, 255, 255, 255,
	}
	cksum := IPv4HeaderChecksum(header)
	header[10] = byte(cksum >> 8)
	header[11] = byte(cksum)
	// Summing a header with its own correct checksum installed yields zero.
	if got := Sum(header); got != 0 {
		t.Fatalf("self-verification failed: sum = %#04x", got)
	}
}
