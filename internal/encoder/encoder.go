package encoder

import (
	"errors"
	"math/bits"
	"strings"
)

// Alphabet is the digit set of issued short codes. The position of a symbol
// is its digit value, so the order must never change.
const Alphabet = "DsU~CF6hjX2u5QpolMWaNmLr8keVqzR0_3tn7HdOyJbZ.TI1AgfExB4SP9GiwYcvK-"

const base = uint64(len(Alphabet))

// ErrInvalidCode is returned when a string is not a valid encoded number.
var ErrInvalidCode = errors.New("invalid short code")

// Encode converts a number to its short code.
// Digits are written least significant first.
func Encode(num uint64) string {
	if num == 0 {
		return string(Alphabet[0])
	}

	var sb strings.Builder
	for num > 0 {
		sb.WriteByte(Alphabet[num%base])
		num = num / base
	}

	return sb.String()
}

// Decode converts a short code back to a number
func Decode(encoded string) (uint64, error) {
	if encoded == "" {
		return 0, ErrInvalidCode
	}

	var num uint64
	weight := uint64(1)
	overflowed := false

	for i := 0; i < len(encoded); i++ {
		digit := strings.IndexByte(Alphabet, encoded[i])
		if digit < 0 {
			return 0, ErrInvalidCode
		}
		if digit == 0 {
			// zero digits add nothing, but a later non-zero digit at an
			// overflowed weight still has to be rejected
			weight, overflowed = nextWeight(weight, overflowed)
			continue
		}
		if overflowed {
			return 0, ErrInvalidCode
		}

		hi, term := bits.Mul64(uint64(digit), weight)
		if hi != 0 {
			return 0, ErrInvalidCode
		}
		var carry uint64
		num, carry = bits.Add64(num, term, 0)
		if carry != 0 {
			return 0, ErrInvalidCode
		}
		weight, overflowed = nextWeight(weight, overflowed)
	}

	return num, nil
}

func nextWeight(weight uint64, overflowed bool) (uint64, bool) {
	if overflowed {
		return weight, true
	}
	hi, lo := bits.Mul64(weight, base)
	if hi != 0 {
		return weight, true
	}
	return lo, false
}

// Symbol returns the alphabet symbol with digit value i.
func Symbol(i int) byte {
	return Alphabet[i]
}

// Base is the number of symbols in the alphabet.
func Base() int {
	return int(base)
}
