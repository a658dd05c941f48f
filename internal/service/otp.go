package service

import (
	"crypto/rand"
	"math/big"
)

// OTPDigits is the length of ride-start codes.
const OTPDigits = 6

// GenerateOTP returns a uniformly random number in [10^(digits-1), 10^digits)
// as a decimal string, so there is never a leading zero.
func GenerateOTP(digits int) string {
	if digits < 1 {
		digits = OTPDigits
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits-1)), nil)
	high := new(big.Int).Mul(low, big.NewInt(10))
	span := new(big.Int).Sub(high, low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		// crypto/rand does not fail on supported platforms.
		panic("otp: " + err.Error())
	}
	return n.Add(n, low).String()
}

func validOTP(otp string) bool {
	if len(otp) != OTPDigits {
		return false
	}
	for i := 0; i < len(otp); i++ {
		if otp[i] < '0' || otp[i] > '9' {
			return false
		}
	}
	return true
}
