package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Alfabet tanpa karakter ambigu (0/O, 1/I/L) biar gampang dibacakan di kasir.
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const ArrivalCodeLen = 6

// NewArrivalCode menghasilkan kode singkat yang ditunjukkan customer saat pickup.
func NewArrivalCode() (string, error) {
	b := make([]byte, ArrivalCodeLen)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// NewOrderNumber: nomor order human-readable, unik secara praktis;
// uniqueness sebenarnya dijaga constraint di DB.
func NewOrderNumber(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%04d", now.UTC().Format("20060102150405"), n.Int64()), nil
}
