package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const orderNumberPrefix = "BP"

var orderNumberSpace = big.NewInt(1_000_000)

// NumberGenerator produces candidate order numbers. Uniqueness is enforced by
// the database; the generator only has to make collisions rare.
type NumberGenerator interface {
	Next() (string, error)
}

type randomNumberGenerator struct{}

// NewNumberGenerator returns the production generator: BP plus six random
// digits drawn from crypto/rand.
func NewNumberGenerator() NumberGenerator {
	return randomNumberGenerator{}
}

func (randomNumberGenerator) Next() (string, error) {
	n, err := rand.Int(rand.Reader, orderNumberSpace)
	if err != nil {
		return "", fmt.Errorf("drawing order number: %w", err)
	}
	return fmt.Sprintf("%s%06d", orderNumberPrefix, n.Int64()), nil
}
