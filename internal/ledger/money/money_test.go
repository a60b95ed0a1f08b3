package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPotentialPayoutFloors(t *testing.T) {
	// 333 * 2.5 = 832.5 -> 832, arredonda pra baixo e não pro mais próximo
	assert.Equal(t, Amount(832), PotentialPayout(333, 2.5))
	assert.Equal(t, Amount(100), PotentialPayout(100, 1.0))
	assert.Equal(t, Amount(199), PotentialPayout(100, 1.999))
	assert.Equal(t, Amount(0), PotentialPayout(0, 10.0))
}

func TestNetGain(t *testing.T) {
	assert.Equal(t, Amount(499), NetGain(333, 2.5))
	assert.Equal(t, Amount(0), NetGain(100, 1.0))
}

func TestAbs(t *testing.T) {
	assert.Equal(t, Amount(5), Abs(-5))
	assert.Equal(t, Amount(5), Abs(5))
	assert.Equal(t, Amount(0), Abs(0))
}
