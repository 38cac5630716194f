package aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSesSource(t *testing.T) {
	assert.Equal(t, "no-reply@vrober.com", sesSource("no-reply@vrober.com", ""))
	assert.Equal(t, "Vrober <no-reply@vrober.com>", sesSource("no-reply@vrober.com", "Vrober"))
}
