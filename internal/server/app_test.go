package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHTTPS(t *testing.T) {
	assert.True(t, isHTTPS("https://store.example"))
	assert.True(t, isHTTPS("HTTPS://store.example"))
	assert.False(t, isHTTPS("http://localhost:5000"))
	assert.False(t, isHTTPS(""))
}
