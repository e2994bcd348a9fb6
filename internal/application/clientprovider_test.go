package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientProvider_ReplaceAndClear(t *testing.T) {
	p := NewClientProvider(nil, "")
	assert.False(t, p.HasClient())
	assert.Nil(t, p.Get())

	gh := &fakeGitHub{}
	p.Replace(gh, "alice")
	assert.True(t, p.HasClient())
	assert.Equal(t, "alice", p.Login())

	p.Replace(nil, "")
	assert.False(t, p.HasClient())
	assert.Equal(t, "", p.Login())
}
