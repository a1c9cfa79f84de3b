package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusClassification(t *testing.T) {
	assert.False(t, OK.Fatal())
	assert.False(t, Incomplete.Fatal())
	assert.False(t, NoData.Fatal())
	assert.True(t, BadSeq.Fatal())
	assert.True(t, OverLimit.Fatal())
	assert.True(t, Interrupt.Fatal())

	assert.True(t, OK.Done())
	assert.False(t, Incomplete.Done())
	assert.True(t, BadData.Done())

	assert.Equal(t, "overlimit", OverLimit.String())
	assert.Equal(t, "unknown", ParseStatus(999).String())
}

func TestStatusErrBridge(t *testing.T) {
	assert.NoError(t, OK.Err())
	assert.EqualError(t, BadSeq.Err(), "parse: badseq")
	// fixed sentinel per status value
	assert.ErrorIs(t, BadSeq.Err(), BadSeq.Err())
	assert.NotErrorIs(t, BadSeq.Err(), BadChar.Err())
}
