package malamute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestAudioRing_PushPop(t *testing.T) {
	var rb = new(audio_ring_t)

	assert.Equal(t, uint32(0), rb.fill())

	var _, ok = rb.pop()
	assert.False(t, ok, "pop from empty ring should fail")

	assert.True(t, rb.push(stereo16_t{l: 1, r: 2}))
	assert.Equal(t, uint32(1), rb.fill())

	var s, ok2 = rb.pop()
	assert.True(t, ok2)
	assert.Equal(t, int16(1), s.l)
	assert.Equal(t, int16(2), s.r)
	assert.Equal(t, uint32(0), rb.fill())
}

func TestAudioRing_DropOnFull(t *testing.T) {
	var rb = new(audio_ring_t)

	// One slot stays unusable so full/empty are distinguishable.
	for i := 0; i < AUDIO_RB_FRAMES-1; i++ {
		assert.True(t, rb.push(stereo16_t{l: int16(i)}))
	}
	assert.Equal(t, uint32(AUDIO_RB_FRAMES-1), rb.fill())

	assert.False(t, rb.push(stereo16_t{l: 9999}), "push into full ring should drop")

	// The dropped frame must not have displaced anything.
	var s, ok = rb.pop()
	assert.True(t, ok)
	assert.Equal(t, int16(0), s.l)
}

func TestAudioRing_FIFOOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var rb = new(audio_ring_t)
		var in = rapid.SliceOfN(rapid.Int16(), 0, 100).Draw(t, "in")

		for _, v := range in {
			rb.push(stereo16_t{l: v, r: -v})
		}

		for i, want := range in {
			var s, ok = rb.pop()
			assert.True(t, ok, "frame %d missing", i)
			assert.Equal(t, want, s.l)
			assert.Equal(t, -want, s.r)
		}

		var _, ok = rb.pop()
		assert.False(t, ok)
	})
}
