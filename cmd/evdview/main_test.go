package main

import (
	"math/rand"
	"testing"

	"github.com/andewx/evdvk"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSkippable(t *testing.T) {
	assert.True(t, skippable(nil))
	assert.True(t, skippable(errors.Wrap(evdvk.ErrTransientSurface, "acquire: out of date")))
	assert.False(t, skippable(errors.Wrap(evdvk.ErrAllocation, "submit")))
	assert.False(t, skippable(errors.Wrap(evdvk.ErrFrameSequence, "prepare draw")))
}

func TestHelixEvent(t *testing.T) {
	event := helixEvent(rand.New(rand.NewSource(1)), 1000)
	assert.Len(t, event, 5)
	for _, track := range event {
		assert.Len(t, track, 3*200)
	}
	assert.Len(t, helixEvent(rand.New(rand.NewSource(1)), 10), 1)
}
