package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress("Importing", 20)
	p.out = &buf

	for i := 0; i <= 20; i++ {
		p.Update(i)
	}
	p.Done()

	assert.Equal(t,
		"Importing: 0% (0 of 20)\n"+
			"Importing: 10% (2 of 20)\n"+
			"Importing: 20% (4 of 20)\n"+
			"Importing: 30% (6 of 20)\n"+
			"Importing: 40% (8 of 20)\n"+
			"Importing: 50% (10 of 20)\n"+
			"Importing: 60% (12 of 20)\n"+
			"Importing: 70% (14 of 20)\n"+
			"Importing: 80% (16 of 20)\n"+
			"Importing: 90% (18 of 20)\n"+
			"Importing: 100% (20 of 20)\n",
		buf.String())
}

func TestProgressEmptyTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress("Importing", 0)
	p.out = &buf
	p.Update(0)
	p.Done()
	assert.Empty(t, buf.String())
}

func TestSpinnerSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := NewSpinner("Loading")
	s.out = &buf
	s.Start()
	s.Stop()
	s.Stop()
	assert.Empty(t, buf.String())
}
