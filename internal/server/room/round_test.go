package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJudgeBeforeArm(t *testing.T) {
	e := NewEngine(1500, 5500, 1000)
	rnd := &Round{Phase: PhaseIdle}

	outcome, early := e.Judge(rnd, 123456)
	assert.True(t, early)
	assert.Equal(t, int64(1000), outcome)
}

// TestJudgeBackdatedAction covers the second false-start branch: the
// phase already flipped to armed, but the action's server timestamp
// predates the arming instant.
func TestJudgeBackdatedAction(t *testing.T) {
	e := NewEngine(1500, 5500, 1000)
	rnd := &Round{Phase: PhaseArmed, ArmedAt: 8000}

	outcome, early := e.Judge(rnd, rnd.ArmedAt-1)
	assert.True(t, early)
	assert.Equal(t, int64(1000), outcome)
}

func TestJudgeAtAndAfterArm(t *testing.T) {
	e := NewEngine(1500, 5500, 1000)
	rnd := &Round{Phase: PhaseArmed, ArmedAt: 8000}

	// Acting exactly on the arming instant is a legal zero-latency hit.
	outcome, early := e.Judge(rnd, rnd.ArmedAt)
	assert.False(t, early)
	assert.Zero(t, outcome)

	outcome, early = e.Judge(rnd, rnd.ArmedAt+250)
	assert.False(t, early)
	assert.Equal(t, int64(250), outcome)
}

func TestArmDelayBounds(t *testing.T) {
	e := NewEngine(1500, 5500, 1000)
	for i := 0; i < 200; i++ {
		d := e.ArmDelay()
		assert.GreaterOrEqual(t, d, e.ArmDelayMin)
		assert.Less(t, d, e.ArmDelayMax)
	}
}

func TestArmDelayDegenerateSpan(t *testing.T) {
	e := NewEngine(3000, 3000, 1000)
	assert.Equal(t, 3000*time.Millisecond, e.ArmDelay())
}
