package health

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHumanErr(t *testing.T) {
	err := NewHumanErr("Could not save notes.txt.", "save_failed", "path", "notes.txt")
	assert.Equal(t, "Could not save notes.txt.", err.Error())
	assert.Equal(t, "save_failed[path=notes.txt]", err.(*HumanErr).HealthErr.Error())
}

func TestWrapHumanKeepsCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := WrapHuman("Could not save.", "save_failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Could not save.", err.Error())
}

func TestHumanMessage(t *testing.T) {
	assert.Equal(t, "", HumanMessage(nil))
	assert.Equal(t, "plain", HumanMessage(errors.New("plain")))

	human := NewHumanErr("Friendly.", "internal")
	assert.Equal(t, "Friendly.", HumanMessage(fmt.Errorf("outer: %w", human)))
}
