package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemble_Empty(t *testing.T) {
	assert.Equal(t, "", Assemble(nil, nil))
}

func TestAssemble_SingleAnswerReturnedVerbatim(t *testing.T) {
	got := Assemble([]string{"what is A?"}, []string{"A is a thing."})
	assert.Equal(t, "A is a thing.", got)
}

func TestAssemble_PreservesOriginalOrder(t *testing.T) {
	subs := []string{"what is A?", "what is B?", "what is C?"}
	answers := []string{"answer A", "answer B", "answer C"}

	got := Assemble(subs, answers)

	want := "what is A?\nanswer A\n\nwhat is B?\nanswer B\n\nwhat is C?\nanswer C"
	assert.Equal(t, want, got)
}
