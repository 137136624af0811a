package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/graphrag/types"
)

func TestNextState_KnownTransitions(t *testing.T) {
	cases := []struct {
		state   State
		outcome Outcome
		want    State
	}{
		{StateRouting, OutcomeRouted, StateRetrieving},
		{StateRouting, OutcomeCompound, StateDecomposing},
		{StateDecomposing, OutcomeNotDecomposed, StateRetrieving},
		{StateRetrieving, OutcomeRetrieved, StateGradingDocuments},
		{StateGradingDocuments, OutcomeDocsRelevant, StateGenerating},
		{StateGradingDocuments, OutcomeDocsIrrelevant, StateRewriting},
		{StateGradingDocuments, OutcomeWebFallback, StateRetrieving},
		{StateGradingDocuments, OutcomeEvidenceExhausted, StateGenerating},
		{StateRewriting, OutcomeRewritten, StateRetrieving},
		{StateGenerating, OutcomeGenerated, StateGradingAnswer},
		{StateGradingAnswer, OutcomeAnswerAccepted, StateFinalized},
		{StateGradingAnswer, OutcomeNotGrounded, StateGenerating},
		{StateGradingAnswer, OutcomeNotAddressed, StateRewriting},
		{StateGradingAnswer, OutcomeGiveUp, StateFinalized},
	}

	for _, tc := range cases {
		got, err := nextState(tc.state, tc.outcome)
		require.NoError(t, err, "%s on %s", tc.state, tc.outcome)
		assert.Equal(t, tc.want, got, "%s on %s", tc.state, tc.outcome)
	}

	// 用例覆盖整张转换表
	assert.Equal(t, len(transitions), len(cases))
}

func TestNextState_InvalidTransition(t *testing.T) {
	_, err := nextState(StateRouting, OutcomeGenerated)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidTransition))

	_, err = nextState(StateFinalized, OutcomeRouted)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidTransition))
}
