package orchestrator

import "testing"

func TestTerminalStates(t *testing.T) {
	for _, s := range []State{StateDone, StateFailed, StateCancelled} {
		if !s.terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
}

func TestNonTerminalStates(t *testing.T) {
	for _, s := range []State{StateInit, StateIngesting, StateTranscribing, StateSceneDetecting, StateWindowing, StateFeaturizing, StateGrading, StateRanking, StatePlanning, StateRendering} {
		if s.terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}
