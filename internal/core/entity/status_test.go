package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lotkeeper/internal/core/apperror"
)

var testMachine = StatusMachine{
	StatusDraft:    {StatusReceived, StatusCanceled},
	StatusReceived: {StatusApproved, StatusCanceled},
}

func TestStatusMachine_CanTransition(t *testing.T) {
	assert.True(t, testMachine.CanTransition(StatusDraft, StatusReceived))
	assert.True(t, testMachine.CanTransition(StatusReceived, StatusCanceled))
	assert.False(t, testMachine.CanTransition(StatusDraft, StatusApproved))
	assert.False(t, testMachine.CanTransition(StatusApproved, StatusDraft))
}

func TestStatusMachine_Terminal(t *testing.T) {
	assert.True(t, testMachine.IsTerminal(StatusApproved))
	assert.True(t, testMachine.IsTerminal(StatusCanceled))
	assert.False(t, testMachine.IsTerminal(StatusDraft))
}

func TestDocument_Transition(t *testing.T) {
	doc := NewDocument()
	require.Equal(t, StatusDraft, doc.Status)

	require.NoError(t, doc.Transition("TestDoc", testMachine, StatusReceived))
	assert.Equal(t, StatusReceived, doc.Status)

	err := doc.Transition("TestDoc", testMachine, StatusReceived)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestDocument_TransitionKeepsVersion(t *testing.T) {
	doc := NewDocument()
	loaded := doc.Version

	require.NoError(t, doc.Transition("TestDoc", testMachine, StatusReceived))

	// the repository bumps the version; an in-memory bump would break the
	// optimistic-lock predicate on update
	assert.Equal(t, loaded, doc.Version)
}

func TestDocument_TerminalRejectsReposting(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Transition("TestDoc", testMachine, StatusReceived))
	require.NoError(t, doc.Transition("TestDoc", testMachine, StatusApproved))

	err := doc.Transition("TestDoc", testMachine, StatusApproved)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidStateTransition))
}

func TestDocument_CanModify(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.CanModify())

	require.NoError(t, doc.Transition("TestDoc", testMachine, StatusReceived))
	require.Error(t, doc.CanModify())
}
