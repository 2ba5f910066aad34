package controller

import "errors"

var (
	// ErrUnknownQuestion is returned when an answer targets an id that is not a Question.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrUnknownOption is returned when the chosen option is not offered by the question.
	ErrUnknownOption = errors.New("unknown option")
	// ErrNotLeadCapture is returned when contact info is submitted outside a lead capture step.
	ErrNotLeadCapture = errors.New("current step is not a lead capture step")
	// ErrEditing is returned for navigation intents while the run is frozen for editing.
	ErrEditing = errors.New("run is frozen for editing")
	// ErrInvalidIntent is returned when an intent does not apply to the current phase or step.
	ErrInvalidIntent = errors.New("intent not allowed in current state")
	// ErrInvalidContact is returned when contact info fails validation.
	ErrInvalidContact = errors.New("invalid contact info")
)
