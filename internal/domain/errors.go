package domain

import "errors"

var (
	// ErrUnassociatedSensor indicates a sensor entity ID that could not
	// be mapped to any reading category. This is a configuration error
	// and is surfaced to the caller.
	ErrUnassociatedSensor = errors.New("cannot extract reading from sensor")

	// ErrPlantNotFound indicates the requested plant doesn't exist
	ErrPlantNotFound = errors.New("plant not found")
)
