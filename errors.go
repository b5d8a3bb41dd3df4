package main

import "errors"

// Graph mutation errors. All of them are non-fatal: the insertion is rejected
// and the graph is left untouched.
var (
	ErrDuplicateID      = errors.New("graph: duplicate id")
	ErrUnknownEndpoint  = errors.New("graph: edge endpoint not found")
	ErrCapacityExceeded = errors.New("graph: capacity exceeded")
	ErrNegativeDistance = errors.New("graph: edge distance must be non-negative")
	ErrInvalidDistance  = errors.New("graph: edge distance must be finite")
	ErrInvalidPosition  = errors.New("graph: node coordinates must be finite")
	ErrUnknownArea      = errors.New("graph: area not found")
)

// Planning errors.
var (
	// ErrNotFound means an area could not be resolved or no route connects
	// the two areas. Callers fall back to a "no safe route" state.
	ErrNotFound = errors.New("planner: no route found")

	// ErrSearchAborted is returned when a search hits its iteration budget or
	// its context is done before the goal is selected.
	ErrSearchAborted = errors.New("planner: search aborted")
)

// Map loading errors.
var (
	ErrMalformedMapLine = errors.New("map: malformed line")
	ErrMissingHeader    = errors.New("map: missing NODES header")
)
