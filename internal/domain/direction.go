package domain

import "fmt"

// Direction selects which side of the call audio a fork relays.
type Direction int

const (
	DirectionBoth Direction = iota
	DirectionIn
	DirectionOut
)

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "in":
		return DirectionIn, nil
	case "out":
		return DirectionOut, nil
	case "both", "":
		return DirectionBoth, nil
	}
	return DirectionBoth, fmt.Errorf("%w: direction %q", ErrInvalidArgument, s)
}

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	}
	return "both"
}

// MuteDirection addresses the mute flags from the management surface.
type MuteDirection int

const (
	MuteRead MuteDirection = iota
	MuteWrite
	MuteBoth
)

func ParseMuteDirection(s string) (MuteDirection, error) {
	switch s {
	case "read":
		return MuteRead, nil
	case "write":
		return MuteWrite, nil
	case "both":
		return MuteBoth, nil
	}
	return MuteBoth, fmt.Errorf("%w: mute direction %q, must be read, write or both", ErrInvalidArgument, s)
}
