package entity

// Position is an organizational role used for approval routing.
// It is unrelated to the coarse system role carried by the caller.
type Position string

const (
	PositionFirstLevelInspector  Position = "first-level-inspector"
	PositionSecondLevelInspector Position = "second-level-inspector"
	PositionFirstLineSupervisor  Position = "first-line-supervisor"
	PositionSecondLineSupervisor Position = "second-line-supervisor"
	PositionDistrictManager      Position = "district-manager"
	PositionDivisionManager      Position = "division-manager"
)

var validPositions = map[Position]bool{
	PositionFirstLevelInspector:  true,
	PositionSecondLevelInspector: true,
	PositionFirstLineSupervisor:  true,
	PositionSecondLineSupervisor: true,
	PositionDistrictManager:      true,
	PositionDivisionManager:      true,
}

// AllPositions returns the taxonomy in ascending order of seniority
func AllPositions() []Position {
	return []Position{
		PositionFirstLevelInspector,
		PositionSecondLevelInspector,
		PositionFirstLineSupervisor,
		PositionSecondLineSupervisor,
		PositionDistrictManager,
		PositionDivisionManager,
	}
}

// String returns the string representation of the position
func (p Position) String() string {
	return string(p)
}

// IsSet reports whether a position has been assigned
func (p Position) IsSet() bool {
	return p != ""
}

// IsValid returns true if the position belongs to the taxonomy
func (p Position) IsValid() bool {
	return validPositions[p]
}
