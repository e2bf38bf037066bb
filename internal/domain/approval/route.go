// Package approval holds the static position-based approval route table
// and the first-approver authorization check built on it.
package approval

import "github.com/garyjia/travel-voucher/internal/domain/entity"

// FinalApproverLabel is the display label of the second approval step
const FinalApproverLabel = "Fleet Manager"

// Route describes who approves a voucher submitted by a given position
type Route struct {
	FirstApprover             string
	SecondApprover            *string
	RequiredApproverPositions map[entity.Position]struct{}
	Tier                      int
	SkipSupervisorApproval    bool
}

// Permits reports whether position may perform the first approval on this route
func (r Route) Permits(position entity.Position) bool {
	_, ok := r.RequiredApproverPositions[position]
	return ok
}

// Positions returns the required approver positions in taxonomy order
func (r Route) Positions() []entity.Position {
	out := make([]entity.Position, 0, len(r.RequiredApproverPositions))
	for _, p := range entity.AllPositions() {
		if r.Permits(p) {
			out = append(out, p)
		}
	}
	return out
}

func positions(ps ...entity.Position) map[entity.Position]struct{} {
	set := make(map[entity.Position]struct{}, len(ps))
	for _, p := range ps {
		set[p] = struct{}{}
	}
	return set
}

func label(s string) *string {
	return &s
}

var routes = map[entity.Position]Route{
	entity.PositionFirstLevelInspector: {
		FirstApprover:  "Second Level Inspector or Supervisor",
		SecondApprover: label(FinalApproverLabel),
		RequiredApproverPositions: positions(
			entity.PositionSecondLevelInspector,
			entity.PositionFirstLineSupervisor,
			entity.PositionDistrictManager,
			entity.PositionDivisionManager,
		),
		Tier: 1,
	},
	entity.PositionSecondLevelInspector: {
		FirstApprover:  "First or Second Line Supervisor",
		SecondApprover: label(FinalApproverLabel),
		RequiredApproverPositions: positions(
			entity.PositionFirstLineSupervisor,
			entity.PositionSecondLineSupervisor,
			entity.PositionDistrictManager,
			entity.PositionDivisionManager,
		),
		Tier: 1,
	},
	entity.PositionFirstLineSupervisor: {
		FirstApprover:  "Second Line Supervisor or Manager",
		SecondApprover: label(FinalApproverLabel),
		RequiredApproverPositions: positions(
			entity.PositionSecondLineSupervisor,
			entity.PositionDistrictManager,
			entity.PositionDivisionManager,
		),
		Tier: 2,
	},
	entity.PositionSecondLineSupervisor: {
		FirstApprover:  "District or Division Manager",
		SecondApprover: label(FinalApproverLabel),
		RequiredApproverPositions: positions(
			entity.PositionDistrictManager,
			entity.PositionDivisionManager,
		),
		Tier: 3,
	},
	entity.PositionDistrictManager: {
		FirstApprover:  "Division Manager",
		SecondApprover: label(FinalApproverLabel),
		RequiredApproverPositions: positions(
			entity.PositionDivisionManager,
		),
		Tier: 3,
	},
	// Top tier goes straight to final approval.
	entity.PositionDivisionManager: {
		FirstApprover:             FinalApproverLabel,
		SecondApprover:            nil,
		RequiredApproverPositions: positions(),
		Tier:                      4,
		SkipSupervisorApproval:    true,
	},
}

// DefaultRoute is used for positions missing from the table. Any
// supervisory position may approve.
var DefaultRoute = Route{
	FirstApprover:  "Supervisor",
	SecondApprover: label(FinalApproverLabel),
	RequiredApproverPositions: positions(
		entity.PositionSecondLevelInspector,
		entity.PositionFirstLineSupervisor,
		entity.PositionSecondLineSupervisor,
		entity.PositionDistrictManager,
		entity.PositionDivisionManager,
	),
	Tier: 1,
}

// RouteFor returns the route for a claimant position, falling back to DefaultRoute
func RouteFor(claimant entity.Position) Route {
	if r, ok := routes[claimant]; ok {
		return r
	}
	return DefaultRoute
}

// Authorize reports whether an approver holding approverPosition may perform
// the first approval on a voucher submitted by claimantPosition.
func Authorize(claimantPosition, approverPosition entity.Position) bool {
	return RouteFor(claimantPosition).Permits(approverPosition)
}
