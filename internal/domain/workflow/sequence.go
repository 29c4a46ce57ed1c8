package workflow

import (
	"fmt"
	"sort"

	"github.com/garyjia/case-tracker/internal/domain/entity"
)

// RoleSequence is the ordered, non-empty list of roles a case moves through
type RoleSequence struct {
	ids []string
}

// NewRoleSequence validates ids and returns the sequence
func NewRoleSequence(ids []string) (*RoleSequence, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("roles: %w", ErrEmptySequence)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("roles: %w: empty role id", ErrEmptySequence)
		}
		if seen[id] {
			return nil, fmt.Errorf("roles: %w: %s", ErrDuplicateEntry, id)
		}
		seen[id] = true
	}
	return &RoleSequence{ids: append([]string(nil), ids...)}, nil
}

// First returns the role a new case starts with
func (s *RoleSequence) First() string {
	return s.ids[0]
}

func (s *RoleSequence) Contains(id string) bool {
	return s.indexOf(id) >= 0
}

// After returns the role following current. The last role stays where it is.
func (s *RoleSequence) After(current string) (string, error) {
	i := s.indexOf(current)
	if i < 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownRole, current)
	}
	if i == len(s.ids)-1 {
		return current, nil
	}
	return s.ids[i+1], nil
}

func (s *RoleSequence) IDs() []string {
	return append([]string(nil), s.ids...)
}

func (s *RoleSequence) indexOf(id string) int {
	for i, v := range s.ids {
		if v == id {
			return i
		}
	}
	return -1
}

// StageSequence is a template's stages sorted by their order value.
// Exactly one stage is first and at least one is last.
type StageSequence struct {
	stages []*entity.ApprovalStage
	first  *entity.ApprovalStage
}

// NewStageSequence validates stages and returns them sorted
func NewStageSequence(stages []*entity.ApprovalStage) (*StageSequence, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("stages: %w", ErrEmptySequence)
	}

	sorted := append([]*entity.ApprovalStage(nil), stages...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	var first *entity.ApprovalStage
	hasLast := false
	for i, st := range sorted {
		if i > 0 && sorted[i-1].Order == st.Order {
			return nil, fmt.Errorf("stages: %w: order %d", ErrDuplicateEntry, st.Order)
		}
		if st.IsFirst {
			if first != nil {
				return nil, fmt.Errorf("stages: %w", ErrNoFirstStage)
			}
			first = st
		}
		if st.IsLast {
			hasLast = true
		}
	}
	if first == nil {
		return nil, fmt.Errorf("stages: %w", ErrNoFirstStage)
	}
	if !hasLast {
		return nil, fmt.Errorf("stages: %w", ErrNoLastStage)
	}

	return &StageSequence{stages: sorted, first: first}, nil
}

// First returns the stage flagged is_first
func (s *StageSequence) First() *entity.ApprovalStage {
	return s.first
}

// ByID finds a stage of this template
func (s *StageSequence) ByID(id string) (*entity.ApprovalStage, error) {
	for _, st := range s.stages {
		if st.ID == id {
			return st, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStage, id)
}

// Next returns the stage with the smallest order strictly greater than current's.
// ok is false when current is the highest ordered stage.
func (s *StageSequence) Next(current *entity.ApprovalStage) (next *entity.ApprovalStage, ok bool) {
	for _, st := range s.stages {
		if st.Order > current.Order {
			return st, true
		}
	}
	return nil, false
}

func (s *StageSequence) Stages() []*entity.ApprovalStage {
	return append([]*entity.ApprovalStage(nil), s.stages...)
}
