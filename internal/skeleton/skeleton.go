package skeleton

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateJoint = errors.New("skeleton: duplicate joint name")
	ErrUnknownParent  = errors.New("skeleton: unknown parent joint")
	ErrEmptyName      = errors.New("skeleton: empty joint name")
)

// Skeleton holds joints in insertion order. A parent is always added before its
// children, so a single forward pass visits every joint after its parent.
type Skeleton struct {
	Name   string
	joints []*Joint
	byName map[string]*Joint
}

func New(name string) *Skeleton {
	return &Skeleton{
		Name:   name,
		joints: make([]*Joint, 0),
		byName: make(map[string]*Joint),
	}
}

// AddJoint appends a joint under parent ("" for a root).
func (s *Skeleton) AddJoint(name, parent string, local Transform, bone bool) (*Joint, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, exists := s.byName[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateJoint, name)
	}

	j := newJoint(name, local, bone)
	if parent != "" {
		p, ok := s.byName[parent]
		if !ok {
			return nil, fmt.Errorf("%w: %q (child %q)", ErrUnknownParent, parent, name)
		}
		j.Parent = p
		p.Children = append(p.Children, j)
	}

	j.index = len(s.joints)
	s.joints = append(s.joints, j)
	s.byName[name] = j
	j.world = j.WorldPose()
	return j, nil
}

// Root returns the first joint added, or nil for an empty skeleton.
func (s *Skeleton) Root() *Joint {
	if s == nil || len(s.joints) == 0 {
		return nil
	}
	return s.joints[0]
}

func (s *Skeleton) Joints() []*Joint {
	return s.joints
}

func (s *Skeleton) Len() int {
	if s == nil {
		return 0
	}
	return len(s.joints)
}

func (s *Skeleton) FindByName(name string) *Joint {
	return s.byName[name]
}

// FindBySuffix returns the first joint whose name ends with suffix, case-insensitive.
// Rigs exported with a prefix ("mixamorig:LeftFoot") still match "LeftFoot".
func (s *Skeleton) FindBySuffix(suffix string) *Joint {
	if j := s.byName[suffix]; j != nil {
		return j
	}
	lower := strings.ToLower(suffix)
	for _, j := range s.joints {
		if strings.HasSuffix(strings.ToLower(j.Name), lower) {
			return j
		}
	}
	return nil
}

// UpdateWorld refreshes every joint's cached world pose in one ordered pass.
func (s *Skeleton) UpdateWorld() {
	for _, j := range s.joints {
		if j.Parent == nil {
			j.world = compose(rootPose(), j.Local)
			continue
		}
		j.world = compose(j.Parent.world, j.Local)
	}
}
