package physics

import (
	"strings"

	"rigsim/internal/geom"
	"rigsim/internal/skeleton"

	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

// BoneCategory groups bones by body region for radius selection.
type BoneCategory int

const (
	CategoryOther BoneCategory = iota
	CategoryTorso
	CategoryArm
	CategoryLeg
	CategoryShoulder
	CategoryHips
)

func (c BoneCategory) String() string {
	switch c {
	case CategoryTorso:
		return "torso"
	case CategoryArm:
		return "arm"
	case CategoryLeg:
		return "leg"
	case CategoryShoulder:
		return "shoulder"
	case CategoryHips:
		return "hips"
	default:
		return "other"
	}
}

type radiusRule struct {
	category  BoneCategory
	keywords  []string
	minRadius float32
	factor    float32 // fraction of bone length
}

// Checked in order, first keyword hit wins
var radiusRules = []radiusRule{
	{CategoryTorso, []string{"spine", "chest", "torso", "neck", "head"}, 0.03, 0.12},
	{CategoryArm, []string{"arm", "forearm", "hand"}, 0.025, 0.08},
	{CategoryLeg, []string{"leg", "upleg", "foot"}, 0.035, 0.15},
	{CategoryShoulder, []string{"shoulder", "clavicle"}, 0.03, 0.18},
	{CategoryHips, []string{"hips", "pelvis"}, 0.05, 0.20},
}

var otherRule = radiusRule{category: CategoryOther, minRadius: 0.02, factor: 0.08}

// Scale factors outside this range are clamped
const (
	minScaleFactor = 0.5
	maxScaleFactor = 2.0
)

func ruleFor(name string) radiusRule {
	lower := strings.ToLower(name)
	for _, rule := range radiusRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule
			}
		}
	}
	return otherRule
}

// CategorizeBone returns the body region a bone name belongs to.
func CategorizeBone(name string) BoneCategory {
	return ruleFor(name).category
}

// BoneRadius returns the capsule radius for a bone before the global multiplier.
func BoneRadius(name string, length float32, scale rl.Vector3) float32 {
	rule := ruleFor(name)
	radius := rule.factor * length
	if radius < rule.minRadius {
		radius = rule.minRadius
	}
	avg := geom.Clamp((scale.X+scale.Y+scale.Z)/3, minScaleFactor, maxScaleFactor)
	return radius * avg
}

// BoneCapsule is the capsule around one parent-child bone link.
type BoneCapsule struct {
	geom.Capsule
	Parent   *skeleton.Joint
	Child    *skeleton.Joint
	Category BoneCategory

	baseRadius float32
}

// CapsuleSet is the collision proxy for a skeleton, one capsule per bone link.
type CapsuleSet struct {
	skeleton   *skeleton.Skeleton
	multiplier float32
	links      []BoneCapsule
	log        *zap.Logger
}

// BuildCapsules derives capsules from the skeleton's current pose.
func BuildCapsules(sk *skeleton.Skeleton, multiplier float32, logger *zap.Logger) *CapsuleSet {
	if logger == nil {
		logger = zap.NewNop()
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	cs := &CapsuleSet{
		skeleton:   sk,
		multiplier: multiplier,
		log:        logger,
	}
	cs.Rebuild()
	return cs
}

// Rebuild recreates every capsule. Only needed when the rig structure changes;
// use Refresh to follow a moving pose.
func (cs *CapsuleSet) Rebuild() {
	cs.links = cs.links[:0]
	if cs.skeleton == nil {
		return
	}

	skipped := 0
	for _, parent := range cs.skeleton.Joints() {
		if !parent.Bone {
			continue
		}
		parentPose := parent.WorldPose()
		for _, child := range parent.Children {
			if !child.Bone {
				continue
			}
			end := child.WorldPosition()
			length := rl.Vector3Distance(parentPose.Position, end)
			if length < geom.Epsilon {
				skipped++
				continue
			}
			base := BoneRadius(parent.Name, length, parentPose.Scale)
			cs.links = append(cs.links, BoneCapsule{
				Capsule: geom.Capsule{
					Start:  parentPose.Position,
					End:    end,
					Radius: base * cs.multiplier,
				},
				Parent:     parent,
				Child:      child,
				Category:   CategorizeBone(parent.Name),
				baseRadius: base,
			})
		}
	}

	cs.log.Debug("built bone capsules",
		zap.String("skeleton", cs.skeleton.Name),
		zap.Int("capsules", len(cs.links)),
		zap.Int("skipped", skipped),
		zap.Float32("multiplier", cs.multiplier))
}

// Refresh moves every capsule's endpoints to the joints' live world positions.
func (cs *CapsuleSet) Refresh() {
	for i := range cs.links {
		link := &cs.links[i]
		link.Start = link.Parent.WorldPosition()
		link.End = link.Child.WorldPosition()
	}
}

// Links returns the capsules with their joints, as of the last Refresh.
func (cs *CapsuleSet) Links() []BoneCapsule {
	return cs.links
}

// Capsules refreshes and returns a copy of the current capsule geometry.
func (cs *CapsuleSet) Capsules() []geom.Capsule {
	cs.Refresh()
	out := make([]geom.Capsule, len(cs.links))
	for i, link := range cs.links {
		out[i] = link.Capsule
	}
	return out
}

func (cs *CapsuleSet) Len() int {
	return len(cs.links)
}

func (cs *CapsuleSet) Multiplier() float32 {
	return cs.multiplier
}

// SetMultiplier rescales every radius without rebuilding.
func (cs *CapsuleSet) SetMultiplier(m float32) {
	if m <= 0 {
		return
	}
	cs.multiplier = m
	for i := range cs.links {
		cs.links[i].Radius = cs.links[i].baseRadius * m
	}
}
