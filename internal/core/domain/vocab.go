package domain

type Pose string

const (
	PoseFront Pose = "Front"
	PoseSide  Pose = "Side"
	PoseRear  Pose = "Rear"
)

// Poses is the closed camera-angle enumeration shared by every producer
// and consumer. Order matters: classifiers score candidates in this order.
var Poses = []Pose{PoseFront, PoseSide, PoseRear}

func IsPose(v string) bool {
	for _, p := range Poses {
		if string(p) == v {
			return true
		}
	}
	return false
}

// UnknownTag is the degraded-tagger sentinel. It is not a vocabulary member;
// downstream consumers must special-case it rather than treat it as a tag.
const UnknownTag = "Unknown"

// ShapeTags is the fixed 25-entry shape-descriptor vocabulary.
var ShapeTags = []string{
	"Round (Bubble)", "Heart-Shaped (A-frame)", "Square", "Inverted (V-shape)", "Natural BBL Look",
	"High-Riding Glutes", "Low-Set Glutes", "Hip-Dominant", "Thigh-Dominant", "Hamstring-Dominant",
	"Wide-Set Glutes", "Close-Set Glutes", "Compact & Toned", "Soft & Natural", "Muscle-Dominant",
	"Fat-Dominant", "Shelf Glutes", "Sloped Glutes", "Upper-Glute Emphasis", "Lower-Glute Emphasis",
	"Balanced (Proportionate)", "Peach Shape", "Mini BBL Look", "Deep Hip Dips", "Smooth Silhouette",
}

var shapeTagSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ShapeTags))
	for _, t := range ShapeTags {
		set[t] = struct{}{}
	}
	return set
}()

func IsShapeTag(v string) bool {
	_, ok := shapeTagSet[v]
	return ok
}
