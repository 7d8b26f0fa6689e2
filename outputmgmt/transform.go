package outputmgmt

import (
	"fmt"
	"strings"
)

// Transform is a wl_output.transform value.
type Transform int32

const (
	TransformNormal     Transform = 0
	Transform90         Transform = 1
	Transform180        Transform = 2
	Transform270        Transform = 3
	TransformFlipped    Transform = 4
	TransformFlipped90  Transform = 5
	TransformFlipped180 Transform = 6
	TransformFlipped270 Transform = 7
)

var transformNames = [...]string{
	TransformNormal:     "normal",
	Transform90:         "90",
	Transform180:        "180",
	Transform270:        "270",
	TransformFlipped:    "flipped",
	TransformFlipped90:  "flipped-90",
	TransformFlipped180: "flipped-180",
	TransformFlipped270: "flipped-270",
}

var transformAliases = map[string]Transform{
	"0":     TransformNormal,
	"none":  TransformNormal,
	"rot90": Transform90, "90deg": Transform90, "left": Transform90,
	"rot180": Transform180, "180deg": Transform180, "inverted": Transform180,
	"rot270": Transform270, "270deg": Transform270, "right": Transform270,
	"flip":    TransformFlipped,
	"flip-90": TransformFlipped90, "flipped90": TransformFlipped90,
	"flip-180": TransformFlipped180, "flipped180": TransformFlipped180,
	"flip-270": TransformFlipped270, "flipped270": TransformFlipped270,
}

// Valid reports whether t is one of the eight defined transforms.
func (t Transform) Valid() bool {
	return t >= TransformNormal && t <= TransformFlipped270
}

func (t Transform) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Transform(%d)", int32(t))
	}
	return transformNames[t]
}

// ParseTransform accepts the canonical names printed by String and a few
// common aliases, case insensitively.
func ParseTransform(s string) (Transform, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range transformNames {
		if key == name {
			return Transform(i), nil
		}
	}
	if t, ok := transformAliases[key]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("invalid transform %q: want one of %s", s,
		strings.Join(transformNames[:], ", "))
}
