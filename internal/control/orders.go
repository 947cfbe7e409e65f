package control

import (
	"strings"

	"github.com/san-kum/robosim/internal/dynamo"
)

// OrderSet is the set of goals a robot is currently pursuing.
// GoXY and GoA may be active together; GoBack always wins over both.
type OrderSet struct {
	GoBack bool
	GoXY   bool
	GoA    bool

	TargetXY   dynamo.Vec2
	TargetA    float64
	TargetBack dynamo.Vec2
}

func (o OrderSet) Empty() bool {
	return !o.GoBack && !o.GoXY && !o.GoA
}

func (o *OrderSet) Clear() {
	o.GoBack, o.GoXY, o.GoA = false, false, false
}

func (o OrderSet) String() string {
	if o.Empty() {
		return "none"
	}
	parts := make([]string, 0, 3)
	if o.GoBack {
		parts = append(parts, "back")
	}
	if o.GoXY {
		parts = append(parts, "xy")
	}
	if o.GoA {
		parts = append(parts, "a")
	}
	return strings.Join(parts, "+")
}
