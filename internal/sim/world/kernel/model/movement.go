package model

// MoveIntent is the closed set of movement orders: PathIntent or ChaseIntent.
type MoveIntent interface {
	isMoveIntent()
	Kind() IntentKind
}

type IntentKind string

const (
	IntentPath  IntentKind = "PATH"
	IntentChase IntentKind = "CHASE"
)

// PathIntent visits Waypoints in order; reached waypoints are popped from the front.
type PathIntent struct {
	Waypoints []Vec3
}

// ChaseIntent approaches another entity. Target is a lookup key, not an owning reference.
type ChaseIntent struct {
	Target uint32
}

func (PathIntent) isMoveIntent()  {}
func (ChaseIntent) isMoveIntent() {}

func (PathIntent) Kind() IntentKind  { return IntentPath }
func (ChaseIntent) Kind() IntentKind { return IntentChase }

// EntityMovement is one row of the intent store, keyed by EntityID.
type EntityMovement struct {
	EntityID uint32
	Intent   MoveIntent
}

// CloneIntent returns a copy that shares no backing arrays with in.
func CloneIntent(in MoveIntent) MoveIntent {
	switch it := in.(type) {
	case PathIntent:
		wps := make([]Vec3, len(it.Waypoints))
		copy(wps, it.Waypoints)
		return PathIntent{Waypoints: wps}
	case ChaseIntent:
		return it
	default:
		return nil
	}
}
