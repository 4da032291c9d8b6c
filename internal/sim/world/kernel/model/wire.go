package model

import "fmt"

// IntentToWire flattens an intent into the kind/path/target triple used by the wire
// protocol, snapshots and the tick log.
func IntentToWire(in MoveIntent) (kind string, path [][3]float64, target uint32) {
	switch it := in.(type) {
	case PathIntent:
		path = make([][3]float64, len(it.Waypoints))
		for i, wp := range it.Waypoints {
			path[i] = wp.Array()
		}
		return string(IntentPath), path, 0
	case ChaseIntent:
		return string(IntentChase), nil, it.Target
	default:
		return "", nil, 0
	}
}

// IntentFromWire is the inverse of IntentToWire. Values are not range-checked here.
func IntentFromWire(kind string, path [][3]float64, target uint32) (MoveIntent, error) {
	switch IntentKind(kind) {
	case IntentPath:
		wps := make([]Vec3, len(path))
		for i, p := range path {
			wps[i] = Vec3FromArray(p)
		}
		return PathIntent{Waypoints: wps}, nil
	case IntentChase:
		return ChaseIntent{Target: target}, nil
	default:
		return nil, fmt.Errorf("unknown intent kind %q", kind)
	}
}
