package event

var typeToName = map[EventType]string{
	EventNone:                  "None",
	EventColliderChanged:       "ColliderChanged",
	EventColliderDeleted:       "ColliderDeleted",
	EventCollisionStarted:      "CollisionStarted",
	EventCollisionPersisted:    "CollisionPersisted",
	EventCollisionEnded:        "CollisionEnded",
	EventBodyAwake:             "BodyAwake",
	EventBodySleep:             "BodySleep",
	EventBodyStopped:           "BodyStopped",
	EventAnimationStarted:      "AnimationStarted",
	EventAnimationFrameChanged: "AnimationFrameChanged",
	EventAnimationCompleted:    "AnimationCompleted",
	EventCharSetMoved:          "CharSetMoved",
	EventCharSetReleased:       "CharSetReleased",
	EventTextureRewritten:      "TextureRewritten",
	EventResourceExhausted:     "ResourceExhausted",
	EventStateEntered:          "StateEntered",
	EventStateExited:           "StateExited",
	EventEntitySpawned:         "EntitySpawned",
	EventEntityDestroyed:       "EntityDestroyed",
	EventEntityExpired:         "EntityExpired",
	EventFrameTimingViolation:  "FrameTimingViolation",
}

var nameToType = func() map[string]EventType {
	m := make(map[string]EventType, len(typeToName))
	for t, n := range typeToName {
		m[n] = t
	}
	return m
}()

// String returns the registered name
func (t EventType) String() string {
	if n, ok := typeToName[t]; ok {
		return n
	}
	return "Unknown"
}

// GetEventType returns the EventType for a registered name
func GetEventType(name string) (EventType, bool) {
	et, ok := nameToType[name]
	return et, ok
}
