package memory

// Block tags identify the owning subsystem in pool bookkeeping
const (
	TagNone uint32 = iota
	TagCollider
	TagBody
	TagCharSet
	TagTexture
	TagSprite
	TagAnimation
	TagEntity
	TagEvent
)

var tagNames = [...]string{"none", "collider", "body", "charset", "texture", "sprite", "animation", "entity", "event"}

// TagName returns a readable name for known tags
func TagName(tag uint32) string {
	if int(tag) < len(tagNames) {
		return tagNames[tag]
	}
	return "unknown"
}
