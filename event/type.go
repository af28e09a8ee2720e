package event

// EventType represents the type of engine event
type EventType int

const (
	// EventNone is never fired
	EventNone EventType = iota

	// === Collision ===

	// EventColliderChanged signals enable/disable or layer mask change
	// Trigger: collision.Collider setters | Payload: *collision.Collider
	EventColliderChanged

	// EventColliderDeleted signals collider destruction
	// Trigger: collision.Manager.Destroy | Payload: *collision.Collider
	EventColliderDeleted

	// EventCollisionStarted signals a new contact between two colliders
	// Trigger: collision.Manager.Update | Payload: collision.CollisionInformation
	EventCollisionStarted

	// EventCollisionPersisted signals a contact present in consecutive frames
	// Trigger: collision.Manager.Update | Payload: collision.CollisionInformation
	EventCollisionPersisted

	// EventCollisionEnded signals a contact that no longer overlaps
	// Trigger: collision.Manager.Update, Destroy | Payload: collision.CollisionInformation
	EventCollisionEnded

	// === Physics ===

	// EventBodyAwake signals Asleep->Awake
	// Trigger: physics.World.Update | Payload: *physics.Body
	EventBodyAwake

	// EventBodySleep signals Awake->Asleep
	// Trigger: physics.World.Update | Payload: *physics.Body
	EventBodySleep

	// EventBodyStopped signals axes whose velocity reached zero this step
	// Trigger: physics.World.Update | Payload: physics.StopPayload
	EventBodyStopped

	// === Animation ===

	// EventAnimationStarted signals playback of a function began
	// Trigger: animation.Controller.Play | Payload: *animation.Controller
	EventAnimationStarted

	// EventAnimationFrameChanged signals a new frame was selected
	// Trigger: animation.Controller.Update | Payload: *animation.Controller
	EventAnimationFrameChanged

	// EventAnimationCompleted signals a non-looping function reached its last frame
	// Trigger: animation.Controller.Update | Payload: *animation.Controller
	EventAnimationCompleted

	// === Graphics memory ===

	// EventCharSetMoved signals a charset changed tile offset during defragmentation
	// Trigger: charset.Manager.Defragment | Payload: *charset.CharSet
	EventCharSetMoved

	// EventCharSetReleased signals a charset returned its tiles
	// Trigger: charset.Manager.Release | Payload: *charset.CharSet
	EventCharSetReleased

	// EventTextureRewritten signals a texture's map is fully written
	// Trigger: texture.Manager.WriteTextures | Payload: *texture.Texture
	EventTextureRewritten

	// EventResourceExhausted signals an allocation failure in a fixed budget
	// Trigger: charset, texture, sprite managers | Payload: error
	EventResourceExhausted

	// === Engine ===

	// EventStateEntered signals a game state became active
	// Trigger: engine.StateMachine | Payload: string (state name)
	EventStateEntered

	// EventStateExited signals a game state left the stack
	// Trigger: engine.StateMachine | Payload: string (state name)
	EventStateExited

	// EventEntitySpawned signals an entity finished construction
	// Trigger: engine.Stage.SpawnEntity | Payload: *engine.Entity
	EventEntitySpawned

	// EventEntityDestroyed signals an entity was removed
	// Trigger: engine.Stage.DestroyEntity | Payload: *engine.Entity
	EventEntityDestroyed

	// EventEntityExpired requests removal of an entity whose lifetime ran out
	// Trigger: engine.Stage.Expire through the delayed queue | Payload: *engine.Entity
	EventEntityExpired

	// EventFrameTimingViolation signals a per-frame write budget overrun
	// Trigger: engine frame loop | Payload: error
	EventFrameTimingViolation

	eventTypeCount
)
