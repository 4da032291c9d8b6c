package model

// Identity is an authenticated principal: a connected client or the world's own scheduler.
type Identity string

// Entity is anything spawned into the world. It refers to its transform by id only.
type Entity struct {
	ID          uint32
	TransformID uint32
}

// Character is the durable record of a player's presence. Its transform outlives the
// entity so that leaving and re-entering resumes at the last position.
type Character struct {
	ID          uint32
	Identity    Identity
	TransformID uint32
}

// CharacterPawn links an identity to the entity it controls while in the world.
type CharacterPawn struct {
	ID          uint32
	Identity    Identity
	EntityID    uint32
	CharacterID uint32
}
