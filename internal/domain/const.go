package domain

// Context key under which the auth middleware stores the resolved Identity.
const IdentityCtxKey = "tsudoi-identity"

// Credential presentation channels. Each carries "<prefix> <token>"; the
// chosen channel decides which workflow consumes the token, verification
// itself is channel-agnostic.
const (
	HeaderAuthorization = "Authorization"
	HeaderActivation    = "Activation"
	HeaderRecovery      = "Recovery"
	HeaderInvitation    = "Invitation"
)

// Membership event types published on the signal channel.
const (
	EventGroupJoin  = "group.join"
	EventGroupLeave = "group.leave"
	EventGroupKick  = "group.kick"
)
