package ws

// Inbound
const (
	RoomJoin     = "room.join"
	RoomLeave    = "room.leave"
	MessageSend  = "message.send"
	MemberTyping = "member.typing"
)

// Outbound
const (
	RoomJoined      = "room.joined"
	RoomLeft        = "room.left"
	MemberJoined    = "member.joined"
	MemberLeft      = "member.left"
	MessageReceived = "message.received"

	ErrorEvent = "error"
	JoinFailed = "error.join"
)
