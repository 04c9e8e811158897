package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	Room            Category = "Room"
	Socket          Category = "Socket"
	Events          Category = "Events"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	ExternalService SubCategory = "ExternalService"

	// Room
	Create  SubCategory = "Create"
	Join    SubCategory = "Join"
	Leave   SubCategory = "Leave"
	Cleanup SubCategory = "Cleanup"
	Send    SubCategory = "Send"

	// Socket
	Connect    SubCategory = "Connect"
	Disconnect SubCategory = "Disconnect"
	Decode     SubCategory = "Decode"
	Write      SubCategory = "Write"

	Publish SubCategory = "Publish"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	ErrorMessage ExtraKey = "ErrorMessage"
	RoomID       ExtraKey = "RoomId"
	ConnectionID ExtraKey = "ConnectionId"
	Username     ExtraKey = "Username"
	MemberCount  ExtraKey = "MemberCount"
	Reason       ExtraKey = "Reason"
	EventType    ExtraKey = "EventType"
)
