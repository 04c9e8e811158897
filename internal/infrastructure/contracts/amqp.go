package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	RoomID string `json:"roomId"`
	Data   []byte `json:"data"`
}
