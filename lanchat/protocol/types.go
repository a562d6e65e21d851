package protocol

type MessageType uint8

const (
	MessageTypeHandshake MessageType = 1
	MessageTypeChat      MessageType = 2
	MessageTypeAck       MessageType = 3
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeHandshake:
		return "HANDSHAKE"
	case MessageTypeChat:
		return "CHAT"
	case MessageTypeAck:
		return "ACK"
	default:
		return "UNKNOWN"
	}
}

// tag is the JSON key of the variant.
func (t MessageType) tag() string {
	switch t {
	case MessageTypeHandshake:
		return "handshake"
	case MessageTypeChat:
		return "chat"
	case MessageTypeAck:
		return "ack"
	default:
		return ""
	}
}
