package packet

import "fmt"

// State is the protocol phase a connection is in. Packet IDs are only
// meaningful together with a State and a Direction.
type State int

const (
	Handshaking State = iota
	Status
	Login
	Play
)

func (s State) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Status:
		return "status"
	case Login:
		return "login"
	case Play:
		return "play"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Direction tells which peer sends a packet.
type Direction int

const (
	Serverbound Direction = iota
	Clientbound
)

func (d Direction) String() string {
	if d == Clientbound {
		return "clientbound"
	}
	return "serverbound"
}

// Next-state values carried by Handshake.
const (
	NextStateStatus int32 = 1
	NextStateLogin  int32 = 2
)

// ProtocolVersion is the client protocol this server speaks (1.13.2).
const (
	ProtocolVersion int32 = 404
	VersionName           = "1.13.2"
)
