package packet

// Serverbound play packets

// TeleportConfirm acknowledges a PlayerPositionAndLook (serverbound 0x00).
type TeleportConfirm struct {
	TeleportID int32 `mc:"varint"`
}

func (TeleportConfirm) PacketID() int32 { return 0x00 }

// ChatMessageServerbound is sent by the client when they type a chat message (serverbound 0x02).
type ChatMessageServerbound struct {
	Message string `mc:"string"`
}

func (ChatMessageServerbound) PacketID() int32 { return 0x02 }

// ClientStatus actions.
const (
	ClientStatusRespawn      int32 = 0
	ClientStatusRequestStats int32 = 1
)

// ClientStatus is sent on respawn and statistics requests (serverbound 0x03).
type ClientStatus struct {
	ActionID int32 `mc:"varint"`
}

func (ClientStatus) PacketID() int32 { return 0x03 }

// ClientSettings is sent by the client with their settings (serverbound 0x04).
type ClientSettings struct {
	Locale       string `mc:"string"`
	ViewDistance int8   `mc:"i8"`
	ChatMode     int32  `mc:"varint"`
	ChatColors   bool   `mc:"bool"`
	SkinParts    uint8  `mc:"u8"`
	MainHand     int32  `mc:"varint"`
}

func (ClientSettings) PacketID() int32 { return 0x04 }

// KeepAliveServerbound is sent by the client in response to keep alive (serverbound 0x0E).
type KeepAliveServerbound struct {
	KeepAliveID int64 `mc:"i64"`
}

func (KeepAliveServerbound) PacketID() int32 { return 0x0E }

// PlayerGround is sent by the client as a heartbeat (serverbound 0x0F).
type PlayerGround struct {
	OnGround bool `mc:"bool"`
}

func (PlayerGround) PacketID() int32 { return 0x0F }

// PlayerPosition is sent by the client when they move (serverbound 0x10).
type PlayerPosition struct {
	X        float64 `mc:"f64"`
	FeetY    float64 `mc:"f64"`
	Z        float64 `mc:"f64"`
	OnGround bool    `mc:"bool"`
}

func (PlayerPosition) PacketID() int32 { return 0x10 }

// PlayerPositionAndLookServerbound is sent when the client moves and looks (serverbound 0x11).
type PlayerPositionAndLookServerbound struct {
	X        float64 `mc:"f64"`
	FeetY    float64 `mc:"f64"`
	Z        float64 `mc:"f64"`
	Yaw      float32 `mc:"f32"`
	Pitch    float32 `mc:"f32"`
	OnGround bool    `mc:"bool"`
}

func (PlayerPositionAndLookServerbound) PacketID() int32 { return 0x11 }

// PlayerLook is sent by the client when they look around (serverbound 0x12).
type PlayerLook struct {
	Yaw      float32 `mc:"f32"`
	Pitch    float32 `mc:"f32"`
	OnGround bool    `mc:"bool"`
}

func (PlayerLook) PacketID() int32 { return 0x12 }
