package packet

// GameMode constants.
const (
	GameModeSurvival  uint8 = 0
	GameModeCreative  uint8 = 1
	GameModeAdventure uint8 = 2
	GameModeSpectator uint8 = 3
)

// Dimension constants.
const (
	DimensionNether    int32 = -1
	DimensionOverworld int32 = 0
	DimensionEnd       int32 = 1
)

// Difficulty constants.
const (
	DifficultyPeaceful uint8 = 0
	DifficultyEasy     uint8 = 1
	DifficultyNormal   uint8 = 2
	DifficultyHard     uint8 = 3
)

// Chat positions, the channel byte of ChatMessage.
const (
	ChatPositionChat     int8 = 0
	ChatPositionSystem   int8 = 1
	ChatPositionGameInfo int8 = 2
)

// Clientbound play packets

// ChatMessage delivers a JSON chat component to the client (clientbound 0x0E).
type ChatMessage struct {
	JSONData string `mc:"string"`
	Position int8   `mc:"i8"`
}

func (ChatMessage) PacketID() int32 { return 0x0E }

// PlayDisconnect closes the connection with a JSON reason (clientbound 0x1B).
type PlayDisconnect struct {
	Reason string `mc:"string"`
}

func (PlayDisconnect) PacketID() int32 { return 0x1B }

// KeepAliveClientbound is a liveness probe the client must echo (clientbound 0x21).
type KeepAliveClientbound struct {
	KeepAliveID int64 `mc:"i64"`
}

func (KeepAliveClientbound) PacketID() int32 { return 0x21 }

// JoinGame is sent after LoginSuccess to place the player in the world (clientbound 0x25).
type JoinGame struct {
	EntityID         int32  `mc:"i32"`
	GameMode         uint8  `mc:"u8"`
	Dimension        int32  `mc:"i32"`
	Difficulty       uint8  `mc:"u8"`
	MaxPlayers       uint8  `mc:"u8"`
	LevelType        string `mc:"string"`
	ReducedDebugInfo bool   `mc:"bool"`
}

func (JoinGame) PacketID() int32 { return 0x25 }

// PlayerPositionAndLook flag bits. A set bit makes the field relative.
const (
	RelativeX     int8 = 0x01
	RelativeY     int8 = 0x02
	RelativeZ     int8 = 0x04
	RelativeYaw   int8 = 0x08
	RelativePitch int8 = 0x10
)

// PlayerPositionAndLook teleports the client (clientbound 0x32).
type PlayerPositionAndLook struct {
	X          float64 `mc:"f64"`
	Y          float64 `mc:"f64"`
	Z          float64 `mc:"f64"`
	Yaw        float32 `mc:"f32"`
	Pitch      float32 `mc:"f32"`
	Flags      int8    `mc:"i8"`
	TeleportID int32   `mc:"varint"`
}

func (PlayerPositionAndLook) PacketID() int32 { return 0x32 }

// SpawnPosition sets the compass target (clientbound 0x49).
// Location is packed with net.EncodePosition.
type SpawnPosition struct {
	Location int64 `mc:"position"`
}

func (SpawnPosition) PacketID() int32 { return 0x49 }
