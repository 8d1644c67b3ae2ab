package mc

type ServerBoundHandshake struct {
	ProtocolVersion int
	ServerAddress   string
	ServerPort      uint16
	NextState       int
}

// NewStatusHandshake builds the handshake that moves the connection into the status state.
// A protocol version of 0 asks the server for its preferred version.
func NewStatusHandshake(host string, port uint16, protocol int) ServerBoundHandshake {
	return ServerBoundHandshake{
		ProtocolVersion: protocol,
		ServerAddress:   host,
		ServerPort:      port,
		NextState:       StatusState,
	}
}

func (pk ServerBoundHandshake) Marshal() Packet {
	return MarshalPacket(
		ServerBoundHandshakePacketID,
		VarInt(pk.ProtocolVersion),
		String(pk.ServerAddress),
		UnsignedShort(pk.ServerPort),
		VarInt(pk.NextState),
	)
}

func UnmarshalServerBoundHandshake(packet Packet) (ServerBoundHandshake, error) {
	var (
		protocol VarInt
		addr     String
		port     UnsignedShort
		state    VarInt
	)

	if packet.ID != ServerBoundHandshakePacketID {
		return ServerBoundHandshake{}, ErrInvalidPacketID
	}

	if err := packet.Scan(&protocol, &addr, &port, &state); err != nil {
		return ServerBoundHandshake{}, err
	}
	return ServerBoundHandshake{
		ProtocolVersion: int(protocol),
		ServerAddress:   string(addr),
		ServerPort:      uint16(port),
		NextState:       int(state),
	}, nil
}

func (pk ServerBoundHandshake) IsStatusRequest() bool {
	return VarInt(pk.NextState) == HandshakeStatusState
}
