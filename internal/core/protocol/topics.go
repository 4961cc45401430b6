package protocol

// Default topic names used by the ESP32-CAM firmware.
const (
	DefaultCommandTopic = "esp32cam/capture"
	DefaultStartTopic   = "esp32cam/image/start"
	DefaultChunkTopic   = "esp32cam/image/chunk"
	DefaultEndTopic     = "esp32cam/image/end"
)

// Kind identifies an inbound message type.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindStart
	KindChunk
	KindEnd
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindChunk:
		return "chunk"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Topics is the set of topics one camera uses.
type Topics struct {
	Command string `koanf:"command"`
	Start   string `koanf:"start"`
	Chunk   string `koanf:"chunk"`
	End     string `koanf:"end"`
}

// DefaultTopics returns the firmware default topic set.
func DefaultTopics() Topics {
	return Topics{
		Command: DefaultCommandTopic,
		Start:   DefaultStartTopic,
		Chunk:   DefaultChunkTopic,
		End:     DefaultEndTopic,
	}
}

// Inbound returns the reply topics in start, chunk, end order.
func (t Topics) Inbound() []string {
	return []string{t.Start, t.Chunk, t.End}
}

// KindOf maps a topic to its message kind.
func (t Topics) KindOf(topic string) Kind {
	switch topic {
	case t.Start:
		return KindStart
	case t.Chunk:
		return KindChunk
	case t.End:
		return KindEnd
	default:
		return KindUnknown
	}
}
