package messages

import (
	"fmt"

	framefb "github.com/cbodonnell/hexphase/flatbuffers/frame"
	"github.com/cbodonnell/hexphase/pkg/events"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/klauspost/compress/zstd"
)

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	decoder, _ = zstd.NewReader(nil)
)

// SerializeMessage encodes m as a flatbuffer frame and compresses it.
func SerializeMessage(m *Message) ([]byte, error) {
	b, err := SerializeMessageFlatbuffer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %v", err)
	}
	return encoder.EncodeAll(b, nil), nil
}

func DeserializeMessage(data []byte) (*Message, error) {
	b, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress message: %v", err)
	}

	message, err := DeserializeMessageFlatbuffer(b)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize message: %v", err)
	}

	return message, nil
}

func SerializeMessageFlatbuffer(m *Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("message is nil")
	}
	builder := flatbuffers.NewBuilder(len(m.Payload) + 64)

	messageType := builder.CreateString(string(m.Type))
	payload := builder.CreateByteVector(m.Payload)

	framefb.FrameStart(builder)
	framefb.FrameAddTurn(builder, m.Turn)
	framefb.FrameAddType(builder, messageType)
	framefb.FrameAddPayload(builder, payload)
	frameOffset := framefb.FrameEnd(builder)
	builder.Finish(frameOffset)

	return builder.FinishedBytes(), nil
}

func DeserializeMessageFlatbuffer(b []byte) (message *Message, err error) {
	if len(b) < flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("frame too short: %d bytes", len(b))
	}
	// malformed offsets make the accessors index out of range
	defer func() {
		if r := recover(); r != nil {
			message = nil
			err = fmt.Errorf("malformed frame: %v", r)
		}
	}()

	frame := framefb.GetRootAsFrame(b, 0)
	message = &Message{
		Turn: frame.Turn(),
		Type: events.Name(frame.Type()),
	}
	if payload := frame.PayloadBytes(); payload != nil {
		message.Payload = append([]byte(nil), payload...)
	}

	return message, nil
}
