package mixer

import (
	"fmt"
	"net"
	"time"

	"github.com/jfreymuth/pulse/proto"
)

// protoSession is a pulseSession over the PulseAudio native protocol.
type protoSession struct {
	client *proto.Client
	conn   net.Conn
}

// dialProto connects to server ("" for the default socket) and registers
// volctl as a client. notify is called from the protocol reader goroutine
// for every subscription event and must not block.
func dialProto(server string, notify func()) (pulseSession, error) {
	client, conn, err := proto.Connect(server)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to pulse server: %w", err)
	}
	client.Callback = func(msg interface{}) {
		if _, ok := msg.(*proto.SubscribeEvent); ok {
			notify()
		}
	}

	props := proto.PropList{
		"application.name":      proto.PropListString("volctl"),
		"application.id":        proto.PropListString("volctl"),
		"application.icon_name": proto.PropListString("audio-volume-high"),
	}
	if err := client.Request(&proto.SetClientName{Props: props}, &proto.SetClientNameReply{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to register pulse client: %w", err)
	}
	return &protoSession{client: client, conn: conn}, nil
}

func (s *protoSession) Sink(name string) ([]uint32, bool, error) {
	var reply proto.GetSinkInfoReply
	if err := s.client.Request(&proto.GetSinkInfo{SinkIndex: proto.Undefined, SinkName: name}, &reply); err != nil {
		return nil, false, err
	}
	return reply.ChannelVolumes, reply.Mute, nil
}

func (s *protoSession) SetSinkVolume(name string, volumes []uint32) error {
	return s.client.Request(&proto.SetSinkVolume{
		SinkIndex:      proto.Undefined,
		SinkName:       name,
		ChannelVolumes: volumes,
	}, nil)
}

func (s *protoSession) SetSinkMute(name string, muted bool) error {
	return s.client.Request(&proto.SetSinkMute{SinkIndex: proto.Undefined, SinkName: name, Mute: muted}, nil)
}

func (s *protoSession) SinkInputs() ([]sinkInput, error) {
	var reply proto.GetSinkInputInfoListReply
	if err := s.client.Request(&proto.GetSinkInputInfoList{}, &reply); err != nil {
		return nil, err
	}
	inputs := make([]sinkInput, 0, len(reply))
	for _, in := range reply {
		if !in.HasVolume {
			continue
		}
		inputs = append(inputs, sinkInput{
			index:   in.SinkInputIndex,
			name:    firstProp(in.Properties, in.MediaName, "application.name", "media.name"),
			icon:    firstProp(in.Properties, "", "application.icon_name"),
			volumes: in.ChannelVolumes,
			muted:   in.Muted,
		})
	}
	return inputs, nil
}

func (s *protoSession) SetSinkInputVolume(index uint32, volumes []uint32) error {
	return s.client.Request(&proto.SetSinkInputVolume{SinkInputIndex: index, ChannelVolumes: volumes}, nil)
}

func (s *protoSession) SetSinkInputMute(index uint32, muted bool) error {
	return s.client.Request(&proto.SetSinkInputMute{SinkInputIndex: index, Mute: muted}, nil)
}

func (s *protoSession) Subscribe() error {
	return s.client.Request(&proto.Subscribe{
		Mask: proto.SubscriptionMaskSink | proto.SubscriptionMaskSinkInput | proto.SubscriptionMaskServer,
	}, nil)
}

func (s *protoSession) SetDeadline(t time.Time) error {
	return s.conn.SetDeadline(t)
}

func (s *protoSession) Close() error {
	return s.conn.Close()
}

// firstProp returns the first non-empty property among keys, or fallback.
func firstProp(props proto.PropList, fallback string, keys ...string) string {
	for _, key := range keys {
		if v, ok := props[key]; ok {
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return fallback
}
