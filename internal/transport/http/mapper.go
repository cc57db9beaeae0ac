package http

import (
	"encoding/json"

	"github.com/outpass/outpass-server/internal/core"
	"github.com/outpass/outpass-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeLogin:
		var login proto.LoginData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &login); err != nil {
				return nil, nil, err
			}
		}
		return &core.Command{Kind: core.CommandLogin, Name: login.Name}, nil, nil
	case proto.InboundTypeLeaveClass:
		return &core.Command{Kind: core.CommandLeaveClass}, nil, nil
	case proto.InboundTypeComeBack:
		return &core.Command{Kind: core.CommandComeBack}, nil, nil
	case proto.InboundTypeLeaveQueue:
		return &core.Command{Kind: core.CommandLeaveQueue}, nil, nil
	case proto.InboundTypeRequestState:
		return &core.Command{Kind: core.CommandRequestState}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventLoginSuccess:
		return proto.Outbound{
			Type: proto.OutboundTypeLoginSuccess,
			Data: proto.LoginSuccessData{Name: event.Name},
		}
	case core.EventLoginError:
		out := proto.Outbound{Type: proto.OutboundTypeLoginError}
		if event.Error != nil {
			out.Error = &proto.Error{Code: event.Error.Code, Msg: event.Error.Message}
		}
		return out
	case core.EventStateUpdate:
		return proto.Outbound{
			Type: proto.OutboundTypeStateUpdate,
			Data: stateDataFromSnapshot(event.State),
		}
	case core.EventUserStatus:
		return proto.Outbound{
			Type: proto.OutboundTypeUserStatus,
			Data: proto.UserStatusData{Status: string(event.Status)},
		}
	case core.EventYourTurn:
		return proto.Outbound{Type: proto.OutboundTypeYourTurn}
	case core.EventQueueTimeout:
		return proto.Outbound{Type: proto.OutboundTypeQueueTimeout}
	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "unknown", Msg: "unknown event"},
		}
	}
}

func stateDataFromSnapshot(snap *core.StateSnapshot) proto.StateData {
	if snap == nil {
		return proto.StateData{Outside: []proto.StateEntry{}, Queue: []proto.StateEntry{}}
	}
	data := proto.StateData{
		Outside: make([]proto.StateEntry, 0, len(snap.Outside)),
		Queue:   make([]proto.StateEntry, 0, len(snap.Queue)),
	}
	for _, e := range snap.Outside {
		data.Outside = append(data.Outside, proto.StateEntry{Name: e.Name, Since: e.Since.UnixMilli()})
	}
	for _, e := range snap.Queue {
		data.Queue = append(data.Queue, proto.StateEntry{Name: e.Name, Since: e.Since.UnixMilli()})
	}
	return data
}
