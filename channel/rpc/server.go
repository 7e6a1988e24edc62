package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/channel"
	"github.com/code-payments/iap-sandwich/event"
	"github.com/code-payments/iap-sandwich/sandwich"
)

const (
	StreamBufferSize = 64
	StreamTimeout    = time.Second
)

// Request and response keys of Invoke.
const (
	MethodKey    = "method"
	ArgumentsKey = "arguments"
	ResultKey    = "result"
	ErrorKey     = "error"
)

type Server struct {
	log        *zap.Logger
	dispatcher *channel.Dispatcher

	streamsMu sync.RWMutex
	streams   map[string]event.Stream[*event.HostEvent]
}

var _ BridgeServer = (*Server)(nil)

func NewServer(log *zap.Logger, dispatcher *channel.Dispatcher, bus *channel.Bus) *Server {
	s := &Server{
		log:        log,
		dispatcher: dispatcher,
		streams:    make(map[string]event.Stream[*event.HostEvent]),
	}

	bus.AddHandler(event.HandlerFunc[string, *event.HostEvent](s.OnHostEvent))

	return s
}

func (s *Server) Invoke(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := bridge.FromStruct(req)

	method, ok := fields[MethodKey].(string)
	if !ok || method == "" {
		return nil, status.Error(codes.InvalidArgument, "missing method")
	}

	var args bridge.Map
	switch v := fields[ArgumentsKey].(type) {
	case nil:
		args = bridge.Map{}
	case bridge.Map:
		args = v
	default:
		return nil, status.Errorf(codes.InvalidArgument, "arguments must be a struct, got %T", v)
	}

	log := s.log.With(zap.String("method", method))

	result, err := s.dispatcher.Invoke(ctx, method, args)

	var sdkErr *sandwich.Error
	switch {
	case err == nil:
		return toResponse(log, bridge.Map{ResultKey: result})
	case errors.As(err, &sdkErr):
		return toResponse(log, bridge.Map{ErrorKey: sdkErr.ToMap()})
	case errors.Is(err, channel.ErrUnknownMethod):
		return nil, status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, channel.ErrInvalidArgument):
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return nil, status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return nil, status.Error(codes.Canceled, err.Error())
	default:
		log.Warn("Failed to invoke method", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to invoke method")
	}
}

func toResponse(log *zap.Logger, m bridge.Map) (*structpb.Struct, error) {
	resp, err := m.ToStruct()
	if err != nil {
		log.Warn("Failed to encode response", zap.Error(err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return resp, nil
}

func (s *Server) StreamEvents(_ *structpb.Struct, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()

	streamID := uuid.NewString()
	log := s.log.With(zap.String("stream_id", streamID))

	ss := event.NewSelectorStream[*event.HostEvent, *structpb.Struct](
		streamID,
		StreamBufferSize,
		func(e *event.HostEvent) (*structpb.Struct, bool) {
			msg, err := e.ToMap().ToStruct()
			if err != nil {
				log.Warn("Failed to encode event, dropping", zap.String("name", e.Name), zap.Error(err))
				return nil, false
			}
			return msg, true
		},
	)

	log = log.With(zap.String("ss", fmt.Sprintf("%p", ss)))
	log.Debug("Initializing stream")

	s.streamsMu.Lock()
	s.streams[streamID] = ss
	s.streamsMu.Unlock()

	defer func() {
		log.Debug("Closing streamer")

		s.streamsMu.Lock()
		delete(s.streams, streamID)
		s.streamsMu.Unlock()

		ss.Close()
	}()

	// Headers go out now so clients know the stream is registered before
	// the first event.
	if err := stream.SendHeader(nil); err != nil {
		log.Debug("Failed to send stream header", zap.Error(err))
		return err
	}

	for {
		select {
		case msg, ok := <-ss.Channel():
			if !ok {
				log.Debug("stream closed; ending stream")
				return status.Error(codes.Aborted, "stream closed")
			}

			if err := stream.Send(msg); err != nil {
				log.Info("Failed to forward event", zap.Error(err))
				return err
			}
		case <-ctx.Done():
			log.Debug("stream context cancelled; ending stream")
			return status.Error(codes.Canceled, "")
		}
	}
}

// OnHostEvent forwards e to every open event stream.
func (s *Server) OnHostEvent(name string, e *event.HostEvent) {
	s.streamsMu.RLock()
	streams := make([]event.Stream[*event.HostEvent], 0, len(s.streams))
	for _, stream := range s.streams {
		streams = append(streams, stream)
	}
	s.streamsMu.RUnlock()

	for _, stream := range streams {
		if err := stream.Notify(e.Clone(), StreamTimeout); err != nil {
			s.log.Warn("Failed to send event",
				zap.String("name", name),
				zap.String("stream_id", stream.ID()),
				zap.Error(err),
			)
		}
	}
}

// NumStreams returns how many event streams are open.
func (s *Server) NumStreams() int {
	s.streamsMu.RLock()
	defer s.streamsMu.RUnlock()

	return len(s.streams)
}
