package rpc

import (
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func UnaryServerInterceptors(log *zap.Logger) []grpc.UnaryServerInterceptor {
	return []grpc.UnaryServerInterceptor{
		grpc_zap.UnaryServerInterceptor(log),
		grpc_recovery.UnaryServerInterceptor(recoveryOptions(log)...),
	}
}

func StreamServerInterceptors(log *zap.Logger) []grpc.StreamServerInterceptor {
	return []grpc.StreamServerInterceptor{
		grpc_zap.StreamServerInterceptor(log),
		grpc_recovery.StreamServerInterceptor(recoveryOptions(log)...),
	}
}

// ServerOptions chains the bridge's interceptors for grpc.NewServer.
func ServerOptions(log *zap.Logger) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(UnaryServerInterceptors(log)...)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(StreamServerInterceptors(log)...)),
	}
}

func recoveryOptions(log *zap.Logger) []grpc_recovery.Option {
	return []grpc_recovery.Option{
		grpc_recovery.WithRecoveryHandler(func(p any) error {
			log.Error("Recovered from panic", zap.Any("panic", p), zap.Stack("stack"))
			return status.Error(codes.Internal, "internal error")
		}),
	}
}
