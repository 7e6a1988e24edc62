package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/code-payments/iap-sandwich/bridge"
	"github.com/code-payments/iap-sandwich/channel/rpc"
	"github.com/code-payments/iap-sandwich/sandwich"
)

var (
	invokeAddr    string
	invokeArgs    string
	invokeTimeout time.Duration
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <method>",
	Short: "Call a method on a running bridge",
	Example: `  sandwich invoke launch --args '{"projectKey":"project"}'
  sandwich invoke purchase --args '{"productId":"weekly"}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var params structpb.Struct
		if err := protojson.Unmarshal([]byte(invokeArgs), &params); err != nil {
			return errors.Wrap(err, "--args must be a JSON object")
		}

		cc, err := grpc.NewClient(invokeAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return errors.Wrap(err, "failed to create connection")
		}
		defer cc.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), invokeTimeout)
		defer cancel()

		result, err := rpc.NewClient(cc).Invoke(ctx, args[0], bridge.FromStruct(&params))

		var sdkErr *sandwich.Error
		switch {
		case errors.As(err, &sdkErr):
			if err := printMap(cmd, bridge.Map{rpc.ErrorKey: sdkErr.ToMap()}); err != nil {
				return err
			}
			return errors.New("call failed")
		case err != nil:
			return err
		}
		return printMap(cmd, bridge.Map{rpc.ResultKey: result})
	},
}

func init() {
	invokeCmd.Flags().StringVar(&invokeAddr, "addr", "localhost"+defaultListenAddr, "bridge address")
	invokeCmd.Flags().StringVar(&invokeArgs, "args", "{}", "method arguments as a JSON object")
	invokeCmd.Flags().DurationVar(&invokeTimeout, "timeout", 30*time.Second, "call timeout")
}

func printMap(cmd *cobra.Command, m bridge.Map) error {
	s, err := m.ToStruct()
	if err != nil {
		return err
	}

	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "failed to encode output")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
