package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/brpc/pkg/channel"
	"github.com/marmos91/brpc/pkg/codec"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/stub"
)

var (
	callAddress string
	callData    string
	callTimeout time.Duration
)

var callCmd = &cobra.Command{
	Use:   "call <service> <method>",
	Short: "Issue a single RPC call against a running brpcd",
	Long: `Dial address, send the bytes given by --data (or read from stdin if
--data is omitted) as the request payload, and print the response payload
to stdout.

call does no request/response encoding beyond raw bytes: it exercises the
same Channel and Stub path a generated client would, with codec.BytesCodec
standing in for whatever codec a real service uses.

Examples:
  brpcctl call --address localhost:8003 echo.EchoService Echo --data "hello"
  echo -n "hello" | brpcctl call --address localhost:8003 echo.EchoService Reverse`,
	Args: cobra.ExactArgs(2),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVar(&callAddress, "address", "localhost:8003", "Server address to dial")
	callCmd.Flags().StringVar(&callData, "data", "", "Request payload (reads stdin if omitted)")
	callCmd.Flags().DurationVar(&callTimeout, "timeout", 5*time.Second, "Dial and call timeout")
}

func runCall(cmd *cobra.Command, args []string) error {
	service, method := args[0], args[1]

	payload := []byte(callData)
	if callData == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read payload from stdin: %w", err)
		}
		payload = data
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	ch, task, err := channel.Build(ctx, callAddress, channel.Options{DialTimeout: callTimeout}, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", callAddress, err)
	}
	defer ch.Close()

	go func() { _ = task.Run(ctx) }()

	s := stub.New(ch, service, method, codec.BytesCodec{}, codec.BytesCodec{})

	resp, err := s.Call(ctx, payload, rpc.WithTimeout(callTimeout))
	if err != nil {
		return fmt.Errorf("call failed: %w", err)
	}

	_, err = os.Stdout.Write(resp)
	return err
}
