package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/brpc/internal/cli/output"
	"github.com/marmos91/brpc/internal/cli/timeutil"
	"github.com/marmos91/brpc/internal/examples/echo"
	"github.com/marmos91/brpc/pkg/channel"
	"github.com/marmos91/brpc/pkg/codec"
	"github.com/marmos91/brpc/pkg/config"
	"github.com/marmos91/brpc/pkg/rpc"
	"github.com/marmos91/brpc/pkg/stub"
)

var (
	statusOutput  string
	statusAddress string
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a brpcd instance is reachable",
	Long: `Check brpcd's status by dialing it and issuing a real Echo call
through the same Channel and Stub machinery an application client would
use, rather than a separate HTTP health endpoint.

Examples:
  # Check the instance described by the default config file
  brpcctl status

  # Check a specific address directly
  brpcctl status --address localhost:8003 -o json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAddress, "address", "", "Server address to check (default: derived from config)")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 3*time.Second, "Dial and call timeout")
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// ServerStatus reports whether a brpcd instance answered an Echo call.
type ServerStatus struct {
	Address   string `json:"address" yaml:"address"`
	Reachable bool   `json:"reachable" yaml:"reachable"`
	LatencyMs int64  `json:"latency_ms,omitempty" yaml:"latency_ms,omitempty"`
	Message   string `json:"message" yaml:"message"`
	CheckedAt string `json:"checked_at" yaml:"checked_at"`
}

// Headers implements output.TableRenderer.
func (s ServerStatus) Headers() []string {
	return []string{"Address", "Reachable", "Latency", "Checked", "Message"}
}

// Rows implements output.TableRenderer.
func (s ServerStatus) Rows() [][]string {
	latency := "-"
	if s.Reachable {
		latency = fmt.Sprintf("%dms", s.LatencyMs)
	}
	return [][]string{{s.Address, fmt.Sprintf("%t", s.Reachable), latency, timeutil.FormatTime(s.CheckedAt), s.Message}}
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	address := statusAddress
	if address == "" {
		cfg, err := config.Load(GetConfigFile())
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		address = fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	}

	status := checkStatus(address)

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		return output.PrintTable(os.Stdout, status)
	}
}

func checkStatus(address string) ServerStatus {
	checkedAt := time.Now().UTC().Format(time.RFC3339)

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	ch, task, err := channel.Build(ctx, address, channel.Options{DialTimeout: statusTimeout}, nil)
	if err != nil {
		return ServerStatus{Address: address, Reachable: false, Message: err.Error(), CheckedAt: checkedAt}
	}
	defer ch.Close()

	taskDone := make(chan error, 1)
	go func() { taskDone <- task.Run(ctx) }()

	s := stub.New(ch, echo.ServiceName, "Echo", codec.BytesCodec{}, codec.BytesCodec{})

	start := time.Now()
	_, err = s.Call(ctx, []byte("ping"), rpc.WithTimeout(statusTimeout))
	latency := time.Since(start)

	if err != nil {
		return ServerStatus{Address: address, Reachable: false, Message: err.Error(), CheckedAt: checkedAt}
	}

	return ServerStatus{
		Address:   address,
		Reachable: true,
		LatencyMs: latency.Milliseconds(),
		Message:   "brpcd is reachable and dispatching",
		CheckedAt: checkedAt,
	}
}
