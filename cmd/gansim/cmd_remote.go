package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/GoSim-25-26J-441/gansim/internal/simd"
	"github.com/GoSim-25-26J-441/gansim/pkg/utils"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Drive sessions on a running simd over gRPC",
		Long: `Create, step and watch sessions held by a simd daemon.

Examples:
  gansim remote create --session demo --seed 7
  gansim remote step demo -n 5
  gansim remote watch demo`,
	}
	cmd.PersistentFlags().String("addr", "localhost:50051", "simd gRPC address")

	cmd.AddCommand(
		newRemoteCreateCmd(),
		newRemoteStepCmd(),
		newRemoteStateCmd(),
		newRemoteResetCmd(),
		newRemoteListCmd(),
		newRemoteDeleteCmd(),
		newRemoteWatchCmd(),
	)
	return cmd
}

// withClient dials --addr and runs fn with a SimulatorClient.
func withClient(cmd *cobra.Command, fn func(*simd.SimulatorClient) error) error {
	addr, _ := cmd.Flags().GetString("addr")
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	return fn(simd.NewSimulatorClient(conn))
}

func printMessage(w io.Writer, m proto.Message) error {
	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(m)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func newRemoteCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			seed, _ := cmd.Flags().GetInt64("seed")
			samplesText, _ := cmd.Flags().GetString("samples")
			callbackURL, _ := cmd.Flags().GetString("callback-url")

			samples, err := utils.ParseSamples(samplesText)
			if err != nil {
				return fmt.Errorf("invalid --samples: %w", err)
			}
			fields := map[string]any{}
			if sessionID != "" {
				fields["session_id"] = sessionID
			}
			if seed != 0 {
				fields["seed"] = seed
			}
			if len(samples) > 0 {
				list := make([]any, len(samples))
				for i, v := range samples {
					list[i] = v
				}
				fields["samples"] = list
			}
			if callbackURL != "" {
				fields["callback_url"] = callbackURL
			}
			req, err := structpb.NewStruct(fields)
			if err != nil {
				return err
			}

			return withClient(cmd, func(c *simd.SimulatorClient) error {
				resp, err := c.CreateSession(cmd.Context(), req)
				if err != nil {
					return err
				}
				return printMessage(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().String("session", "", "Session ID (generated when empty)")
	cmd.Flags().Int64("seed", 0, "Random seed (0 = daemon default)")
	cmd.Flags().String("samples", "", "Comma-separated fixed samples in [0,1), cycled")
	cmd.Flags().String("callback-url", "", "URL notified when progress reaches 100")
	return cmd
}

func newRemoteStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step <session>",
		Short: "Advance a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("steps")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if n < 1 {
				return fmt.Errorf("--steps must be >= 1, got %d", n)
			}
			return withClient(cmd, func(c *simd.SimulatorClient) error {
				for i := 0; i < n; i++ {
					resp, err := c.Step(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if jsonOut {
						if err := printMessage(cmd.OutOrStdout(), resp); err != nil {
							return err
						}
						continue
					}
					outcome := resp.GetFields()["outcome"].GetStructValue()
					fmt.Fprintln(cmd.OutOrStdout(), outcome.GetFields()["log_line"].GetStringValue())
				}
				return nil
			})
		},
	}
	cmd.Flags().IntP("steps", "n", 1, "Number of steps")
	return cmd
}

// newRemoteIDCmd builds a one-argument command that prints a Struct response.
func newRemoteIDCmd(use, short string, call func(*simd.SimulatorClient, *cobra.Command, string) (*structpb.Struct, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *simd.SimulatorClient) error {
				resp, err := call(c, cmd, args[0])
				if err != nil {
					return err
				}
				return printMessage(cmd.OutOrStdout(), resp)
			})
		},
	}
}

func newRemoteStateCmd() *cobra.Command {
	return newRemoteIDCmd("state", "Show a session's state", func(c *simd.SimulatorClient, cmd *cobra.Command, id string) (*structpb.Struct, error) {
		return c.GetState(cmd.Context(), id)
	})
}

func newRemoteResetCmd() *cobra.Command {
	return newRemoteIDCmd("reset", "Reset a session", func(c *simd.SimulatorClient, cmd *cobra.Command, id string) (*structpb.Struct, error) {
		return c.Reset(cmd.Context(), id)
	})
}

func newRemoteListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt64("limit")
			return withClient(cmd, func(c *simd.SimulatorClient) error {
				resp, err := c.ListSessions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printMessage(cmd.OutOrStdout(), resp)
			})
		},
	}
	cmd.Flags().Int64("limit", 50, "Maximum sessions")
	return cmd
}

func newRemoteDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *simd.SimulatorClient) error {
				if err := c.DeleteSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func newRemoteWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <session>",
		Short: "Print the session state every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(c *simd.SimulatorClient) error {
				stream, err := c.WatchState(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				for {
					msg, err := stream.Recv()
					if errors.Is(err, io.EOF) {
						return nil
					}
					if err != nil {
						return err
					}
					if err := printMessage(cmd.OutOrStdout(), msg); err != nil {
						return err
					}
				}
			})
		},
	}
}
