package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Valora/internal/mq"
)

// NewTopologyCmd создаёт группу команд для управления топологией брокера.
func NewTopologyCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Manage broker topology",
	}

	cmd.AddCommand(newTopologyInitCmd(outputFn))

	return cmd
}

func newTopologyInitCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Declare exchanges, queues and bindings",
		Long: "Declare the full broker topology. Run once before the first\n" +
			"processor start: the processor itself only verifies that the\n" +
			"exchanges exist and exits if they do not.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			conn, err := dialBroker()
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := mq.DeclareExchanges(conn); err != nil {
				return err
			}
			if err := mq.SetupTopology(conn); err != nil {
				return err
			}

			out.Success("Topology declared:\n" + mq.TopologyInfo())
			return nil
		},
	}
}
