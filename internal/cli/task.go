package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/Valora/internal/domain"
	"github.com/shaiso/Valora/internal/mq"
)

// NewTaskCmd создаёт группу команд для работы с заданиями.
func NewTaskCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage appraisal tasks",
	}

	cmd.AddCommand(newTaskSendCmd(outputFn))

	return cmd
}

func newTaskSendCmd(outputFn func() *Output) *cobra.Command {
	var value float64
	var description string
	var recordType string
	var step string

	cmd := &cobra.Command{
		Use:   "send RECORD_ID",
		Short: "Publish an appraisal task to the queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			msg := &domain.TaskMessage{
				RecordID:    args[0],
				Value:       value,
				Description: description,
				Step:        domain.StepName(step),
			}

			if !msg.Step.IsValid() {
				return fmt.Errorf("unknown step %q", step)
			}
			if recordType != "" {
				msg.RecordType = domain.RecordType(recordType)
				if !msg.RecordType.IsValid() {
					return fmt.Errorf("unknown record type %q", recordType)
				}
			}

			conn, err := dialBroker()
			if err != nil {
				return err
			}
			defer conn.Close()

			pub := mq.NewPublisher(conn, slog.New(slog.DiscardHandler))
			if err := pub.PublishTask(cmd.Context(), msg); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task published for record %s (step %s)", msg.RecordID, msg.Step))
			return nil
		},
	}

	cmd.Flags().Float64Var(&value, "value", 0, "Appraised value")
	cmd.Flags().StringVar(&description, "description", "", "Item description")
	cmd.Flags().StringVar(&recordType, "type", "", "Record type (art, antique, jewelry, collectible, other)")
	cmd.Flags().StringVar(&step, "step", string(domain.StepBuildReport), "Step to run")

	return cmd
}
