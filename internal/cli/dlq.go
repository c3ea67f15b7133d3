package cli

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/spf13/cobra"

	"github.com/shaiso/Valora/internal/domain"
	"github.com/shaiso/Valora/internal/mq"
)

// NewDLQCmd создаёт группу команд для работы с dead letter queue.
func NewDLQCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dlq",
		Short: "Inspect the dead letter queue",
	}

	cmd.AddCommand(newDLQPeekCmd(outputFn))

	return cmd
}

func newDLQPeekCmd(outputFn func() *Output) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "peek",
		Short: "Show dead letters without consuming them",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			conn, err := dialBroker()
			if err != nil {
				return err
			}
			defer conn.Close()

			var entries []domain.DeadLetterEntry

			err = conn.WithChannel(func(ch *amqp.Channel) error {
				var tags []uint64
				for len(entries) < limit {
					d, ok, err := ch.Get(string(mq.QueueDeadLetters), false)
					if err != nil {
						return err
					}
					if !ok {
						break
					}
					tags = append(tags, d.DeliveryTag)

					var entry domain.DeadLetterEntry
					if err := json.Unmarshal(d.Body, &entry); err != nil {
						// Чужой формат: показываем тело как есть
						entry = domain.DeadLetterEntry{
							OriginalMessage: string(d.Body),
							Error:           "unparseable dead letter",
						}
					}
					entries = append(entries, entry)
				}

				// Вернуть просмотренные сообщения в очередь
				for _, tag := range tags {
					if err := ch.Nack(tag, false, true); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			headers := []string{"RECORD_ID", "ERROR", "TIMESTAMP"}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{e.RecordID, e.Error, e.Timestamp.Format("2006-01-02 15:04:05")}
			}

			out.Print(headers, rows, entries)
			if len(entries) == 0 {
				out.Success("Dead letter queue is empty")
			} else {
				out.Success(fmt.Sprintf("%d dead letter(s) shown, messages requeued", len(entries)))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of entries to show")

	return cmd
}
