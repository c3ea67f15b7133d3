package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/Valora/internal/domain"
	"github.com/shaiso/Valora/internal/locator"
	"github.com/shaiso/Valora/internal/repo"
)

// showFields — поля записи в порядке вывода record show.
var showFields = []domain.Field{
	domain.FieldStatus,
	domain.FieldStatusDetail,
	domain.FieldStatusUpdatedAt,
	domain.FieldRecordType,
	domain.FieldValue,
	domain.FieldDescription,
	domain.FieldAIDescription,
	domain.FieldMergedDescription,
	domain.FieldShortTitle,
	domain.FieldLongTitle,
	domain.FieldImageURL,
	domain.FieldContentURL,
	domain.FieldDocumentLink,
	domain.FieldSourceLink,
	domain.FieldCustomerEmail,
	domain.FieldCustomerName,
	domain.FieldDeliveryReceipt,
}

// NewRecordCmd создаёт группу команд для работы с записями оценки.
func NewRecordCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Inspect appraisal records",
	}

	cmd.AddCommand(newRecordShowCmd(outputFn))

	return cmd
}

func newRecordShowCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RECORD_ID",
		Short: "Show an appraisal record from either partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := outputFn()

			pool, err := repo.NewPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			loc := locator.New(repo.NewRecordStore(pool), slog.New(slog.DiscardHandler))

			h, err := loc.Locate(ctx, args[0])
			if err != nil {
				return err
			}

			values, err := loc.FetchFields(ctx, &h, showFields)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(showFields)+2)
			kv := map[string]string{
				"record_id": h.RecordID,
				"partition": string(h.Partition),
			}
			keys = append(keys, "record_id", "partition")
			for _, f := range showFields {
				keys = append(keys, string(f))
				kv[string(f)] = values[f]
			}

			out.KV(keys, kv)
			return nil
		},
	}
}
