// Valora CLI — операторский инструмент командной строки.
//
// Использование:
//
//	valora [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	task      Публикация заданий оценки
//	record    Просмотр записей оценки
//	dlq       Просмотр dead letter queue
//	topology  Декларация топологии брокера
//
// Подключение настраивается через RABBITMQ_URL и DB_URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Valora/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "valora",
		Short:         "Valora CLI — appraisal pipeline operations tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewTaskCmd(outputFn),
		cli.NewRecordCmd(outputFn),
		cli.NewDLQCmd(outputFn),
		cli.NewTopologyCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
