/*
Package cli provides the helpers shared by the ferry commands.

Output Formatting:

Commands that list things build a Table and hand it to a Formatter chosen by
the --format flag:

	table := cli.NewTable("block", "offset", "id")
	table.AddRow("0", "0", id.String())
	if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Text output is aligned with text/tabwriter; JSON output is an array of
objects keyed by column name; CSV output starts with a header row.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()
*/
package cli
