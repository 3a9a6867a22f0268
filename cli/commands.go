package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Snapshot  string `help:"Path to the JSON snapshot file holding the book." type:"path"`
	DB        string `help:"Path to a SQLite database holding the book (overrides --snapshot)." type:"path"`
	Telemetry bool   `help:"Show timing telemetry for operations."`
}

type Commands struct {
	Globals

	Balance    BalanceCmd    `cmd:"" help:"Run a subtotal over the book and print the tree."`
	Amortize   AmortizeCmd   `cmd:"" help:"Regenerate an amortization schedule."`
	Depreciate DepreciateCmd `cmd:"" help:"Regenerate an asset depreciation schedule."`
	Register   RegisterCmd   `cmd:"" help:"Bind stored vouchers to schedule items."`
	Update     UpdateCmd     `cmd:"" help:"Reconcile schedule items against stored vouchers."`
	Reset      ResetCmd      `cmd:"" help:"Sever schedule items from their vouchers."`
	Serve      ServeCmd      `cmd:"" help:"Start the read-only web server."`
}
