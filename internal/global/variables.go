package global

var (
	CmdOpts  *CommandSet // Holds CLI command definition
	Hostname string      // local machine name
	PID      int         // self

	// Integer for printing increasingly detailed information as program progresses
	//
	//	0 - None: quiet (prints nothing but errors)
	//	1 - Standard: normal progress messages
	//	2 - Progress: more progress messages (no actual line content)
	//	3 - Data: shows forwarded line metadata
	//	4 - FullData: shows full forwarded lines
	//	5 - Debug: shows per-line delivery failures
	Verbosity int
)
