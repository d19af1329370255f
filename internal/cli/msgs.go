package cli

// Short messages (one-liners)
const (
	MsgRootShort = "Turn a generated app skeleton into a FlowSource distribution"
	MsgRootLong = `flowsource scaffolds a base web application and customizes it into a
FlowSource distribution: theme and branding files are copied in, OAuth
provider wiring is injected into the generated source, and configuration
fragments found in documentation are merged into the persisted
app-config document. Every edit is idempotent, so re-running against a
partially migrated tree is safe.`

	MsgCreateShort   = "Run the customization phases against a destination tree"
	MsgPatchShort    = "Wire an auth provider into the generated source"
	MsgMergeShort    = "Merge a configuration fragment file into the app-config document"
	MsgValidateShort = "Check the app-config document for duplicate entries"
	MsgGenConfShort  = "Write the default .flowsource.toml to the current directory"
	MsgVersionShort  = "Print version information"

	// Status messages
	MsgMergeDone        = "Merged %s into %s\n"
	MsgPatchDone        = "Generated source wired for %s\n"
	MsgValidationOK     = "Configuration document looks good.\n"
	MsgValidationIssues = "Configuration document has issues:\n"
	MsgConfigWritten    = "Wrote %s\n"
	MsgConfigExists     = "%s already exists, not overwriting\n"
	MsgProviderSuggest  = "Unknown provider %q. Did you mean %q?\n"
	MsgProviderList     = "Supported providers: %s\n"
)
