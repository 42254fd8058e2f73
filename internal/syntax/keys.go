package syntax

// Property names recognised in pipeline documents.
const (
	keyBash                  = "bash"
	keyCondition             = "condition"
	keyContinueOnError       = "continueOnError"
	keyData                  = "data"
	keyEnabled               = "enabled"
	keyEnvironment           = "environment"
	keyErrorActionPreference = "errorActionPreference"
	keyExport                = "export"
	keyFailOnStderr          = "failOnStderr"
	keyIgnoreLastExitCode    = "ignoreLASTEXITCODE"
	keyImport                = "import"
	keyInputs                = "inputs"
	keyJobs                  = "jobs"
	keyName                  = "name"
	keyParallel              = "parallel"
	keyParameters            = "parameters"
	keyPhase                 = "phase"
	keyPhases                = "phases"
	keyPowerShell            = "powershell"
	keyResources             = "resources"
	keyScript                = "script"
	keySteps                 = "steps"
	keyTarget                = "target"
	keyTask                  = "task"
	keyTemplate              = "template"
	keyTimeoutInMinutes      = "timeoutInMinutes"
	keyType                  = "type"
	keyValue                 = "value"
	keyVariables             = "variables"
	keyVerbatim              = "verbatim"
	keyWorkingDirectory      = "workingDirectory"
)

// Tasks the script shorthands expand to.
var (
	cmdLineTask    = shorthand{name: "CmdLine", version: "2", extra: []string{keyFailOnStderr, keyWorkingDirectory}}
	bashTask       = shorthand{name: "Bash", version: "3", extra: []string{keyFailOnStderr, keyWorkingDirectory}}
	powerShellTask = shorthand{name: "PowerShell", version: "2", extra: []string{keyErrorActionPreference, keyFailOnStderr, keyIgnoreLastExitCode, keyWorkingDirectory}}
)

type shorthand struct {
	name    string
	version string
	// extra lists the keys copied verbatim into the task inputs.
	extra []string
}
