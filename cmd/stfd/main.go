package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/jessevdk/go-flags"
)

const version = "1.0.0"

// globalOptions apply to every command.
type globalOptions struct {
	StateDir string `long:"state-dir" env:"STFD_STATE_DIR" value-name:"DIR" description:"Directory holding config.yaml, logs and locks (default: platform data directory)"`
	Socket   string `long:"socket" env:"STFD_SOCKET" value-name:"PATH" description:"Control socket path (default: control_socket from config, else <state-dir>/stfd.sock)"`
}

var opts globalOptions

func main() {
	parser := newParser()
	// go-flags prints every error, command errors included.
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

func newParser() *flags.Parser {
	parser := flags.NewParser(&opts, flags.Default)
	parser.Name = "stfd"
	parser.ShortDescription = "sample set run request service"

	mustAdd(parser, "run", "Run the intake service",
		"Watches the intake directory and applies every new job file to the instrument named in it. "+
			"Runs as a Windows service when started by the service control manager.", &runCommand{})
	mustAdd(parser, "scan", "Request an immediate intake pass", "", &scanCommand{})
	mustAdd(parser, "status", "Show the state of the running service", "", &statusCommand{})
	mustAdd(parser, "ping", "Check that the service answers on its control socket", "", &pingCommand{})
	mustAdd(parser, "stop", "Ask the running service to stop after the current file", "", &stopCommand{})
	mustAdd(parser, "encrypt-password", "Print the encrypted form of a password",
		"The result can be used for intake.password in config.yaml or EmpowerPw in job files.", &encryptCommand{})
	mustAdd(parser, "submit", "Drop a job file into the intake directory",
		"Validates the job file and writes it atomically as <origin>_<job>_<yyMMdd>_<HHmm>.new.json.", &submitCommand{})
	mustAdd(parser, "verify-audit", "Check the checksums of the audit log",
		"Entries are stamped only while logging.audit_checksum is enabled; unstamped entries pass.", &verifyAuditCommand{})
	mustAdd(parser, "version", "Print the version", "", &versionCommand{})
	return parser
}

func mustAdd(p *flags.Parser, name, short, long string, cmd any) {
	if long == "" {
		long = short
	}
	if _, err := p.AddCommand(name, short, long, cmd); err != nil {
		panic(err)
	}
}

// stateDir resolves --state-dir or the platform default.
func stateDir() string {
	if opts.StateDir != "" {
		return opts.StateDir
	}
	if runtime.GOOS == "windows" {
		if pd := os.Getenv("ProgramData"); pd != "" {
			return filepath.Join(pd, "stfd")
		}
	}
	return "/var/lib/stfd"
}

type versionCommand struct{}

func (c *versionCommand) Execute([]string) error {
	fmt.Printf("stfd %s\n", version)
	return nil
}
