// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/jmcdonald/minizip/internal/adapters/osfs"
	"github.com/jmcdonald/minizip/internal/adapters/ziparchiver"
	"github.com/jmcdonald/minizip/internal/archive"
	"github.com/jmcdonald/minizip/internal/config"
	"github.com/jmcdonald/minizip/internal/humanize"
	"github.com/jmcdonald/minizip/internal/ports"
)

// Exit codes. Operational failures get one code per archive.Kind.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

var kindExitCodes = map[archive.Kind]int{
	archive.InputNotFound:     3,
	archive.InputUnreadable:   4,
	archive.OutOfMemory:       5,
	archive.ShortRead:         6,
	archive.ArchiveNotFound:   7,
	archive.CorruptArchive:    8,
	archive.MemberNotFound:    9,
	archive.ChecksumMismatch:  10,
	archive.CodecFailure:      11,
	archive.ArchiveUnwritable: 12,
	archive.OutputUnwritable:  13,
	archive.InvalidName:       14,
	archive.ArchiveUnreadable: 15,
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if code, ok := kindExitCodes[archive.KindOf(err)]; ok {
		return code
	}
	return ExitFailure
}

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() (string, error)
	DefaultConfig() *config.Config
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)
	WorkDir string    // Extraction directory ("" means ".")

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc ConfigService
	Archiver  ports.Archiver
	FS        ports.FileSystem

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	c := &CLI{
		Out:     out,
		Err:     errOut,
		Version: "test",
		Args:    args,
		Exit:    func(int) {},
	}
	c.disableColors()
	return c
}

func (c *CLI) disableColors() {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	c.green, c.yellow, c.cyan, c.gray, c.red = noColor, noColor, noColor, noColor, noColor
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error) { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() (string, error)   { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() *config.Config { return config.DefaultConfig() }

func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) fileSystem() ports.FileSystem {
	if c.FS != nil {
		return c.FS
	}
	return osfs.New()
}

// archiver returns the injected archiver or builds one from cfg.
func (c *CLI) archiver(cfg *config.Config) (ports.Archiver, error) {
	if c.Archiver != nil {
		return c.Archiver, nil
	}
	opts, err := cfg.AddOptions()
	if err != nil {
		return nil, err
	}
	return ziparchiver.New(c.fileSystem(), opts, cfg.MaxMemberSize), nil
}

func (c *CLI) workDir() string {
	if c.WorkDir != "" {
		return c.WorkDir
	}
	return "."
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if len(c.Args) < 2 {
		c.usageError("No command specified.")
		return
	}

	if len(c.Args) == 4 {
		switch c.Args[2] {
		case "+":
			c.AddFile()
			return
		case "-":
			c.ExtractFile()
			return
		}
	}

	switch c.Args[1] {
	case "list":
		c.ListMembers()
	case "test":
		c.TestArchive()
	case "init":
		c.InitConfig()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "minizip v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		if len(c.Args) == 4 {
			c.usageError(fmt.Sprintf("Unknown operation: %s", c.Args[2]))
			return
		}
		c.usageError(fmt.Sprintf("Unknown command: %s", c.Args[1]))
	}
}

const usage = `minizip - Adds or extracts files from a compressed archive.

Usage:
  minizip <archive> + <filename>           Add a file to the archive (created if missing)
  minizip <archive> - <filename>           Extract a file into the current directory
  minizip list <archive>                   List archive members
  minizip test <archive>                   Verify every member's CRC-32
  minizip ui <archive>                     Browse the archive interactively
  minizip init                             Create default config file
  minizip version, -v                      Show version
  minizip help, -h                         Show this help

Config: ~/.minizip/config.yaml`

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, usage)
}

func (c *CLI) usageError(msg string) {
	fmt.Fprintln(c.Err, msg)
	fmt.Fprintln(c.Err, usage)
	c.Exit(ExitUsage)
}

// fail reports err and exits with the status for its kind.
func (c *CLI) fail(err error) {
	fmt.Fprintf(c.Err, "%s %v\n", c.red("Error:"), err)
	c.Exit(ExitCode(err))
}

// setup loads the config and resolves the archive argument.
func (c *CLI) setup(archiveArg string) (ports.Archiver, string, bool) {
	cfg, err := c.configSvc().Load()
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(ExitFailure)
		return nil, "", false
	}
	if cfg.NoColor {
		c.disableColors()
	}

	archivePath, err := config.ExpandPath(archiveArg)
	if err != nil {
		c.fail(err)
		return nil, "", false
	}

	arch, err := c.archiver(cfg)
	if err != nil {
		fmt.Fprintf(c.Err, "Error loading config: %v\n", err)
		c.Exit(ExitFailure)
		return nil, "", false
	}
	return arch, archivePath, true
}

// AddFile handles "<archive> + <filename>".
func (c *CLI) AddFile() {
	arch, archivePath, ok := c.setup(c.Args[1])
	if !ok {
		return
	}
	source := c.Args[3]

	if info, err := c.fileSystem().Stat(source); err == nil && !info.IsDir() {
		full, absErr := filepath.Abs(source)
		if absErr != nil {
			full = source
		}
		fmt.Fprintf(c.Out, "%s File %s opened for reading.\n", c.green("[+]"), full)
		fmt.Fprintf(c.Out, "%s File size: %d\n", c.green("[+]"), info.Size())
	}

	m, err := arch.Add(archivePath, source)
	if err != nil {
		c.fail(err)
		return
	}

	fmt.Fprintf(c.Out, "%s FileName: %s\n", c.green("[+]"), m.Name)
	fmt.Fprintf(c.Out, "%s File %s successfully added to archive %s. %s\n",
		c.green("[+]"),
		m.Name,
		archivePath,
		c.gray(fmt.Sprintf("(%s, %s -> %s, saved %s)",
			m.Method,
			humanize.FormatSize(m.Size),
			humanize.FormatSize(m.CompressedSize),
			humanize.Ratio(m.CompressedSize, m.Size))))
}

// ExtractFile handles "<archive> - <filename>".
func (c *CLI) ExtractFile() {
	arch, archivePath, ok := c.setup(c.Args[1])
	if !ok {
		return
	}
	name := c.Args[3]

	m, err := arch.Extract(archivePath, name, c.workDir())
	if err != nil {
		c.fail(err)
		return
	}

	fmt.Fprintf(c.Out, "%s File %s extracted from archive %s. %s\n",
		c.green("[+]"),
		name,
		archivePath,
		c.gray(fmt.Sprintf("(%s, crc %08x)", humanize.FormatSize(m.Size), m.CRC32)))
}

// ListMembers prints the archive's members in directory order.
func (c *CLI) ListMembers() {
	if len(c.Args) < 3 {
		c.usageError("Usage: minizip list <archive>")
		return
	}
	arch, archivePath, ok := c.setup(c.Args[2])
	if !ok {
		return
	}

	members, err := arch.List(archivePath)
	if err != nil {
		c.fail(err)
		return
	}

	if len(members) == 0 {
		fmt.Fprintf(c.Out, "No members in %s\n", archivePath)
		return
	}

	fmt.Fprintf(c.Out, "Members of %s:\n\n", c.cyan(archivePath))
	fmt.Fprintf(c.Out, "  %-30s %10s %10s %-8s %-8s %s\n", "NAME", "SIZE", "PACKED", "METHOD", "CRC32", "MODIFIED")
	fmt.Fprintf(c.Out, "  %-30s %10s %10s %-8s %-8s %s\n", "----", "----", "------", "------", "-----", "--------")

	var total, packed int64
	for _, m := range members {
		modified := c.gray("-")
		if !m.Modified.IsZero() {
			modified = m.Modified.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(c.Out, "  %-30s %10s %10s %-8s %08x %s\n",
			m.Name,
			humanize.FormatSize(m.Size),
			humanize.FormatSize(m.CompressedSize),
			m.Method,
			m.CRC32,
			modified)
		total += m.Size
		packed += m.CompressedSize
	}

	fmt.Fprintln(c.Out)
	fmt.Fprintf(c.Out, "%d members, %s (%s packed, saved %s)\n",
		len(members),
		c.yellow(humanize.FormatSize(total)),
		humanize.FormatSize(packed),
		humanize.Ratio(packed, total))
}

// TestArchive verifies every member's checksum.
func (c *CLI) TestArchive() {
	if len(c.Args) < 3 {
		c.usageError("Usage: minizip test <archive>")
		return
	}
	arch, archivePath, ok := c.setup(c.Args[2])
	if !ok {
		return
	}

	results, err := arch.Verify(archivePath)
	if err != nil {
		c.fail(err)
		return
	}

	var firstErr error
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(c.Out, "  %s %s: %v\n", c.red("x"), r.Name, r.Err)
			if firstErr == nil {
				firstErr = r.Err
			}
			failed++
			continue
		}
		fmt.Fprintf(c.Out, "  %s %s\n", c.green("*"), r.Name)
	}

	fmt.Fprintln(c.Out)
	fmt.Fprintf(c.Out, "Done: %s ok", c.green(fmt.Sprintf("%d", len(results)-failed)))
	if failed > 0 {
		fmt.Fprintf(c.Out, ", %s failed", c.red(fmt.Sprintf("%d", failed)))
	}
	fmt.Fprintln(c.Out)

	if firstErr != nil {
		c.Exit(ExitCode(firstErr))
	}
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	if err := svc.Save(svc.DefaultConfig()); err != nil {
		fmt.Fprintf(c.Err, "Error saving config: %v\n", err)
		c.Exit(ExitFailure)
		return
	}
	path, err := svc.ConfigPath()
	if err != nil {
		fmt.Fprintf(c.Err, "Error: %v\n", err)
		c.Exit(ExitFailure)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", path)
}
