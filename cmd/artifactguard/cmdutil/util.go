// Package cmdutil provides shared utilities for the artifactguard client
// commands.
package cmdutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/marmos91/artifactguard/internal/cli/output"
	"github.com/marmos91/artifactguard/internal/cli/prompt"
	"github.com/marmos91/artifactguard/pkg/api/auth"
	"github.com/marmos91/artifactguard/pkg/apiclient"
	"github.com/marmos91/artifactguard/pkg/config"
)

// EnvToken overrides the bearer token used by client commands.
const EnvToken = "ARTIFACTGUARD_TOKEN"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	ServerURL  string
	Token      string
	Output     string
}

// GetClient returns an API client for the local server.
//
// The server URL comes from --server or from api.port in the configuration.
// The token comes from --token, $ARTIFACTGUARD_TOKEN, or is minted from the
// configured API secret. Without any of these the client is anonymous and
// only read routes will succeed.
func GetClient() (*apiclient.Client, error) {
	if Flags.ServerURL != "" && Flags.Token != "" {
		return apiclient.New(Flags.ServerURL).WithToken(Flags.Token), nil
	}

	cfg, err := loadConfig()
	if err != nil && Flags.ServerURL == "" {
		return nil, err
	}

	url := Flags.ServerURL
	if url == "" {
		url = fmt.Sprintf("http://localhost:%d", cfg.API.Port)
	}
	client := apiclient.New(url)

	tok := Flags.Token
	if tok == "" {
		tok = os.Getenv(EnvToken)
	}
	if tok == "" && cfg != nil {
		tok, err = mintToken(cfg)
		if err != nil {
			return nil, err
		}
	}
	if tok != "" {
		client.SetToken(tok)
	}
	return client, nil
}

func loadConfig() (*config.Config, error) {
	path := Flags.ConfigFile
	if path == "" && config.DefaultConfigExists() {
		path = config.GetDefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func mintToken(cfg *config.Config) (string, error) {
	secret := cfg.API.GetJWTSecret()
	if secret == "" {
		return "", nil
	}
	svc, err := auth.NewJWTService(auth.Config{
		Secret:        secret,
		Issuer:        cfg.API.JWT.Issuer,
		TokenDuration: cfg.API.JWT.TokenDuration,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	token, err := svc.GenerateToken("artifactguard-cli")
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}
	return token.AccessToken, nil
}

// GetOutputFormatParsed returns the parsed --output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data in the selected format. For table output it
// prints emptyMsg when isEmpty is set, otherwise renders table.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, table output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, table)
	}
}

// PrintResult prints data as JSON or YAML, or msg for table output. An
// empty msg prints nothing in table mode.
func PrintResult(data any, msg string) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		if msg != "" {
			output.NewPrinter(os.Stdout, format).Success(msg)
		}
		return nil
	}
	return output.NewPrinter(os.Stdout, format).Print(data)
}

// PrintWarning prints msg in table mode only.
func PrintWarning(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	output.NewPrinter(os.Stdout, format).Warning(msg)
}

// HandleAbort turns a Ctrl+C at a prompt into a clean exit.
func HandleAbort(err error) error {
	if errors.Is(err, prompt.ErrAborted) {
		fmt.Println("Aborted.")
		return nil
	}
	return err
}

// BoolToYesNo renders a bool for tables.
func BoolToYesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// EmptyOr returns def when s is empty.
func EmptyOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// FormatBytes renders n in binary units, e.g. "12 GiB".
func FormatBytes(n uint64) string {
	return humanize.IBytes(n)
}

// FormatOptionalBytes renders n or "-" when it is unknown.
func FormatOptionalBytes(n *uint64, unknown string) string {
	if n == nil {
		return unknown
	}
	return humanize.IBytes(*n)
}

// FormatTime renders t relative to now, e.g. "3 hours ago".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// FormatOptionalTime renders t or "-" when it is nil.
func FormatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return FormatTime(*t)
}
