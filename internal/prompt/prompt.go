// Package prompt asks the operator for everything an export run needs that
// the config file does not provide.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/kidoz/zabbix-event-export-go/internal/config"
	"github.com/kidoz/zabbix-event-export-go/internal/export"
)

// MaxAttempts bounds the URL and credential prompts.
const MaxAttempts = 3

// ErrTooManyAttempts is returned when no valid answer was given within
// MaxAttempts prompts.
var ErrTooManyAttempts = errors.New("no valid input after 3 attempts")

var (
	questionColor = color.New(color.FgCyan)
	errorColor    = color.New(color.FgRed)
	successColor  = color.New(color.FgGreen, color.Bold)
)

// Prompter reads answers line by line from in and writes questions to out.
type Prompter struct {
	in     *bufio.Reader
	out    io.Writer
	log    *zap.Logger
	now    func() time.Time
	passFD int
}

// New creates a Prompter. When in is a terminal the password is read
// without echo.
func New(in io.Reader, out io.Writer, log *zap.Logger) *Prompter {
	p := &Prompter{
		in:     bufio.NewReader(in),
		out:    out,
		log:    log,
		now:    time.Now,
		passFD: -1,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.passFD = int(f.Fd())
	}
	return p
}

// Success prints a highlighted line to out.
func (p *Prompter) Success(format string, args ...interface{}) {
	_, _ = successColor.Fprintf(p.out, format+"\n", args...)
}

func (p *Prompter) ask(question string) (string, error) {
	_, _ = questionColor.Fprint(p.out, question)
	return p.readLine()
}

func (p *Prompter) complain(format string, args ...interface{}) {
	_, _ = errorColor.Fprintf(p.out, format+"\n", args...)
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (p *Prompter) readPassword() (string, error) {
	if p.passFD < 0 {
		return p.readLine()
	}
	b, err := term.ReadPassword(p.passFD)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// OutputFilename asks for the CSV path until it ends in .csv.
func (p *Prompter) OutputFilename() (string, error) {
	question := "Output filename (e.g. events.csv, /tmp/events.csv; relative paths land in the current directory): "
	for {
		name, err := p.ask(question)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(strings.ToLower(name), ".csv") {
			p.log.Debug("Output filename accepted", zap.String("file", name))
			return name, nil
		}
		p.log.Warn("Rejected output filename", zap.String("file", name))
		p.complain("Invalid filename suffix, the name must end with .csv")
	}
}

// Mode asks whether to export History or Recent events. An empty answer
// means History.
func (p *Prompter) Mode() (export.Mode, error) {
	for {
		answer, err := p.ask(`Do you wish to enquire "Recent" or "History" events? [History] `)
		if err != nil {
			return "", err
		}
		switch {
		case answer == "" || strings.EqualFold(answer, string(export.ModeHistory)):
			return export.ModeHistory, nil
		case strings.EqualFold(answer, string(export.ModeRecent)):
			return export.ModeRecent, nil
		}
		p.log.Warn("Rejected query mode", zap.String("input", answer))
		p.complain("Your input %q is invalid", answer)
	}
}

// Timeframe asks for the History bounds in local time. Neither may be in
// the future, from may not be after till, and till accepts "Now".
func (p *Prompter) Timeframe() (from, till time.Time, err error) {
	from, err = p.askTime("From when do you want to get the events? Example of format: 2020-05-03 18:59:36: ", false, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	till, err = p.askTime("Till when do you want to get the events? Example of format: 2020-06-03 21:59:36 or Now: ", true, from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	p.log.Info("Timeframe selected", zap.Time("from", from), zap.Time("till", till))
	return from, till, nil
}

func (p *Prompter) askTime(question string, allowNow bool, notBefore time.Time) (time.Time, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return time.Time{}, err
		}
		now := p.now()
		if allowNow && strings.EqualFold(answer, "now") {
			return now.Truncate(time.Second), nil
		}

		t, err := time.ParseInLocation(export.TimeLayout, answer, time.Local)
		switch {
		case err != nil:
			p.complain("Invalid time %q, use the format 2006-01-02 15:04:05", answer)
		case t.After(now):
			p.complain("%s is later than now", answer)
		case t.Before(notBefore):
			p.complain("%s is earlier than the start of the timeframe", answer)
		default:
			return t, nil
		}
		p.log.Warn("Rejected time input", zap.String("input", answer))
	}
}

// APIURL returns configured when it is a valid API URL and otherwise asks
// for one up to MaxAttempts times.
func (p *Prompter) APIURL(configured string) (string, error) {
	if config.ValidAPIURL(configured) {
		p.log.Info("Using API URL from config", zap.String("url", configured))
		return configured, nil
	}
	if configured != "" {
		p.log.Warn("API URL from config is invalid", zap.String("url", configured))
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		u, err := p.ask("Please provide the URL of your Zabbix API: ")
		if err != nil {
			return "", err
		}
		if config.ValidAPIURL(u) {
			return u, nil
		}
		p.log.Warn("Rejected API URL", zap.String("url", u), zap.Int("attempt", attempt))
		p.complain("The URL %q is invalid, it needs http:// or https:// and /api_jsonrpc.php", u)
	}
	return "", fmt.Errorf("API URL: %w", ErrTooManyAttempts)
}

// Credentials returns the configured username and password when both are
// set and otherwise asks for both up to MaxAttempts times.
func (p *Prompter) Credentials(username, password string) (string, string, error) {
	if strings.TrimSpace(username) != "" && strings.TrimSpace(password) != "" {
		p.log.Info("Using credentials from config", zap.String("user", username))
		return username, password, nil
	}

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		user, err := p.ask("Username: ")
		if err != nil {
			return "", "", err
		}
		_, _ = questionColor.Fprint(p.out, "Password: ")
		pass, err := p.readPassword()
		if err != nil {
			return "", "", err
		}
		if user != "" && pass != "" {
			return user, pass, nil
		}
		p.log.Warn("Blank username or password", zap.Int("attempt", attempt))
		p.complain("Username and password must not be blank")
	}
	return "", "", fmt.Errorf("credentials: %w", ErrTooManyAttempts)
}
