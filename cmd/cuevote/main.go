package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/abrezinsky/cuevote/internal/app"
	"github.com/abrezinsky/cuevote/internal/auth"
	"github.com/abrezinsky/cuevote/internal/browser"
	"github.com/abrezinsky/cuevote/internal/config"
	"github.com/abrezinsky/cuevote/internal/logger"
	"github.com/abrezinsky/cuevote/pkg/leaguehub"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

// showLogo prints the CueVote banner
func showLogo(w io.Writer) {
	width := 62
	border := strings.Repeat("═", width)

	logo := []string{
		`          ____           __     __    _                  `,
		`         / ___|   _  ___ \ \   / /__ | |_ ___            `,
		`        | |  | | | |/ _ \ \ \ / / _ \| __/ _ \           `,
		`        | |__| |_| |  __/  \ V / (_) | ||  __/           `,
		`         \____\__,_|\___|   \_/ \___/ \__\___|           `,
		``,
		`                 o=======================  (8)           `,
	}

	fmt.Fprintf(w, "\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		if len(line) < width {
			line += strings.Repeat(" ", width-len(line))
		}
		fmt.Fprintf(w, "  %s║%s%s%s║%s\n", cyan, yellow, line, cyan, reset)
	}
	fmt.Fprintf(w, "  %s╚%s╝%s\n\n", cyan, border, reset)
}

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog *logger.SlogLogger) string {
	var next string
	switch appLog.GetLevel() {
	case slog.LevelDebug:
		next = "info"
	case slog.LevelInfo:
		next = "warn"
	case slog.LevelWarn:
		next = "error"
	case slog.LevelError:
		next = "debug"
	default:
		next = "info"
	}

	appLog.SetLevel(logger.ParseLevel(next))
	return next
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp(w io.Writer) {
	fmt.Fprintf(w, "\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Fprintf(w, "    %so%s      - Open server status in browser\n", cyan, reset)
	fmt.Fprintf(w, "    %ss%s      - Show open votes\n", cyan, reset)
	fmt.Fprintf(w, "    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Fprintf(w, "    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Fprintf(w, "    %sq%s      - Quit server\n", cyan, reset)
	fmt.Fprintf(w, "    %s?%s      - Show this help\n\n", cyan, reset)
}

// console dispatches single-key commands typed at the server terminal
type console struct {
	out       io.Writer
	log       *logger.SlogLogger
	openVotes func() int
	statusURL string
	open      func(string) error
	quit      context.CancelFunc
}

// handle runs the command bound to key. It returns false once the server
// has been asked to stop.
func (c *console) handle(key byte) bool {
	switch unicode.ToLower(rune(key)) {
	case 'o':
		fmt.Fprintf(c.out, "%sOpening %s in browser...%s\n", cyan, c.statusURL, reset)
		if err := c.open(c.statusURL); err != nil {
			fmt.Fprintf(c.out, "%sError opening browser: %v%s\n", red, err, reset)
		}
	case 's':
		fmt.Fprintf(c.out, "%sOpen votes: %s%d%s\n", green, yellow, c.openVotes(), reset)
	case 'h':
		if c.log.IsHTTPLoggingEnabled() {
			c.log.DisableHTTPLogging()
			fmt.Fprintf(c.out, "%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			c.log.EnableHTTPLogging()
			fmt.Fprintf(c.out, "%sHTTP logging enabled%s\n", green, reset)
		}
	case 'l':
		next := cycleLogLevel(c.log)
		fmt.Fprintf(c.out, "%sLog level: %s%s%s\n", green, yellow, next, reset)
	case 'q', '\x03':
		fmt.Fprintf(c.out, "%sShutting down server...%s\n", yellow, reset)
		c.quit()
		return false
	case '?':
		printKeyboardHelp(c.out)
	}
	return true
}

// readKeys feeds bytes from r to the console until it quits or r fails
func (c *console) readKeys(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !c.handle(buf[0]) {
			return
		}
	}
}

func main() {
	os.Exit(run())
}

// run starts the server and returns the process exit code
func run() int {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	if cfg.ShowVersion {
		fmt.Printf("cuevote %s\n", version)
		return 0
	}

	showLogo(os.Stdout)

	password := cfg.AdminPassword
	if password == "" {
		password = auth.GeneratePassword()
	}
	adminAuth := auth.New(password)

	appLog := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	// An empty URL is filled from saved settings when the app starts
	leagueHub := leaguehub.NewHTTPClient(cfg.LeagueHubURL, cfg.LeagueHubToken, appLog)

	a, err := app.New(appLog, cfg, adminAuth, leagueHub)
	if err != nil {
		log.Print("Failed to initialize application: ", err)
		return 1
	}

	appLog.Info("Admin password", "password", password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stdin := int(os.Stdin.Fd())
	if !cfg.NoKeyboard && term.IsTerminal(stdin) {
		restore, err := rawInput(stdin)
		if err != nil {
			appLog.Warn("Keyboard shortcuts unavailable", "error", err)
		} else {
			defer restore()
			printKeyboardHelp(os.Stdout)
			c := &console{
				out:       os.Stdout,
				log:       appLog,
				openVotes: a.OpenVotes,
				statusURL: fmt.Sprintf("http://localhost:%d/api/health", cfg.Port),
				open:      browser.Open,
				quit:      stop,
			}
			go c.readKeys(os.Stdin)
		}
	} else {
		fmt.Printf("%sKeyboard shortcuts disabled%s\n\n", yellow, reset)
	}

	if err := a.Run(ctx); err != nil {
		appLog.Error("Server stopped", "error", err)
		return 1
	}
	return 0
}
