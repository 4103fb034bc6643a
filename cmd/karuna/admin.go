package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/term"

	"github.com/Strob0t/Karuna/internal/adapter/memory"
	"github.com/Strob0t/Karuna/internal/adapter/mongodb"
	cfnats "github.com/Strob0t/Karuna/internal/adapter/nats"
	"github.com/Strob0t/Karuna/internal/config"
	"github.com/Strob0t/Karuna/internal/connguard"
	"github.com/Strob0t/Karuna/internal/domain/student"
	"github.com/Strob0t/Karuna/internal/service"
)

const adminTimeout = 30 * time.Second

// runAdmin dispatches admin subcommands.
func runAdmin(args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "import-students":
		return runAdminImportStudents(args[1:], out)
	case "cache-stats":
		return runAdminCacheStats(args[1:], out)
	case "clear-cache":
		return runAdminClearCache(args[1:], in, out)
	case "delete-key":
		return runAdminDeleteKey(args[1:], out)
	case "reset-db":
		return runAdminResetDB(args[1:], out)
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: karuna admin <command> [options]

Commands:
  import-students  Insert student records from a JSON file into MongoDB
  cache-stats      Show the keys cached by a running server
  clear-cache      Clear a running server's cache
  delete-key       Delete one cache key on a running server
  reset-db         Make a running server reconnect to MongoDB
  help             Show this help message

Examples:
  karuna admin import-students --file students.json
  karuna admin cache-stats --addr http://localhost:5000
  karuna admin clear-cache --yes
  karuna admin delete-key --key all_docs
  karuna admin reset-db
`)
}

// ---------------------------------------------------------------------------
// import-students
// ---------------------------------------------------------------------------

func runAdminImportStudents(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import-students", flag.ContinueOnError)
	file := fs.String("file", "", "JSON file holding an array of student records (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("--file is required")
	}

	students, err := readStudents(*file)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		_, _ = fmt.Fprintln(out, "No records in file.")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	guard := connguard.New(mongodb.Dial(&cfg.Mongo, slog.Default()), slog.Default())
	defer func() { _ = guard.Close(context.Background()) }()
	store := mongodb.NewStore(guard, cfg.Mongo.Database)

	// Running servers drop their cached listing through the bus, when one
	// is configured.
	cacheSvc := service.NewCacheService(memory.New(), slog.Default())
	if cfg.NATS.URL != "" {
		bus, err := cfnats.Connect(cfg.NATS.URL, cfg.NATS.Subject, "karuna-admin")
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = bus.Close() }()
		cacheSvc.SetPublisher(bus, uuid.NewString())
	}

	n, err := service.NewStudentService(store, cacheSvc).Import(ctx, students)
	if err != nil {
		return fmt.Errorf("import students (%d inserted): %w", n, err)
	}
	_, _ = fmt.Fprintf(out, "Imported %d student records.\n", n)
	return nil
}

func readStudents(path string) ([]student.Student, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var students []student.Student
	if err := json.Unmarshal(data, &students); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return students, nil
}

// ---------------------------------------------------------------------------
// Server cache commands
// ---------------------------------------------------------------------------

// adminResponse is the envelope returned by /api/cache endpoints.
type adminResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type adminClient struct {
	base string
	http *http.Client
}

func newAdminClient(addr string) *adminClient {
	return &adminClient{
		base: strings.TrimRight(addr, "/"),
		http: &http.Client{Timeout: adminTimeout},
	}
}

// call sends a request to the admin API. A response with success:false is
// returned as an error carrying the server's message.
func (c *adminClient) call(ctx context.Context, method, path string, body any) (*adminResponse, error) {
	var rdr io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out adminResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("%s %s: status %d: decode response: %w", method, path, resp.StatusCode, err)
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		return &out, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return &out, nil
}

func addrFlag(fs *flag.FlagSet) *string {
	def := os.Getenv("KARUNA_ADDR")
	if def == "" {
		def = "http://localhost:" + config.Defaults().Server.Port
	}
	return fs.String("addr", def, "base URL of the running server")
}

func runAdminCacheStats(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("cache-stats", flag.ContinueOnError)
	addr := addrFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	resp, err := newAdminClient(*addr).call(ctx, http.MethodGet, "/api/cache/stats", nil)
	if err != nil {
		return err
	}
	var stats service.CacheStats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		return fmt.Errorf("decode stats: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Total keys: %d\n", stats.TotalKeys)
	if len(stats.Keys) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tKEY")
	for i, k := range stats.Keys {
		_, _ = fmt.Fprintf(w, "%d\t%s\n", i+1, k)
	}
	return w.Flush()
}

func runAdminClearCache(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("clear-cache", flag.ContinueOnError)
	addr := addrFlag(fs)
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes && isTerminal(in) {
		ok, err := confirm(in, out, fmt.Sprintf("Clear every cached response on %s? [y/N]: ", *addr))
		if err != nil {
			return err
		}
		if !ok {
			_, _ = fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	resp, err := newAdminClient(*addr).call(ctx, http.MethodDelete, "/api/cache/clear", nil)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, resp.Message)
	return nil
}

func runAdminDeleteKey(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete-key", flag.ContinueOnError)
	addr := addrFlag(fs)
	key := fs.String("key", "", "cache key to delete (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *key == "" {
		return errors.New("--key is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	resp, err := newAdminClient(*addr).call(ctx, http.MethodPost, "/api/cache/delete-key", map[string]string{"key": *key})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, resp.Message)
	return nil
}

func runAdminResetDB(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reset-db", flag.ContinueOnError)
	addr := addrFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), adminTimeout)
	defer cancel()

	resp, err := newAdminClient(*addr).call(ctx, http.MethodPost, "/api/cache/reset-db", nil)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, resp.Message)
	return nil
}

// isTerminal reports whether in is an interactive terminal.
func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int
}

// confirm prints prompt and reads a yes/no answer.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	_, _ = fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
