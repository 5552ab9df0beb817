package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const apiPrefix = "/v1/placebench"

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   strings.TrimSpace(token),
		// compare waits for every solver of a scenario
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf io.Reader = bytes.NewReader(nil)
	if raw, ok := body.([]byte); ok {
		buf = bytes.NewReader(raw)
	} else if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.baseURL+apiPrefix+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

// call performs a request and decodes a 2xx JSON answer into out.
func (c *client) call(method, path string, body any, out any) error {
	status, resp, err := c.request(method, path, body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return apiError(status, resp)
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = resp
		return nil
	}
	return json.Unmarshal(resp, out)
}

func apiError(status int, body []byte) error {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("error (%d): %s", status, e.Error)
	}
	return fmt.Errorf("error (%d): %s", status, strings.TrimSpace(string(body)))
}

// withSpinner runs fn behind a spinner when stdout is a terminal.
func withSpinner(msg string, fn func() error) error {
	if !isTerminal(int(os.Stdout.Fd())) {
		return fn()
	}
	spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
	spin.Suffix = " " + msg
	spin.Start()
	err := fn()
	spin.Stop()
	return err
}

func main() {
	baseURL := getenv("PLACEBENCH_BASE_URL", "http://localhost:8080")
	token := getenv("PLACEBENCH_TOKEN", "")
	profileName := getenv("PLACEBENCH_PROFILE", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "placebench",
		Short: "placebench CLI",
		Long:  "placebench CLI for queueing scenarios, running solver comparisons, and exporting reports.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for the placebench server")
	root.PersistentFlags().StringVar(&token, "token", token, "Bearer token")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		prof := cfg.Profiles[resolveProfileName(profileName, cfg)]
		flags := cmd.Flags()
		if !flags.Changed("base-url") && os.Getenv("PLACEBENCH_BASE_URL") == "" && prof.BaseURL != "" {
			baseURL = prof.BaseURL
		}
		if !flags.Changed("token") && os.Getenv("PLACEBENCH_TOKEN") == "" && prof.Token != "" {
			token = prof.Token
		}
		return nil
	}

	clientFn := func() *client { return newClient(baseURL, token) }

	root.AddCommand(initCmd(&profileName, ui))
	root.AddCommand(catalogCmd(clientFn, ui))
	root.AddCommand(scenarioCmd(clientFn, ui))
	root.AddCommand(compareCmd(clientFn, ui))
	root.AddCommand(runCmd(clientFn, ui))
	root.AddCommand(runsCmd(clientFn, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func helpTemplate(ui *ui) string {
	title := ui.title("placebench")
	return fmt.Sprintf(`%s: compare antenna placement solvers

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  placebench init
  placebench scenario add --grid-size 30 --pattern clustered --max-budget 60000
  placebench scenario import scenarios.json
  placebench compare --grid-size 20 --algorithms greedy,genetic
  placebench run --export
  placebench runs report <id>

`, title, configPath())
}
