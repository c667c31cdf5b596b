package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	transporter "github.com/frankli0324/go-transporter"
	"github.com/frankli0324/go-transporter/internal/logger"
)

type sendOptions struct {
	method  string
	headers []string
	data    []string
	via     string
	output  string
	noColor bool
}

// response is the printable form of a transporter.Response.
type response struct {
	Proto   string            `json:"proto" yaml:"proto"`
	Status  int               `json:"status" yaml:"status"`
	Message string            `json:"message" yaml:"message"`
	Header  map[string]string `json:"header" yaml:"header"`
	Body    string            `json:"body" yaml:"body"`
}

func newSendCmd(configPath *string) *cobra.Command {
	opts := &sendOptions{}
	cmd := &cobra.Command{
		Use:   "send <url>",
		Short: "Send one request and print the response",
		Long: `Send one request and print the response.

Examples:
  transporter send https://api.example.com/items -d page=2
  transporter send -X POST -H 'Content-Type: application/json' -d name=x https://api.example.com/items
  transporter send --via resty -o json https://api.example.com/health`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, *configPath, args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.method, "request", "X", "GET", "request method")
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "request header 'Name: Value' (repeatable)")
	f.StringArrayVarP(&opts.data, "data", "d", nil, "parameter key=value (repeatable)")
	f.StringVar(&opts.via, "via", "", "transporter to use (default from config)")
	f.StringVarP(&opts.output, "output", "o", "yaml", "output format: yaml, json or body")
	f.BoolVar(&opts.noColor, "no-color", false, "disable colored status line")
	return cmd
}

func runSend(cmd *cobra.Command, configPath, url string, opts *sendOptions) error {
	if opts.noColor {
		color.NoColor = true
	}
	fail := func(code int, err error) error {
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), err)
		return &exitError{code, err}
	}
	switch opts.output {
	case "yaml", "json", "body":
	default:
		return fail(ExitUsageError, fmt.Errorf("unknown output format %q", opts.output))
	}
	req, err := buildRequest(url, opts)
	if err != nil {
		return fail(ExitUsageError, err)
	}

	cfg, err := transporter.LoadConfig(configPath)
	if err != nil {
		return fail(ExitConfigError, err)
	}
	via := opts.via
	if via == "" {
		via = cfg.Transporter
	}
	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	tr, err := transporter.NewRegistry().Build(via, cfg, log)
	if err != nil {
		return fail(ExitConfigError, err)
	}

	resp, err := tr.Send(cmd.Context(), req)
	if err != nil {
		return fail(exitCode(err), err)
	}
	color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "%s %d %s\n", resp.Proto, resp.Status.Code, resp.Status.Message)
	return writeResponse(cmd.OutOrStdout(), opts.output, resp)
}

func buildRequest(url string, opts *sendOptions) (*transporter.Request, error) {
	req := &transporter.Request{Method: strings.ToUpper(opts.method), URL: url}
	for _, h := range opts.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Name: Value'", h)
		}
		req.Header.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	if len(opts.data) > 0 {
		req.Params = transporter.Params{}
		for _, d := range opts.data {
			k, v, ok := strings.Cut(d, "=")
			if !ok || k == "" {
				return nil, fmt.Errorf("invalid parameter %q, expected key=value", d)
			}
			req.Params[k] = v
		}
	}
	return req, nil
}

func writeResponse(w io.Writer, format string, resp *transporter.Response) error {
	if format == "body" {
		_, err := w.Write(resp.Body)
		return err
	}
	out := response{
		Proto:   resp.Proto,
		Status:  resp.Status.Code,
		Message: resp.Status.Message,
		Header:  resp.Header,
		Body:    string(resp.Body),
	}
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(out)
}

func exitCode(err error) int {
	var (
		se transporter.HTTPStatusError
		me transporter.MalformedResponseError
		ee transporter.EncodingError
		te transporter.TransportError
	)
	switch {
	case errors.As(err, &se):
		return ExitStatusError
	case errors.As(err, &me):
		return ExitMalformedResponse
	case errors.As(err, &ee):
		return ExitEncodingError
	case errors.As(err, &te):
		if te.Code == transporter.UnsupportedProtocol || te.Code == transporter.URLMalformat {
			return ExitEncodingError
		}
		return ExitTransportError
	}
	return ExitUsageError
}
