package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/httpkit/client"
)

// getCommand creates the get command.
func (c *CLI) getCommand() *cobra.Command {
	var (
		raw      bool
		repeat   int
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "get URL [URL...]",
		Short: "Fetch one or more URLs",
		Long: `Fetch one or more URLs concurrently and print each response body in
argument order. With --repeat, each URL is fetched several times in sequence,
which shows the response cache at work when --cache is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if repeat < 1 {
				return fmt.Errorf("--repeat must be at least 1, got %d", repeat)
			}
			hc, shutdown, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			results := make([][]byte, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(parallel, 1))
			for i, target := range args {
				g.Go(func() error {
					for range repeat {
						body, err := fetch(ctx, hc, target, raw)
						if err != nil {
							return err
						}
						results[i] = body
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			c.logStats(hc)
			return writeBodies(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the body as received instead of indented JSON")
	cmd.Flags().IntVar(&repeat, "repeat", 1, "fetch each URL this many times")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", defaultParallel, "maximum concurrent fetches")
	return cmd
}

// bodyCommand creates a command that sends a body with method.
func (c *CLI) bodyCommand(method, use, short string) *cobra.Command {
	var (
		kind string
		data string
		raw  bool
	)

	cmd := &cobra.Command{
		Use:   use + " URL",
		Short: short,
		Long: short + `.

--type selects the encoding: json, form, text or blob. --data holds the
payload; prefix it with @ to read it from a file. Form data is given as a
query string ("a=1&b=2").`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readData(data)
			if err != nil {
				return err
			}
			body, err := buildBody(kind, payload)
			if err != nil {
				return err
			}

			hc, shutdown, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			var out []byte
			if raw {
				out, err = hc.Do(cmd.Context(), client.Request{Method: method, URL: args[0], Body: body}).Unwrap()
			} else {
				var msg json.RawMessage
				switch method {
				case http.MethodPut:
					msg, err = client.Replace[json.RawMessage](cmd.Context(), hc, args[0], body).Unwrap()
				default:
					msg, err = client.Submit[json.RawMessage](cmd.Context(), hc, args[0], body).Unwrap()
				}
				if err == nil {
					out, err = indent(msg)
				}
			}
			if err != nil {
				return err
			}
			return writeBodies(cmd.OutOrStdout(), [][]byte{out})
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(client.KindJSON), "body encoding (json|form|text|blob)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "body payload, or @file to read it from a file")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the body as received instead of indented JSON")
	return cmd
}

// deleteCommand creates the delete command.
func (c *CLI) deleteCommand() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "delete URL",
		Short: "Remove a resource with DELETE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hc, shutdown, err := c.newClient(cmd)
			if err != nil {
				return err
			}
			defer shutdown()

			var out []byte
			if raw {
				out, err = hc.Do(cmd.Context(), client.Request{Method: http.MethodDelete, URL: args[0]}).Unwrap()
			} else {
				var msg json.RawMessage
				msg, err = client.Remove[json.RawMessage](cmd.Context(), hc, args[0], nil).Unwrap()
				if err == nil {
					out, err = indent(msg)
				}
			}
			if err != nil {
				return err
			}
			return writeBodies(cmd.OutOrStdout(), [][]byte{out})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the body as received instead of indented JSON")
	return cmd
}

// fetch performs one GET, decoding JSON unless raw is set.
func fetch(ctx context.Context, hc *client.Client, target string, raw bool) ([]byte, error) {
	if raw {
		return hc.Do(ctx, client.Request{URL: target}).Unwrap()
	}
	msg, err := client.Fetch[json.RawMessage](ctx, hc, target, nil).Unwrap()
	if err != nil {
		return nil, err
	}
	return indent(msg)
}

// buildBody maps the --type and --data flags onto a client body.
func buildBody(kind, payload string) (client.Body, error) {
	switch client.Kind(kind) {
	case client.KindJSON:
		if payload == "" {
			payload = "null"
		}
		if !json.Valid([]byte(payload)) {
			return nil, fmt.Errorf("--data is not valid JSON")
		}
		return client.NewBody(kind, json.RawMessage(payload))
	case client.KindForm:
		values, err := url.ParseQuery(payload)
		if err != nil {
			return nil, fmt.Errorf("--data is not a valid form: %w", err)
		}
		return client.NewBody(kind, values)
	default:
		return client.NewBody(kind, payload)
	}
}

// readData resolves an @file reference.
func readData(data string) (string, error) {
	path, ok := strings.CutPrefix(data, "@")
	if !ok {
		return data, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read data file: %w", err)
	}
	return string(b), nil
}

// indent pretty-prints a JSON document. Empty input stays empty.
func indent(msg json.RawMessage) ([]byte, error) {
	if len(msg) == 0 {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, msg, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeBodies prints each non-empty body followed by a newline.
func writeBodies(w io.Writer, bodies [][]byte) error {
	for _, b := range bodies {
		if len(b) == 0 {
			continue
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
		if !bytes.HasSuffix(b, []byte("\n")) {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}
