package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwantia/extio"
)

func newRequestCmd(a *app) *cobra.Command {
	var (
		method  string
		headers []string
		data    string
		timeout time.Duration
		include bool
	)

	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Send an HTTP request and print the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &extio.Request{
				Method: method,
				URL:    args[0],
				Header: make(http.Header),
			}
			for _, header := range headers {
				key, value, ok := strings.Cut(header, ":")
				if !ok {
					return fmt.Errorf("header '%s' must be formatted as 'Key: Value'", header)
				}
				req.Header.Add(strings.TrimSpace(key), strings.TrimSpace(value))
			}
			if data != "" {
				req.Body = []byte(data)
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			resp, err := a.backend.Network().Request(ctx, req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if include {
				fmt.Fprintf(w, "%d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
				resp.Header.Write(w)
				fmt.Fprintln(w)
			}
			_, err = w.Write(resp.Body)
			return err
		},
	}

	cmd.Flags().StringVarP(&method, "method", "X", "", "request method (default GET)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "request header 'Key: Value', repeatable")
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "abort the request after this duration")
	cmd.Flags().BoolVarP(&include, "include", "i", false, "print status line and headers")

	return cmd
}
