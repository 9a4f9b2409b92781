// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/smartir/pkg/ircode"
)

func newConvertCmd() *cobra.Command {
	var from, to string
	var info bool

	cmd := &cobra.Command{
		Use:   "convert [code]",
		Short: "Convert an IR code between encodings",
		Long: `Convert an IR code between the Base64, Hex, Pronto and Raw encodings.

The code is taken from the argument, or read line by line from stdin when
no argument is given. Each input line produces one output line.

Examples:
  smartir convert --from Raw --to Base64 "9000,-4500,560,-560"
  smartir convert --from Base64 --to Pronto < codes.txt`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, enc := range []string{from, to} {
				if !ircode.Convertible(enc) {
					return fmt.Errorf("%w: %q (want one of %s)",
						ircode.ErrUnsupportedEncoding, enc, strings.Join(ircode.Encodings(), ", "))
				}
			}

			convert := func(text string) error {
				out, err := ircode.Convert(from, to, text)
				if err != nil {
					return err
				}
				if info {
					c, err := ircode.Decode(from, text)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "%d marks, %v, %g Hz\n", c.Marks(), c.Duration(), c.Frequency)
				}
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			}

			if len(args) == 1 {
				return convert(args[0])
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			line := 0
			for scanner.Scan() {
				line++
				text := strings.TrimSpace(scanner.Text())
				if text == "" {
					continue
				}
				if err := convert(text); err != nil {
					return fmt.Errorf("line %d: %w", line, err)
				}
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVar(&from, "from", ircode.EncodingBase64, "Source encoding")
	cmd.Flags().StringVar(&to, "to", ircode.EncodingRaw, "Target encoding")
	cmd.Flags().BoolVarP(&info, "info", "i", false, "Print mark count, duration and carrier to stderr")
	return cmd
}
