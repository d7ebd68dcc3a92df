package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/trampoja/app-onboarding/internal/utils"
)

var errInvalidDocuments = errors.New("one or more documents are invalid")

// documentKind bundles the helpers of one document type
type documentKind struct {
	name     string
	length   int
	validate func(utils.DocumentValidator, string) utils.DocumentResult
	clean    func(string) string
	format   func(string) string
	complete func(string) string
}

var kinds = []documentKind{
	{
		name:     "cpf",
		length:   utils.CPFLength,
		validate: utils.DocumentValidator.ValidateCPF,
		clean:    utils.CleanCPF,
		format:   utils.FormatCPF,
		complete: utils.CompleteCPF,
	},
	{
		name:     "cnpj",
		length:   utils.CNPJLength,
		validate: utils.DocumentValidator.ValidateCNPJ,
		clean:    utils.CleanCNPJ,
		format:   utils.FormatCNPJ,
		complete: utils.CompleteCNPJ,
	},
}

type checkOptions struct {
	quiet   bool
	digits  bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	opts := &checkOptions{}
	root := &cobra.Command{
		Use:   "doccheck",
		Short: "Validate, clean and format CPF and CNPJ numbers",
		Long: `Checks Brazilian CPF and CNPJ numbers with the same rules the API applies.

Examples:
  # Validate CPFs, masked or not
  doccheck cpf 529.982.247-25 52998224724

  # Validate CNPJs read from stdin, one per line
  cat cnpjs.txt | doccheck cnpj -

  # Append the check digits to a base
  doccheck complete cpf 529982247`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	for _, kind := range kinds {
		root.AddCommand(newCheckCmd(kind, opts))
	}
	root.AddCommand(newCompleteCmd())
	return root
}

func newCheckCmd(kind documentKind, opts *checkOptions) *cobra.Command {
	label := strings.ToUpper(kind.name)
	cmd := &cobra.Command{
		Use:   kind.name + " <value>... | -",
		Short: "Validate " + label + " numbers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := readValues(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			validator := utils.NewDocumentValidator()
			out := cmd.OutOrStdout()
			invalid := 0
			for _, value := range values {
				result := kind.validate(validator, value)
				if !result.Valid {
					invalid++
				}
				if opts.quiet {
					continue
				}
				printResult(out, kind, value, result, opts.digits)
			}

			if invalid > 0 {
				if !opts.quiet {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s %d of %d %s numbers are invalid\n",
						color.RedString("✗"), invalid, len(values), label)
				}
				return errInvalidDocuments
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print nothing, report through the exit code")
	cmd.Flags().BoolVar(&opts.digits, "digits", false, "print valid numbers as digits only")
	return cmd
}

func printResult(out io.Writer, kind documentKind, value string, result utils.DocumentResult, digits bool) {
	if !result.Valid {
		fmt.Fprintf(out, "%s %s %s\n", color.RedString("✗"), value, color.YellowString("(%s)", result.Error))
		return
	}
	rendered := kind.format(value)
	if digits {
		rendered = kind.clean(value)
	}
	fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), rendered)
}

func newCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete <cpf|cnpj> <base>...",
		Short: "Append the check digits to CPF or CNPJ bases",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := findKind(args[0])
			if !ok {
				return fmt.Errorf("unknown document type %q: use cpf or cnpj", args[0])
			}
			for _, base := range args[1:] {
				full := kind.complete(base)
				if full == "" {
					return fmt.Errorf("%s base must have %d digits: %q", strings.ToUpper(kind.name), kind.length-2, base)
				}
				fmt.Fprintln(cmd.OutOrStdout(), kind.format(full))
			}
			return nil
		},
	}
	return cmd
}

func findKind(name string) (documentKind, bool) {
	for _, k := range kinds {
		if k.name == strings.ToLower(name) {
			return k, true
		}
	}
	return documentKind{}, false
}

// readValues returns args, or the non-empty lines of in when args is "-"
func readValues(in io.Reader, args []string) ([]string, error) {
	if len(args) != 1 || args[0] != "-" {
		return args, nil
	}
	var values []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			values = append(values, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return values, nil
}
