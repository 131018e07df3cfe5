package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sewenew/tokenizer"
	"github.com/sewenew/tokenizer/internal/logutil"
)

func main() {
	cobra.CheckErr(NewCLI().Execute())
}

// NewCLI assembles the tiktoken command tree.
func NewCLI() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:           "tiktoken",
		Short:         "Byte-level BPE tokenizer for tiktoken-style encodings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(logutil.NewLogger(os.Stderr, level))
		},
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "tiktoken.toml", "encodings config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	var (
		encodingName string
		ordinary     bool
		allowed      []string
	)
	encodeCmd := &cobra.Command{
		Use:   "encode [files...]",
		Short: "Encode files (or stdin) to token ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := tokenizer.NewFactory(configPath)
			if err != nil {
				return err
			}
			tk, err := factory.Create(encodingName)
			if err != nil {
				return err
			}
			encode := func(text string) ([]tokenizer.Rank, error) {
				switch {
				case ordinary:
					return tk.EncodeOrdinary(text)
				case len(allowed) > 0:
					return tk.EncodeWithAllowedSpecial(text, tokenizer.AllowedSpecials(allowed...))
				default:
					return tk.Encode(text)
				}
			}

			if len(args) == 0 {
				text, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				ids, err := encode(string(text))
				if err != nil {
					return err
				}
				return json.NewEncoder(cmd.OutOrStdout()).Encode(ids)
			}

			results := make([][]tokenizer.Rank, len(args))
			var g errgroup.Group
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					text, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					ids, err := encode(string(text))
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					results[i] = ids
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ids := range results {
				if err := enc.Encode(ids); err != nil {
					return err
				}
			}
			return nil
		},
	}
	encodeCmd.Flags().StringVarP(&encodingName, "encoding", "e", "cl100k_base", "encoding name")
	encodeCmd.Flags().BoolVar(&ordinary, "ordinary", false, "disable special-token recognition")
	encodeCmd.Flags().StringSliceVar(&allowed, "allowed", nil, "allowed special-token literals")

	decodeCmd := &cobra.Command{
		Use:   "decode [ids...]",
		Short: "Decode token ids (args, or a JSON array on stdin) to text",
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := tokenizer.NewFactory(configPath)
			if err != nil {
				return err
			}
			tk, err := factory.Create(encodingName)
			if err != nil {
				return err
			}
			var ids []tokenizer.Rank
			if len(args) > 0 {
				for _, a := range args {
					id, err := strconv.ParseUint(a, 10, 32)
					if err != nil {
						return fmt.Errorf("bad token id %q: %w", a, err)
					}
					ids = append(ids, tokenizer.Rank(id))
				}
			} else if err := json.NewDecoder(cmd.InOrStdin()).Decode(&ids); err != nil {
				return fmt.Errorf("read token ids: %w", err)
			}
			text, err := tk.DecodeString(ids)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	decodeCmd.Flags().StringVarP(&encodingName, "encoding", "e", "cl100k_base", "encoding name")

	encodingsCmd := &cobra.Command{
		Use:   "encodings",
		Short: "List configured encoding names",
		RunE: func(cmd *cobra.Command, args []string) error {
			factory, err := tokenizer.NewFactory(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(factory.Names(), "\n"))
			return nil
		},
	}

	rootCmd.AddCommand(encodeCmd, decodeCmd, encodingsCmd)
	return rootCmd
}
