package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/q-controller/catcaption/src/pkg/config"
	"github.com/q-controller/catcaption/src/pkg/input"
	"github.com/q-controller/catcaption/src/pkg/pipeline"
	"github.com/spf13/cobra"
)

func textSource(cmd *cobra.Command) (input.Source, error) {
	if cmd.Flags().Changed("text") {
		text, err := cmd.Flags().GetString("text")
		if err != nil {
			return nil, err
		}
		return input.Static(text), nil
	}
	return &input.Prompt{
		In:    cmd.InOrStdin(),
		Out:   cmd.OutOrStdout(),
		Label: "Enter the text for the picture: ",
	}, nil
}

func tokenSource(cmd *cobra.Command, cfg *config.Config) (*input.TokenFile, error) {
	tokenFile, err := cmd.Flags().GetString("token-file")
	if err != nil {
		return nil, err
	}
	if tokenFile == "" {
		tokenFile = cfg.Files.TokenFile
	}
	wait, err := cmd.Flags().GetDuration("wait-token")
	if err != nil {
		return nil, err
	}
	return &input.TokenFile{Path: tokenFile, Wait: wait}, nil
}

// progress prints the console lines of a run.
func progress(out io.Writer) pipeline.Observer {
	return func(state pipeline.State, result *pipeline.Result) {
		switch state {
		case pipeline.StateFetching:
			fmt.Fprintf(out, "\nFetching a picture with the text '%s'...\n", result.Text)
		case pipeline.StateFolderCheck:
			fmt.Fprintf(out, "Picture received. Size: %d bytes\n", result.Size)
		case pipeline.StateRecordingMetadata:
			fmt.Fprintf(out, "File '%s.jpg' uploaded to the disk\n", result.Text)
		case pipeline.StateDone:
			fmt.Fprintf(out, "Metadata saved to '%s'\n", result.MetadataFile)
		}
	}
}

func describe(err error) string {
	switch pipeline.KindOf(err) {
	case pipeline.KindRequest:
		return fmt.Sprintf("API request failed: %v", err)
	case pipeline.KindUnexpected:
		return fmt.Sprintf("Unexpected error: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Performs a single run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, cfgErr := loadConfig(cmd)
		if cfgErr != nil {
			return cfgErr
		}

		text, textErr := textSource(cmd)
		if textErr != nil {
			return textErr
		}
		token, tokenErr := tokenSource(cmd, cfg)
		if tokenErr != nil {
			return tokenErr
		}

		store, storeErr := openHistory(cfg)
		if storeErr != nil {
			return storeErr
		}
		defer closeHistory(store)

		out := cmd.OutOrStdout()
		opts := []pipeline.Option{pipeline.WithObserver(progress(out))}
		if store != nil {
			opts = append(opts, pipeline.WithHistory(store))
		}

		p := pipeline.New(cfg, slog.Default(), opts...)
		result, runErr := p.Run(cmd.Context(), input.Sources{Text: text, Token: token})
		if runErr != nil {
			// A failed run is reported, not treated as a command failure.
			fmt.Fprintln(out, describe(runErr))
		}
		fmt.Fprintln(out, "Temporary file removed.")
		slog.Debug("Run finished", "run_id", result.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("text", "t", "", "Caption text; prompted for when omitted")
	runCmd.Flags().String("token-file", "", "Path to the storage token file (default from config)")
	runCmd.Flags().Duration("wait-token", 0, "Wait up to this long for the token file to appear")
}
